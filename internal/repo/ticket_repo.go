// Package repo implements the SQL persistence layer backed by GORM.
// This file provides repository functions for the Ticket model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// Store order is the auto-increment Seq column.
//
// Error semantics:
//   - An update whose observed Version no longer matches returns
//     domain.ErrConflict; an unknown ticket id returns domain.ErrNotFound.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-agent/internal/domain"
)

// ListTickets returns every ticket in store order.
func ListTickets(ctx context.Context, db *gorm.DB) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := db.WithContext(ctx).
		Order("seq asc").
		Find(&out).Error
	return out, err
}

// InsertTicket appends t as a new ticket with Version 1.
func InsertTicket(ctx context.Context, db *gorm.DB, t domain.Ticket) error {
	t.Seq = 0
	t.Version = 1
	return db.WithContext(ctx).Create(&t).Error
}

// UpdateTicket overwrites the mutable columns of the ticket identified by
// t.ID, provided its version still equals t.Version.
func UpdateTicket(ctx context.Context, db *gorm.DB, t domain.Ticket) error {
	return versionedUpdate(ctx, db, t, map[string]any{
		"timestamp":      t.Timestamp,
		"email":          t.Email,
		"subject":        t.Subject,
		"summary":        t.Summary,
		"classification": t.Classification,
	})
}

// SetFollowUp writes marker into the follow-up column of the ticket
// identified by t.ID, provided its version still equals t.Version.
func SetFollowUp(ctx context.Context, db *gorm.DB, t domain.Ticket, marker string) error {
	return versionedUpdate(ctx, db, t, map[string]any{
		"follow_up": marker,
	})
}

func versionedUpdate(ctx context.Context, db *gorm.DB, t domain.Ticket, cols map[string]any) error {
	cols["version"] = gorm.Expr("version + 1")
	res := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("ticket_id = ? AND version = ?", t.ID, t.Version).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := db.WithContext(ctx).Model(&domain.Ticket{}).Where("ticket_id = ?", t.ID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

// TicketTable adapts the ticket repository functions to the store contract
// used by the services, binding them to a single *gorm.DB.
type TicketTable struct {
	DB *gorm.DB
}

// NewTicketTable returns a TicketTable over db.
func NewTicketTable(db *gorm.DB) *TicketTable { return &TicketTable{DB: db} }

// List proxies ListTickets.
func (s *TicketTable) List(ctx context.Context) ([]domain.Ticket, error) {
	return ListTickets(ctx, s.DB)
}

// Append proxies InsertTicket.
func (s *TicketTable) Append(ctx context.Context, t domain.Ticket) error {
	return InsertTicket(ctx, s.DB, t)
}

// Update proxies UpdateTicket.
func (s *TicketTable) Update(ctx context.Context, t domain.Ticket) error {
	return UpdateTicket(ctx, s.DB, t)
}

// SetFollowUp proxies SetFollowUp.
func (s *TicketTable) SetFollowUp(ctx context.Context, t domain.Ticket, marker string) error {
	return SetFollowUp(ctx, s.DB, t, marker)
}
