// Package services – TicketService
//
// TicketService applies a Resolve decision to a TicketStore: one full read,
// then exactly one write. Stores reject writes whose observed row or version
// went stale in between with domain.ErrConflict; that surfaces as ErrStore
// without a retry.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-support-agent/internal/domain"
	"github.com/tbourn/go-support-agent/internal/events"
)

// TicketStore is the persistence contract shared by the spreadsheet and SQL
// ticket stores. List returns tickets in store order; Update and SetFollowUp
// target the ticket as observed by List.
type TicketStore interface {
	List(ctx context.Context) ([]domain.Ticket, error)
	Append(ctx context.Context, t domain.Ticket) error
	Update(ctx context.Context, t domain.Ticket) error
	SetFollowUp(ctx context.Context, t domain.Ticket, marker string) error
}

// TicketService resolves inbound messages into ticket writes.
type TicketService struct {
	Store  TicketStore
	Events events.Publisher

	Now   func() time.Time
	NewID func() string
}

// NewTicketService constructs a TicketService with UUIDv7 ids and the wall clock.
func NewTicketService(store TicketStore, pub events.Publisher) *TicketService {
	return &TicketService{
		Store:  store,
		Events: pub,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  NewTicketID,
	}
}

// NewTicketID returns a time-ordered UUIDv7 string.
func NewTicketID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Resolve reads all tickets, decides insert-or-update for in and writes the
// result.
func (s *TicketService) Resolve(ctx context.Context, in Inbound) (Resolution, error) {
	ctx, span := otel.Tracer("services/TicketService").Start(ctx, "Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("support.channel", in.Channel))

	tickets, err := s.Store.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list tickets")
		return Resolution{}, fmt.Errorf("%w: read tickets: %w", ErrStore, err)
	}

	res := Resolve(tickets, in, s.Now(), s.NewID)
	span.SetAttributes(
		attribute.String("ticket.id", res.Ticket.ID),
		attribute.String("ticket.action", string(res.Action)),
	)

	switch res.Action {
	case ActionUpdate:
		err = s.Store.Update(ctx, res.Ticket)
	default:
		err = s.Store.Append(ctx, res.Ticket)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write ticket")
		return Resolution{}, fmt.Errorf("%w: %s ticket %s: %w", ErrStore, res.Action, res.Ticket.ID, err)
	}

	globalSupportMetrics().recordTicket(in.Channel, res.Action)
	s.publish(ctx, res, in.Channel)
	return res, nil
}

func (s *TicketService) publish(ctx context.Context, res Resolution, channel string) {
	if s.Events == nil {
		return
	}
	name := events.TicketCreated
	if res.Action == ActionUpdate {
		name = events.TicketUpdated
	}
	s.Events.Publish(ctx, events.TicketEvent{
		Event:          name,
		TicketID:       res.Ticket.ID,
		Email:          res.Ticket.Email,
		Subject:        res.Ticket.Subject,
		Classification: res.Ticket.Classification,
		Channel:        channel,
		At:             s.Now(),
	})
}
