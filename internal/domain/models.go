// Package domain defines the support ticket, chat history entry and blob
// models shared by the spreadsheet store, the GORM store and the services.
// The GORM mappings are used by the SQL ticket store and the SQL blob bucket.
package domain

import (
	"errors"
	"time"
)

// Ticket statuses and markers. Only StatusOpen participates in matching and
// follow-up sweeps; any other status value is treated as closed.
const (
	StatusOpen   = "Open"
	FollowUpSent = "Follow-up Sent"

	// ChatSubject is the subject recorded for tickets opened from chat.
	ChatSubject = "Chat Support Request"

	DefaultClassification = "General Inquiry"
	NonSupport            = "Non-Tech-Support"
)

// Store-level errors shared by every TicketStore implementation.
var (
	// ErrConflict is returned when a ticket changed or moved between the read
	// that observed it and the write that targets it.
	ErrConflict = errors.New("ticket changed concurrently")

	// ErrNotFound is returned when a ticket id is unknown to the store.
	ErrNotFound = errors.New("ticket not found")
)

// Ticket is one row of the ticket store.
//
// Fields:
//   - Seq: store order for the SQL backend (auto-increment).
//   - ID: opaque, unique, immutable ticket id (UUIDv7).
//   - Timestamp: creation or last update instant, RFC 3339 text as stored.
//   - Email / Subject: the matching key for Open tickets (byte-exact).
//   - Summary / Classification: overwritten on every update.
//   - Status: "Open" or anything else.
//   - FollowUp: empty until a follow-up is sent.
//   - Version: optimistic concurrency token for the SQL backend.
//   - Row: 1-based sheet row observed at read time (spreadsheet backend only).
type Ticket struct {
	Seq            int64  `json:"-"              gorm:"primaryKey;autoIncrement"`
	ID             string `json:"ticket_id"      gorm:"column:ticket_id;type:varchar(64);not null;uniqueIndex"`
	Timestamp      string `json:"timestamp"      gorm:"type:varchar(64);not null"`
	Email          string `json:"email"          gorm:"type:varchar(320);not null;index:idx_ticket_match,priority:1"`
	Subject        string `json:"subject"        gorm:"type:text;not null;index:idx_ticket_match,priority:2"`
	Summary        string `json:"summary"        gorm:"type:text"`
	Classification string `json:"classification" gorm:"type:varchar(128)"`
	Status         string `json:"status"         gorm:"type:varchar(32);not null;default:'Open';index"`
	FollowUp       string `json:"follow_up"      gorm:"column:follow_up;type:varchar(64)"`
	Version        int64  `json:"-"              gorm:"not null;default:1"`
	Row            int    `json:"-"              gorm:"-"`
}

// TableName returns the database table name for Ticket.
func (Ticket) TableName() string { return "tickets" }

// IsOpen reports whether the ticket still participates in matching.
func (t Ticket) IsOpen() bool { return t.Status == StatusOpen }

// Columns is the fixed ticket column order, A through H.
var Columns = []string{
	"ticket_id", "timestamp", "email", "subject",
	"summary", "classification", "status", "follow_up",
}

// Values returns the ticket as a positional row in Columns order.
func (t Ticket) Values() []string {
	return []string{
		t.ID, t.Timestamp, t.Email, t.Subject,
		t.Summary, t.Classification, t.Status, t.FollowUp,
	}
}

// TicketFromRow builds a Ticket from a positional row. Short rows are padded
// with empty cells; extra cells are ignored.
func TicketFromRow(row []string, rowNum int) Ticket {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Ticket{
		ID:             cell(0),
		Timestamp:      cell(1),
		Email:          cell(2),
		Subject:        cell(3),
		Summary:        cell(4),
		Classification: cell(5),
		Status:         cell(6),
		FollowUp:       cell(7),
		Row:            rowNum,
	}
}

// FormatTimestamp renders t the way tickets store their timestamp column.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// naiveLayouts covers ISO-8601 timestamps without a zone, which are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a stored ticket timestamp. RFC 3339 values keep their
// zone; naive ISO-8601 values are interpreted as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	var lastErr error
	for _, layout := range naiveLayouts {
		ts, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ChatEntry is one element of a customer's chat history log.
type ChatEntry struct {
	TicketID       string `json:"ticket_id"`
	Timestamp      string `json:"timestamp"`
	Email          string `json:"email"`
	Message        string `json:"message"`
	Summary        string `json:"summary"`
	Classification string `json:"classification"`
	Status         string `json:"status"`
	Response       string `json:"response"`
}

// Blob is a keyed opaque object, the SQL backing of the chat history bucket.
type Blob struct {
	Key       string    `gorm:"type:varchar(512);primaryKey"`
	Data      []byte    `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName returns the database table name for Blob.
func (Blob) TableName() string { return "blobs" }
