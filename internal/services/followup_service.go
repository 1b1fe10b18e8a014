// Package services – FollowUpService
//
// FollowUpService runs the stale-ticket sweep. It reads every ticket once,
// then for each Open ticket at least After old sends a follow-up email and
// marks the ticket. Per-ticket failures (timestamp parse, send, marker
// write) are logged, counted and skipped; only the initial read aborts.
package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-support-agent/internal/domain"
	"github.com/tbourn/go-support-agent/internal/events"
	"github.com/tbourn/go-support-agent/internal/notify"
	"github.com/tbourn/go-support-agent/internal/sysutil"
)

// Re-send policies.
const (
	// PolicyOnce sends at most one follow-up per ticket.
	PolicyOnce = "once"
	// PolicyNag re-sends on every sweep until the ticket is closed.
	PolicyNag = "nag"
)

// DefaultFollowUpAfter is the minimum ticket age before a follow-up.
const DefaultFollowUpAfter = 48 * time.Hour

// SweepReport summarises one sweep.
type SweepReport struct {
	Scanned  int `json:"scanned"`
	Eligible int `json:"eligible"`
	Sent     int `json:"sent"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// FollowUpService sends follow-ups for stale Open tickets.
type FollowUpService struct {
	Store  TicketStore
	Mailer notify.Sender
	Events events.Publisher

	After  time.Duration
	Policy string
	Now    func() time.Time
}

// NewFollowUpService returns a FollowUpService; a non-positive after uses
// DefaultFollowUpAfter and an empty policy uses PolicyOnce.
func NewFollowUpService(store TicketStore, mailer notify.Sender, pub events.Publisher, after time.Duration, policy string) *FollowUpService {
	if after <= 0 {
		after = DefaultFollowUpAfter
	}
	if policy == "" {
		policy = PolicyOnce
	}
	return &FollowUpService{
		Store:  store,
		Mailer: mailer,
		Events: pub,
		After:  after,
		Policy: policy,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// FollowUpMessage builds the follow-up email for t.
func FollowUpMessage(t domain.Ticket) notify.Message {
	return notify.Message{
		To:      t.Email,
		Subject: "Follow-up: Ticket " + t.ID,
		Body:    "Checking on your issue: " + t.Summary + ". Resolved? Need help?",
	}
}

// Sweep runs one pass over all tickets.
func (s *FollowUpService) Sweep(ctx context.Context) (SweepReport, error) {
	ctx, span := otel.Tracer("services/FollowUpService").Start(ctx, "Sweep")
	defer span.End()
	defer globalSupportMetrics().recordSweep()()

	lg := sysutil.Logger(ctx)
	var rep SweepReport

	tickets, err := s.Store.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list tickets")
		return rep, fmt.Errorf("%w: read tickets: %w", ErrStore, err)
	}

	now := s.Now()
	for _, t := range tickets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Scanned++
		if !t.IsOpen() {
			continue
		}

		ts, err := domain.ParseTimestamp(t.Timestamp)
		if err != nil {
			rep.Failed++
			globalSupportMetrics().recordFollowUp("parse_error")
			lg.Warn().Err(err).Str("ticket_id", t.ID).Str("timestamp", t.Timestamp).Msg("follow-up: unparseable timestamp")
			continue
		}
		if now.Sub(ts) < s.After {
			continue
		}
		rep.Eligible++

		if s.Policy != PolicyNag && t.FollowUp == domain.FollowUpSent {
			rep.Skipped++
			globalSupportMetrics().recordFollowUp("already_sent")
			continue
		}

		if err := s.Mailer.Send(ctx, FollowUpMessage(t)); err != nil {
			rep.Failed++
			globalSupportMetrics().recordFollowUp("send_error")
			lg.Error().Err(err).Str("ticket_id", t.ID).Msg("follow-up: send failed")
			continue
		}
		if err := s.Store.SetFollowUp(ctx, t, domain.FollowUpSent); err != nil {
			rep.Failed++
			globalSupportMetrics().recordFollowUp("mark_error")
			lg.Error().Err(err).Str("ticket_id", t.ID).Msg("follow-up: marker write failed")
			continue
		}

		rep.Sent++
		globalSupportMetrics().recordFollowUp("sent")
		if s.Events != nil {
			s.Events.Publish(ctx, events.TicketEvent{
				Event:          events.TicketFollowedUp,
				TicketID:       t.ID,
				Email:          t.Email,
				Subject:        t.Subject,
				Classification: t.Classification,
				At:             now,
			})
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.scanned", rep.Scanned),
		attribute.Int("sweep.sent", rep.Sent),
		attribute.Int("sweep.failed", rep.Failed),
	)
	lg.Info().
		Int("scanned", rep.Scanned).
		Int("eligible", rep.Eligible).
		Int("sent", rep.Sent).
		Int("skipped", rep.Skipped).
		Int("failed", rep.Failed).
		Msg("follow-up sweep finished")
	return rep, nil
}
