package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-support-agent/internal/domain"
	"github.com/tbourn/go-support-agent/internal/events"
)

var sweepNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func aged(id, email string, age time.Duration) domain.Ticket {
	return domain.Ticket{
		ID:             id,
		Timestamp:      domain.FormatTimestamp(sweepNow.Add(-age)),
		Email:          email,
		Subject:        "s",
		Summary:        "cannot log in",
		Classification: "Technical",
		Status:         domain.StatusOpen,
	}
}

func newSweeper(store *memStore, mail *fakeMailer, pub events.Publisher, policy string) *FollowUpService {
	s := NewFollowUpService(store, mail, pub, 0, policy)
	s.Now = func() time.Time { return sweepNow }
	return s
}

func TestNewFollowUpService_Defaults(t *testing.T) {
	s := NewFollowUpService(&memStore{}, &fakeMailer{}, nil, -time.Hour, "")
	if s.After != DefaultFollowUpAfter || s.Policy != PolicyOnce {
		t.Fatalf("unexpected defaults: after=%s policy=%q", s.After, s.Policy)
	}
}

func TestFollowUpMessage(t *testing.T) {
	m := FollowUpMessage(domain.Ticket{ID: "t1", Email: "a@x.com", Summary: "cannot log in"})
	if m.To != "a@x.com" || m.Subject != "Follow-up: Ticket t1" || m.Body != "Checking on your issue: cannot log in. Resolved? Need help?" {
		t.Fatalf("unexpected message: %+v", m)
	}
}

func TestSweep_AgeThreshold(t *testing.T) {
	store := &memStore{rows: []domain.Ticket{
		aged("young", "y@x.com", 47*time.Hour+59*time.Minute),
		aged("edge", "e@x.com", 48*time.Hour),
		aged("old", "o@x.com", 72*time.Hour),
	}}
	mail := &fakeMailer{}
	pub := &recordingPublisher{}

	rep, err := newSweeper(store, mail, pub, PolicyOnce).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	want := SweepReport{Scanned: 3, Eligible: 2, Sent: 2}
	if rep != want {
		t.Fatalf("report = %+v; want %+v", rep, want)
	}
	if len(mail.sent) != 2 || mail.sent[0].To != "e@x.com" || mail.sent[1].To != "o@x.com" {
		t.Fatalf("unexpected recipients: %+v", mail.sent)
	}
	if store.rows[0].FollowUp != "" || store.rows[1].FollowUp != domain.FollowUpSent || store.rows[2].FollowUp != domain.FollowUpSent {
		t.Fatalf("unexpected markers: %+v", store.rows)
	}
	if len(pub.events) != 2 || pub.events[0].Event != events.TicketFollowedUp || pub.events[0].TicketID != "edge" {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestSweep_IgnoresClosedTickets(t *testing.T) {
	closed := aged("c1", "c@x.com", 100*time.Hour)
	closed.Status = "Closed"
	store := &memStore{rows: []domain.Ticket{closed}}
	mail := &fakeMailer{}

	rep, err := newSweeper(store, mail, nil, PolicyOnce).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if rep != (SweepReport{Scanned: 1}) || len(mail.sent) != 0 {
		t.Fatalf("closed ticket must be ignored: %+v", rep)
	}
}

func TestSweep_PolicyOnceVersusNag(t *testing.T) {
	marked := aged("t1", "a@x.com", 72*time.Hour)
	marked.FollowUp = domain.FollowUpSent

	t.Run("once", func(t *testing.T) {
		mail := &fakeMailer{}
		rep, err := newSweeper(&memStore{rows: []domain.Ticket{marked}}, mail, nil, PolicyOnce).Sweep(context.Background())
		if err != nil {
			t.Fatalf("Sweep: %v", err)
		}
		if rep != (SweepReport{Scanned: 1, Eligible: 1, Skipped: 1}) || len(mail.sent) != 0 {
			t.Fatalf("once must not resend: %+v", rep)
		}
	})

	t.Run("nag", func(t *testing.T) {
		mail := &fakeMailer{}
		store := &memStore{rows: []domain.Ticket{marked}}
		s := newSweeper(store, mail, nil, PolicyNag)
		for i := 0; i < 2; i++ {
			if _, err := s.Sweep(context.Background()); err != nil {
				t.Fatalf("Sweep %d: %v", i, err)
			}
		}
		if len(mail.sent) != 2 {
			t.Fatalf("nag should resend every sweep, sent %d", len(mail.sent))
		}
	})

	t.Run("once across sweeps", func(t *testing.T) {
		mail := &fakeMailer{}
		s := newSweeper(&memStore{rows: []domain.Ticket{aged("t2", "b@x.com", 72*time.Hour)}}, mail, nil, PolicyOnce)
		_, _ = s.Sweep(context.Background())
		rep, _ := s.Sweep(context.Background())
		if len(mail.sent) != 1 || rep.Skipped != 1 {
			t.Fatalf("second sweep should skip the marked ticket: sent=%d rep=%+v", len(mail.sent), rep)
		}
	})
}

func TestSweep_PerTicketFailuresAreIsolated(t *testing.T) {
	bad := aged("bad-ts", "p@x.com", 0)
	bad.Timestamp = "yesterday-ish"
	store := &memStore{
		rows: []domain.Ticket{
			bad,
			aged("nomail", "down@x.com", 72*time.Hour),
			aged("nomark", "m@x.com", 72*time.Hour),
			aged("ok", "ok@x.com", 72*time.Hour),
		},
		markErr: map[string]error{"nomark": errors.New("sheet locked")},
	}
	mail := &fakeMailer{failTo: map[string]bool{"down@x.com": true}}

	rep, err := newSweeper(store, mail, nil, PolicyOnce).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	want := SweepReport{Scanned: 4, Eligible: 3, Sent: 1, Failed: 3}
	if rep != want {
		t.Fatalf("report = %+v; want %+v", rep, want)
	}
	// The mail went out but the marker did not stick.
	if len(mail.sent) != 2 || store.rows[2].FollowUp != "" || store.rows[3].FollowUp != domain.FollowUpSent {
		t.Fatalf("unexpected state: sent=%+v rows=%+v", mail.sent, store.rows)
	}
}

func TestSweep_NaiveTimestampIsUTC(t *testing.T) {
	tk := aged("naive", "n@x.com", 0)
	tk.Timestamp = sweepNow.Add(-49 * time.Hour).Format("2006-01-02T15:04:05")
	mail := &fakeMailer{}
	rep, err := newSweeper(&memStore{rows: []domain.Ticket{tk}}, mail, nil, PolicyOnce).Sweep(context.Background())
	if err != nil || rep.Sent != 1 {
		t.Fatalf("naive timestamp should be eligible: %+v %v", rep, err)
	}
}

func TestSweep_ReadFailureAborts(t *testing.T) {
	mail := &fakeMailer{}
	_, err := newSweeper(&memStore{listErr: errors.New("offline")}, mail, nil, PolicyOnce).Sweep(context.Background())
	if !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if len(mail.sent) != 0 {
		t.Fatalf("no mail expected")
	}
}

func TestSweep_CanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mail := &fakeMailer{}
	_, err := newSweeper(&memStore{rows: []domain.Ticket{aged("t1", "a@x.com", 72*time.Hour)}}, mail, nil, PolicyOnce).Sweep(ctx)
	if !errors.Is(err, context.Canceled) || len(mail.sent) != 0 {
		t.Fatalf("expected cancellation before any send, got %v sent=%d", err, len(mail.sent))
	}
}
