package services

import (
	"context"
	"errors"
	"sync"

	"github.com/tbourn/go-support-agent/internal/classifier"
	"github.com/tbourn/go-support-agent/internal/domain"
	"github.com/tbourn/go-support-agent/internal/events"
	"github.com/tbourn/go-support-agent/internal/notify"
	"github.com/tbourn/go-support-agent/internal/storage"
)

// memStore is an in-memory positional TicketStore. Row numbers start at 2 to
// mirror the spreadsheet layout.
type memStore struct {
	mu     sync.Mutex
	rows   []domain.Ticket
	reads  int
	writes int

	listErr   error
	appendErr error
	updateErr error
	markErr   map[string]error
}

func (m *memStore) List(context.Context) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Ticket, len(m.rows))
	for i, t := range m.rows {
		t.Row = i + 2
		out[i] = t
	}
	return out, nil
}

func (m *memStore) Append(_ context.Context, t domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.appendErr != nil {
		return m.appendErr
	}
	t.Row = 0
	m.rows = append(m.rows, t)
	return nil
}

func (m *memStore) at(t domain.Ticket) (int, error) {
	i := t.Row - 2
	if i < 0 || i >= len(m.rows) {
		return 0, domain.ErrNotFound
	}
	if m.rows[i].ID != t.ID {
		return 0, domain.ErrConflict
	}
	return i, nil
}

func (m *memStore) Update(_ context.Context, t domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.updateErr != nil {
		return m.updateErr
	}
	i, err := m.at(t)
	if err != nil {
		return err
	}
	r := &m.rows[i]
	r.Timestamp, r.Email, r.Subject, r.Summary, r.Classification = t.Timestamp, t.Email, t.Subject, t.Summary, t.Classification
	return nil
}

func (m *memStore) SetFollowUp(_ context.Context, t domain.Ticket, marker string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if err := m.markErr[t.ID]; err != nil {
		return err
	}
	i, err := m.at(t)
	if err != nil {
		return err
	}
	m.rows[i].FollowUp = marker
	return nil
}

type fakeClassifier struct {
	res   classifier.Result
	err   error
	calls []classifier.Input
}

func (f *fakeClassifier) Classify(_ context.Context, in classifier.Input) (classifier.Result, error) {
	f.calls = append(f.calls, in)
	return f.res, f.err
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []notify.Message
	err    error
	failTo map[string]bool
}

func (f *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.failTo[msg.To] {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type memBucket struct {
	objs   map[string][]byte
	getErr error
	putErr error
}

func newMemBucket() *memBucket { return &memBucket{objs: map[string][]byte{}} }

func (b *memBucket) Get(_ context.Context, key string) ([]byte, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	v, ok := b.objs[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return v, nil
}

func (b *memBucket) Put(_ context.Context, key string, data []byte) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.objs[key] = append([]byte(nil), data...)
	return nil
}

type recordingPublisher struct {
	events []events.TicketEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.TicketEvent) {
	p.events = append(p.events, ev)
}
