// Package scheduler runs named background jobs on cron schedules. Each job
// runs with SkipIfStillRunning semantics, recovers from panics, gets a
// request-scoped logger in its context and is measured in Prometheus.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Entry describes a registered job.
type Entry struct {
	Name     string
	Schedule string
	Next     time.Time
	Prev     time.Time
}

// Service owns a cron engine and the jobs registered on it.
type Service struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	timeout time.Duration

	base   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]registered
	started bool
}

type registered struct {
	id   cron.EntryID
	spec string
}

// NewService builds a scheduler. Without WithCron a cron engine with the
// standard five-field parser is created in the configured location.
func NewService(opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := o.Cron
	if c == nil {
		c = cron.New(
			cron.WithLocation(o.Location),
			cron.WithLogger(cronLogger{l: o.Logger}),
		)
	}
	base, cancel := context.WithCancel(context.Background())
	return &Service{
		cron:    c,
		logger:  o.Logger,
		timeout: o.Timeout,
		base:    base,
		cancel:  cancel,
		entries: map[string]registered{},
	}
}

// Add registers job under name on spec. Names are unique.
func (s *Service) Add(name, spec string, job Job) error {
	if name == "" || job == nil {
		return errors.New("scheduler: job name and func are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("scheduler: job %q already registered", name)
	}
	id, err := s.cron.AddJob(spec, s.wrap(name, job))
	if err != nil {
		return fmt.Errorf("scheduler: job %q: invalid schedule %q: %w", name, spec, err)
	}
	s.entries[name] = registered{id: id, spec: spec}
	s.logger.Info().Str("job", name).Str("schedule", spec).Msg("scheduler: job registered")
	return nil
}

// Entries lists registered jobs sorted by name.
func (s *Service) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for name, r := range s.entries {
		e := s.cron.Entry(r.id)
		out = append(out, Entry{Name: name, Schedule: r.spec, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start begins running jobs in the background. Calling Start twice is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.entries)).Msg("scheduler: started")
}

// Stop halts scheduling, cancels running jobs' contexts and waits for them
// to return or for ctx to expire.
func (s *Service) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.logger.Info().Msg("scheduler: stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) wrap(name string, job Job) cron.Job {
	run := cron.FuncJob(func() {
		ctx := s.base
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		lg := s.logger.With().Str("job", name).Logger()
		ctx = lg.WithContext(ctx)

		done := globalJobMetrics().recordRun(name)
		start := time.Now()
		err := job(ctx)
		done(err)
		if err != nil {
			lg.Error().Err(err).Dur("took", time.Since(start)).Msg("scheduler: job failed")
			return
		}
		lg.Debug().Dur("took", time.Since(start)).Msg("scheduler: job finished")
	})
	cl := cronLogger{l: s.logger}
	return cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(run)
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
