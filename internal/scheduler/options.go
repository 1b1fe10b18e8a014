package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type options struct {
	Logger   zerolog.Logger
	Cron     *cron.Cron
	Location *time.Location
	Timeout  time.Duration
}

// Option applies configuration to the scheduler.
type Option func(*options)

func defaultOptions() options {
	return options{Logger: zerolog.Nop(), Location: time.UTC}
}

// WithLogger sets the logger used for job runs and cron internals.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.Logger = l
	}
}

// WithCron supplies a preconfigured cron engine.
func WithCron(c *cron.Cron) Option {
	return func(o *options) {
		o.Cron = c
	}
}

// WithLocation sets the timezone schedules are evaluated in. Ignored when
// WithCron is used.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.Location = loc
		}
	}
}

// WithJobTimeout bounds each job run. Zero means no bound.
func WithJobTimeout(d time.Duration) Option {
	return func(o *options) {
		o.Timeout = d
	}
}
