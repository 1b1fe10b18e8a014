// Package application assembles the support agent from configuration: ticket
// and chat-history stores, classifier, mailer, event producer, services, the
// follow-up scheduler and the HTTP server.
package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-agent/internal/classifier"
	"github.com/tbourn/go-support-agent/internal/config"
	"github.com/tbourn/go-support-agent/internal/events"
	httpapi "github.com/tbourn/go-support-agent/internal/http"
	"github.com/tbourn/go-support-agent/internal/notify"
	"github.com/tbourn/go-support-agent/internal/observability"
	"github.com/tbourn/go-support-agent/internal/repo"
	"github.com/tbourn/go-support-agent/internal/scheduler"
	"github.com/tbourn/go-support-agent/internal/services"
	"github.com/tbourn/go-support-agent/internal/sheet"
	"github.com/tbourn/go-support-agent/internal/storage"
)

// FollowUpJob is the scheduler name of the follow-up sweep.
const FollowUpJob = "follow-up"

const shutdownTimeout = 15 * time.Second

// API is the long-running server process: HTTP intake plus the scheduled
// follow-up sweep.
type API struct {
	cfg     config.Config
	httpSrv *http.Server
	sched   *scheduler.Service
	res     *resources
	otelOff observability.ShutdownFunc
}

// NewAPI builds the server from cfg. Stores are initialised (workbook header,
// SQL schema) before the server accepts traffic.
func NewAPI(ctx context.Context, cfg config.Config, version string) (*API, error) {
	otelOff, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}

	res, err := openResources(ctx, cfg, true)
	if err != nil {
		_ = otelOff(ctx)
		return nil, err
	}
	fail := func(err error) (*API, error) {
		res.close()
		_ = otelOff(ctx)
		return nil, err
	}

	gen, err := classifier.NewGemini(ctx, cfg.Classifier.APIKey, cfg.Classifier.Model)
	if err != nil {
		return fail(fmt.Errorf("classifier: %w", err))
	}
	cls := classifier.New(gen, cfg.Classifier.Timeout)

	tickets := services.NewTicketService(res.tickets, res.producer)
	history := services.NewHistoryService(res.bucket)
	support := services.NewSupportService(cls, tickets, history, res.mailer)
	followUp := newFollowUp(cfg, res)

	sched, err := newScheduler(cfg, followUp)
	if err != nil {
		return fail(err)
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{Support: support, History: history}, cfg)

	return &API{
		cfg: cfg,
		httpSrv: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           engine,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		},
		sched:   sched,
		res:     res,
		otelOff: otelOff,
	}, nil
}

// Run serves HTTP and runs the scheduler until ctx is canceled or the
// listener fails, then shuts everything down.
func (a *API) Run(ctx context.Context) error {
	log.Info().
		Str("addr", a.httpSrv.Addr).
		Str("base_path", a.cfg.APIBasePath).
		Str("ticket_store", a.cfg.Store.Tickets).
		Str("chat_store", a.cfg.Store.ChatHistory).
		Msg("http server listening")
	for _, e := range a.sched.Entries() {
		log.Info().Str("job", e.Name).Str("schedule", e.Schedule).Time("next", e.Next).Msg("scheduled job")
	}

	a.sched.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := a.sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown")
	}
	a.res.close()
	if err := a.otelOff(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("server stopped")
	return runErr
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *API) Handler() http.Handler { return a.httpSrv.Handler }

// SweepOnce runs a single follow-up sweep outside the scheduler.
func SweepOnce(ctx context.Context, cfg config.Config) (services.SweepReport, error) {
	res, err := openResources(ctx, cfg, false)
	if err != nil {
		return services.SweepReport{}, err
	}
	defer res.close()
	return newFollowUp(cfg, res).Sweep(ctx)
}

// Migrate creates the ticket workbook (header row) or the SQL schema for the
// configured stores.
func Migrate(ctx context.Context, cfg config.Config) error {
	res, err := openResources(ctx, cfg, true)
	if err != nil {
		return err
	}
	res.close()
	return nil
}

func newFollowUp(cfg config.Config, res *resources) *services.FollowUpService {
	return services.NewFollowUpService(res.tickets, res.mailer, res.producer, cfg.FollowUp.After, cfg.FollowUp.Policy)
}

// newScheduler registers the follow-up sweep when it is enabled.
func newScheduler(cfg config.Config, f *services.FollowUpService) (*scheduler.Service, error) {
	loc, err := time.LoadLocation(cfg.FollowUp.Timezone)
	if err != nil {
		return nil, fmt.Errorf("follow-up timezone: %w", err)
	}
	s := scheduler.NewService(
		scheduler.WithLocation(loc),
		scheduler.WithLogger(log.Logger.With().Str("component", "scheduler").Logger()),
	)
	if !cfg.FollowUp.Enabled {
		return s, nil
	}
	err = s.Add(FollowUpJob, cfg.FollowUp.Schedule, func(ctx context.Context) error {
		_, err := f.Sweep(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// resources are the handles shared by the server and the CLI commands.
type resources struct {
	db       *gorm.DB
	tickets  services.TicketStore
	bucket   storage.Bucket
	redis    *storage.RedisBucket
	mailer   notify.Sender
	producer *events.Producer
}

// openResources opens the configured stores. withHistory also opens the chat
// history bucket, which the sweep does not need.
func openResources(ctx context.Context, cfg config.Config, withHistory bool) (*resources, error) {
	res := &resources{
		mailer: notify.NewSMTPSender(notify.Config{
			Enabled:  cfg.SMTP.Enabled,
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			AuthType: cfg.SMTP.AuthType,
			TLSMode:  cfg.SMTP.TLSMode,
			Timeout:  cfg.SMTP.Timeout,
		}),
		producer: events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic),
	}

	needDB := cfg.Store.Tickets == "sqlite" || (withHistory && cfg.Store.ChatHistory == "sql")
	if needDB {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.DBPath), 0o755); err != nil {
			res.close()
			return nil, err
		}
		db, err := repo.OpenSQLite(cfg.Store.DBPath)
		if err != nil {
			res.close()
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Store.DBPath, err)
		}
		res.db = db
		if cfg.OTEL.Enabled {
			if err := repo.EnableTracing(db); err != nil {
				res.close()
				return nil, fmt.Errorf("gorm tracing: %w", err)
			}
		}
		if err := repo.AutoMigrate(db); err != nil {
			res.close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	switch cfg.Store.Tickets {
	case "sqlite":
		res.tickets = repo.NewTicketTable(res.db)
	default:
		st := sheet.New(cfg.Store.Workbook, cfg.Store.Sheet)
		if err := st.Init(ctx); err != nil {
			res.close()
			return nil, fmt.Errorf("init workbook %s: %w", cfg.Store.Workbook, err)
		}
		res.tickets = st
	}

	if withHistory {
		switch cfg.Store.ChatHistory {
		case "redis":
			rb, err := storage.NewRedisBucket(ctx, storage.RedisOptions{
				Addr:     cfg.Store.RedisAddr,
				Password: cfg.Store.RedisPassword,
				DB:       cfg.Store.RedisDB,
				Prefix:   "support:",
			})
			if err != nil {
				res.close()
				return nil, err
			}
			res.redis = rb
			res.bucket = rb
		default:
			res.bucket = storage.NewSQLBucket(res.db)
		}
	}
	return res, nil
}

func (r *resources) close() {
	if r.producer != nil {
		if err := r.producer.Close(); err != nil {
			log.Warn().Err(err).Msg("close kafka producer")
		}
	}
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
	}
	if r.db != nil {
		if sqlDB, err := r.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
