// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the HTTP
// server, logging, the ticket and chat-history stores, the classifier, outbound
// mail, the follow-up sweep, event publishing, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-support-agent")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StoreConfig selects and configures the ticket and chat-history backends.
type StoreConfig struct {
	Tickets     string // xlsx|sqlite
	Workbook    string // path of the XLSX ticket workbook
	Sheet       string // sheet holding the ticket rows
	DBPath      string // SQLite path (SQL ticket store and SQL chat bucket)
	ChatHistory string // sql|redis

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ClassifierConfig configures the generative model used to classify messages.
type ClassifierConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// SMTPConfig configures the outbound mail relay.
type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string // auth identity; may differ from From
	Password string
	From     string
	AuthType string // plain|login
	TLSMode  string // smtps|starttls|none
	Timeout  time.Duration
}

// FollowUpConfig configures the scheduled follow-up sweep.
type FollowUpConfig struct {
	Enabled  bool
	Schedule string        // standard 5-field cron expression
	Timezone string        // IANA zone the schedule is evaluated in
	After    time.Duration // minimum ticket age before a follow-up
	Policy   string        // once|nag
}

// KafkaConfig configures best-effort ticket event publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s; classifier + SMTP round trips
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	Store      StoreConfig
	Classifier ClassifierConfig
	SMTP       SMTPConfig
	FollowUp   FollowUpConfig
	Kafka      KafkaConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotenv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotenv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:5000")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		Store: StoreConfig{
			Tickets:       strings.ToLower(getenv("TICKET_STORE", "xlsx")),
			Workbook:      getenv("TICKET_WORKBOOK", "data/tickets.xlsx"),
			Sheet:         getenv("TICKET_SHEET", "Tickets"),
			DBPath:        getenv("DB_PATH", "data/support.db"),
			ChatHistory:   strings.ToLower(getenv("CHAT_STORE", "sql")),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getint("REDIS_DB", 0),
		},

		Classifier: ClassifierConfig{
			APIKey:  getenv("GEMINI_API_KEY", ""),
			Model:   getenv("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout: getdur("GEMINI_TIMEOUT", 30*time.Second),
		},

		SMTP: SMTPConfig{
			Enabled:  getbool("SMTP_ENABLED", true),
			Host:     getenv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getint("SMTP_PORT", 465),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", ""),
			AuthType: strings.ToLower(getenv("SMTP_AUTH_TYPE", "plain")),
			TLSMode:  strings.ToLower(getenv("SMTP_TLS_MODE", "smtps")),
			Timeout:  getdur("SMTP_TIMEOUT", 20*time.Second),
		},

		FollowUp: FollowUpConfig{
			Enabled:  getbool("FOLLOW_UP_ENABLED", true),
			Schedule: getenv("FOLLOW_UP_SCHEDULE", "0 9 * * *"),
			Timezone: getenv("FOLLOW_UP_TIMEZONE", "UTC"),
			After:    getdur("FOLLOW_UP_AFTER", 48*time.Hour),
			Policy:   strings.ToLower(getenv("FOLLOW_UP_POLICY", "once")),
		},

		Kafka: KafkaConfig{
			Brokers: splitCSV(getenv("KAFKA_BROKERS", "")),
			Topic:   getenv("KAFKA_TOPIC", "support.tickets"),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-support-agent"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Store.Tickets == "sql" {
		cfg.Store.Tickets = "sqlite"
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	switch cfg.Store.Tickets {
	case "xlsx":
		if strings.TrimSpace(cfg.Store.Workbook) == "" || strings.TrimSpace(cfg.Store.Sheet) == "" {
			return cfg, errors.New("TICKET_WORKBOOK and TICKET_SHEET must not be empty")
		}
	case "sqlite":
	default:
		return cfg, errors.New("TICKET_STORE must be one of: xlsx, sqlite")
	}
	switch cfg.Store.ChatHistory {
	case "sql":
	case "redis":
		if strings.TrimSpace(cfg.Store.RedisAddr) == "" {
			return cfg, errors.New("REDIS_ADDR must not be empty when CHAT_STORE=redis")
		}
	default:
		return cfg, errors.New("CHAT_STORE must be one of: sql, redis")
	}
	if strings.TrimSpace(cfg.Store.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Classifier.Model) == "" {
		return cfg, errors.New("GEMINI_MODEL must not be empty")
	}
	switch cfg.SMTP.TLSMode {
	case "smtps", "starttls", "none":
	default:
		return cfg, errors.New("SMTP_TLS_MODE must be one of: smtps, starttls, none")
	}
	switch cfg.SMTP.AuthType {
	case "plain", "login":
	default:
		return cfg, errors.New("SMTP_AUTH_TYPE must be one of: plain, login")
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		return cfg, errors.New("SMTP_PORT must be a valid TCP port")
	}
	if cfg.FollowUp.After <= 0 {
		return cfg, errors.New("FOLLOW_UP_AFTER must be > 0")
	}
	switch cfg.FollowUp.Policy {
	case "once", "nag":
	default:
		return cfg, errors.New("FOLLOW_UP_POLICY must be one of: once, nag")
	}
	if _, err := time.LoadLocation(cfg.FollowUp.Timezone); err != nil {
		return cfg, errors.New("FOLLOW_UP_TIMEZONE must be a valid IANA time zone")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
