// Package config loads service configuration from environment variables with
// defaults, and validates every setting on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Index     IndexConfig
	Reconcile ReconcileConfig
	Batch     BatchConfig
	Rate      RateLimitConfig
	Options   OptionsConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// Index store backends.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// IndexConfig selects where the reconciled reference index is persisted.
type IndexConfig struct {
	// Store is the backend: file, sqlite or postgres (default: file)
	Store string `env:"INDEX_STORE" default:"file"`

	// Path is the index file (file backend) or database file (sqlite backend).
	// A .gz suffix gzips the file backend.
	Path string `env:"INDEX_PATH" default:"data/index.json.gz"`

	// DatabaseURL is the PostgreSQL connection string (postgres backend only)
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of pooled connections (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// Dataset is a raw dataset reconciled and saved at startup when the
	// store holds no index yet. Optional.
	Dataset string `env:"INDEX_DATASET"`
}

// ReconcileConfig controls offline reconciliation of a raw dataset.
type ReconcileConfig struct {
	// DropEmpty drops rows missing a deviation value (default: true)
	DropEmpty bool `env:"RECONCILE_DROP_EMPTY" default:"true"`

	// TieBreak picks between equal-score duplicates: keep-first, keep-last or strict
	TieBreak string `env:"RECONCILE_TIE_BREAK" default:"keep-first"`
}

// BatchConfig holds batch evaluation settings.
type BatchConfig struct {
	// MaxConcurrent is the number of batch jobs run at once (default: 4)
	MaxConcurrent int `env:"BATCH_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a job waits for a slot (default: 10s)
	MaxWaitTime time.Duration `env:"BATCH_MAX_WAIT_TIME" default:"10s"`

	// Workers is the per-job evaluation concurrency; 0 uses GOMAXPROCS
	Workers int `env:"BATCH_WORKERS" default:"0"`

	// MaxBodySize is the largest accepted batch body in bytes (default: 8MB)
	MaxBodySize int64 `env:"BATCH_MAX_BODY_SIZE" default:"8388608"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// Burst is the short-term allowance above the rate (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// OptionsConfig controls option discovery listings.
type OptionsConfig struct {
	// ZoneOrder is lexical or upper-first (default: lexical)
	ZoneOrder string `env:"OPTIONS_ZONE_ORDER" default:"lexical"`
}

// SecurityConfig holds proxy trust and API key settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are honoured
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey guards the batch endpoint with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP sends a Content-Security-Policy header (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
