// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Filter   FilterConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	History  HistoryConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SourceConfig selects where the table comes from. Set either CSVURL, or
// Credential and SheetID.
type SourceConfig struct {
	// CSVURL is a published-to-web CSV export URL
	CSVURL string `env:"SHEET_CSV_URL"`

	// Credential is a service account key: inline JSON, file path, or base64
	Credential string `env:"SERVICE_ACCOUNT_CREDENTIAL" envAlt:"GOOGLE_SERVICE_ACCOUNT_JSON"`

	// SheetID is the spreadsheet ID for the API path
	SheetID string `env:"SHEET_ID"`

	// TabID optionally selects a tab by gid or title (default: first tab)
	TabID string `env:"SHEET_TAB_ID"`

	// Timeout bounds a single fetch (default: 30s)
	Timeout time.Duration `env:"SOURCE_TIMEOUT" default:"30s"`

	// MaxBytes caps a CSV response body (default: 50MB)
	MaxBytes int64 `env:"SOURCE_MAX_BYTES" default:"52428800"`

	// AllowUserURL lets the UI load a different published CSV URL (default: false)
	AllowUserURL bool `env:"SOURCE_ALLOW_USER_URL" default:"false"`
}

// FilterConfig holds table normalization and display settings.
type FilterConfig struct {
	// NumericThreshold is the parsed fraction a size column must exceed to be numeric (default: 0.5)
	NumericThreshold float64 `env:"NUMERIC_THRESHOLD" default:"0.5"`

	// MaxDisplayRows caps rows rendered in the page; downloads are complete (default: 1000)
	MaxDisplayRows int `env:"UI_MAX_ROWS" default:"1000"`

	// CacheTTL expires loaded tables; 0 keeps them until reload (default: 0s)
	CacheTTL time.Duration `env:"CACHE_TTL" default:"0s"`

	// CacheMaxEntries bounds cached sources (default: 8)
	CacheMaxEntries int `env:"CACHE_MAX_ENTRIES" default:"8"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// ReloadLimit is requests per minute for the reload endpoint (default: 10)
	ReloadLimit int `env:"RATE_LIMIT_RELOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// HistoryConfig holds load history settings.
type HistoryConfig struct {
	// DatabaseURL stores load history in PostgreSQL; empty keeps it in memory
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Limit is the number of events kept in memory and listed (default: 100)
	Limit int `env:"HISTORY_LIMIT" default:"100"`
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
