// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"  // modernc.org/sqlite, pure Go
	DriverSQLite3  = "sqlite3" // github.com/mattn/go-sqlite3, cgo
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver      string `env:"MTW_DB_DRIVER" envDefault:"sqlite"`
	DBDSN         string `env:"MTW_DB_DSN" envDefault:"./data/muthawwif.db"`
	SessionSecret string `env:"MTW_SESSION_SECRET,required"`
	JWTSecret     string `env:"MTW_JWT_SECRET"`
	ServerHost    string `env:"MTW_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"MTW_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"MTW_ENV" envDefault:"development"`
	LogLevel      string `env:"MTW_LOG_LEVEL" envDefault:"info"`

	// TrustedOrigins are extra host[:port] values allowed to submit forms,
	// e.g. the public host when running behind a proxy.
	TrustedOrigins []string `env:"MTW_TRUSTED_ORIGINS" envSeparator:","`

	// Cache configuration
	RedisURL          string `env:"MTW_REDIS_URL"`                            // Optional Redis URL for shared caching
	CachePrefix       string `env:"MTW_CACHE_PREFIX" envDefault:"mtw:"`       // Redis key prefix
	CacheTTL          int    `env:"MTW_CACHE_TTL" envDefault:"3600"`          // Default cache TTL in seconds
	CacheMaxSize      int    `env:"MTW_CACHE_MAX_SIZE" envDefault:"10000"`    // Max memory cache entries
	AnalyticsCacheTTL int    `env:"MTW_ANALYTICS_CACHE_TTL" envDefault:"300"` // Analytics report TTL in seconds

	// Housekeeping
	PendingPurchaseTTL int `env:"MTW_PENDING_PURCHASE_TTL" envDefault:"48"`  // Hours before a pending purchase expires
	EventRetentionDays int `env:"MTW_EVENT_RETENTION_DAYS" envDefault:"90"` // Days of audit log to keep

	// Seeding configuration
	DoSeed        bool   `env:"MTW_DO_SEED" envDefault:"false"`
	OwnerEmail    string `env:"MTW_OWNER_EMAIL" envDefault:"owner@example.com"`
	OwnerPassword string `env:"MTW_OWNER_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// IsSQLite returns true for either SQLite driver.
func (c Config) IsSQLite() bool {
	return c.DBDriver == DriverSQLite || c.DBDriver == DriverSQLite3
}

// TokenSecret returns the key used to sign API access tokens.
func (c Config) TokenSecret() []byte {
	if c.JWTSecret != "" {
		return []byte(c.JWTSecret)
	}
	return []byte(c.SessionSecret)
}

// CacheDefaultTTL returns CacheTTL as a duration.
func (c Config) CacheDefaultTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// AnalyticsTTL returns AnalyticsCacheTTL as a duration.
func (c Config) AnalyticsTTL() time.Duration {
	return time.Duration(c.AnalyticsCacheTTL) * time.Second
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.DBDriver {
	case DriverSQLite, DriverSQLite3, DriverMySQL, DriverPostgres:
	default:
		return nil, fmt.Errorf("MTW_DB_DRIVER %q is not supported; use sqlite, sqlite3, mysql or postgres", cfg.DBDriver)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("MTW_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("MTW_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("MTW_JWT_SECRET must be at least %d bytes long, got %d bytes",
			MinSessionSecretLength, len(cfg.JWTSecret))
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("MTW_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
