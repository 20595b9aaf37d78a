// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SessionSecret string `env:"TTS_SESSION_SECRET,required"`
	ServerHost    string `env:"TTS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"TTS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"TTS_ENV" envDefault:"development"`
	LogLevel      string `env:"TTS_LOG_LEVEL" envDefault:"info"`

	// Backend REST API
	APIBaseURL string        `env:"TTS_API_BASE_URL" envDefault:"http://127.0.0.1:8000/api"`
	APITimeout time.Duration `env:"TTS_API_TIMEOUT" envDefault:"15s"`

	// Session store. An empty DBPath keeps sessions in memory.
	DBPath             string        `env:"TTS_DB_PATH" envDefault:"./data/sessions.db"`
	SessionLifetime    time.Duration `env:"TTS_SESSION_LIFETIME" envDefault:"24h"`
	SessionIdleTimeout time.Duration `env:"TTS_SESSION_IDLE_TIMEOUT" envDefault:"2h"`

	// Cache configuration
	RedisURL          string `env:"TTS_REDIS_URL"`                                // Optional Redis URL for shared content caching
	CachePrefix       string `env:"TTS_CACHE_PREFIX" envDefault:"tts:"`           // Redis key prefix
	CacheTTL          int    `env:"TTS_CACHE_TTL" envDefault:"300"`               // Public content TTL in seconds
	CacheMaxSize      int    `env:"TTS_CACHE_MAX_SIZE" envDefault:"1000"`         // Max memory cache entries
	CacheWarmSchedule string `env:"TTS_CACHE_WARM_SCHEDULE" envDefault:"*/5 * * * *"` // Cron spec, empty disables warming

	// Presentation
	Locale  string `env:"TTS_LOCALE" envDefault:"en-IN"`
	SiteURL string `env:"TTS_SITE_URL"` // Public origin for sitemap links, empty uses the request host
	// Block all crawlers, for staging deployments
	NoIndex bool `env:"TTS_NO_INDEX" envDefault:"false"`

	// Admin uploads
	UploadMaxBytes     int64 `env:"TTS_UPLOAD_MAX_BYTES" envDefault:"10485760"`
	UploadMaxDimension int   `env:"TTS_UPLOAD_MAX_DIMENSION" envDefault:"1920"`
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

// UsePersistentSessions returns true if sessions are stored in SQLite.
func (c Config) UsePersistentSessions() bool {
	return c.DBPath != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("TTS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("TTS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("TTS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if err := validateURL("TTS_API_BASE_URL", cfg.APIBaseURL); err != nil {
		return nil, err
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if cfg.SiteURL != "" {
		if err := validateURL("TTS_SITE_URL", cfg.SiteURL); err != nil {
			return nil, err
		}
		cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	}

	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("TTS_API_TIMEOUT must be positive, got %s", cfg.APITimeout)
	}

	return cfg, nil
}

// validateURL requires an absolute http(s) URL with a host.
func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
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
