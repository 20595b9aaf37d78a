// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// sweepThreshold is the number of tracked accounts above which stale entries
// are pruned on the next failure.
const sweepThreshold = 1000

// LoginProtection throttles login POSTs per client IP and locks an email
// address after repeated credential failures. The backend stays the
// authority on credentials; this only keeps brute force off it.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	mu       sync.Mutex
	accounts map[string]*accountState

	cfg LoginProtectionConfig
	now func() time.Time
}

// accountState tracks failures for one email address.
type accountState struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is login POSTs per second per IP.
	IPRateLimit float64
	IPBurst     int
	// MaxFailedAttempts within AttemptWindow locks the address.
	MaxFailedAttempts int
	AttemptWindow     time.Duration
	// LockoutDuration doubles with each repeated lockout up to MaxLockout.
	LockoutDuration time.Duration
	MaxLockout      time.Duration
}

// DefaultLoginProtectionConfig returns the production defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		AttemptWindow:     15 * time.Minute,
		LockoutDuration:   15 * time.Minute,
		MaxLockout:        24 * time.Hour,
	}
}

// NewLoginProtection creates a login protection instance. Zero fields fall
// back to DefaultLoginProtectionConfig.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.MaxLockout < cfg.LockoutDuration {
		cfg.MaxLockout = max(def.MaxLockout, cfg.LockoutDuration)
	}

	return &LoginProtection{
		ipLimiters: newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		accounts:   make(map[string]*accountState),
		cfg:        cfg,
		now:        time.Now,
	}
}

// Config returns the effective configuration.
func (lp *LoginProtection) Config() LoginProtectionConfig {
	return lp.cfg
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Lockout returns how long the address stays locked, zero when it may try.
func (lp *LoginProtection) Lockout(email string) time.Duration {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[accountKey(email)]
	if !ok {
		return 0
	}
	if remaining := st.lockedUntil.Sub(lp.now()); remaining > 0 {
		return remaining
	}
	return 0
}

// Fail records a credential failure. It returns the lock duration when this
// failure locked the address, and otherwise the attempts left before it
// would.
func (lp *LoginProtection) Fail(email string) (lockedFor time.Duration, attemptsLeft int) {
	key := accountKey(email)
	now := lp.now()

	lp.mu.Lock()
	defer lp.mu.Unlock()

	if len(lp.accounts) > sweepThreshold {
		lp.sweepLocked(now)
	}

	st, ok := lp.accounts[key]
	if !ok {
		st = &accountState{windowStart: now}
		lp.accounts[key] = st
	}
	if now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
		st.failures = 0
		st.windowStart = now
	}

	st.failures++
	if st.failures < lp.cfg.MaxFailedAttempts {
		return 0, lp.cfg.MaxFailedAttempts - st.failures
	}

	lockedFor = lp.cfg.LockoutDuration
	for i := 0; i < st.lockouts && lockedFor < lp.cfg.MaxLockout; i++ {
		lockedFor *= 2
	}
	lockedFor = min(lockedFor, lp.cfg.MaxLockout)

	st.lockedUntil = now.Add(lockedFor)
	st.lockouts++
	st.failures = 0
	st.windowStart = now

	slog.Warn("login address locked after failed attempts",
		"email", key,
		"lockouts", st.lockouts,
		"duration", lockedFor,
		"category", "auth",
	)
	return lockedFor, 0
}

// Succeed forgets the failures of an address.
func (lp *LoginProtection) Succeed(email string) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	delete(lp.accounts, accountKey(email))
}

// sweepLocked drops addresses that are neither locked nor inside a window.
func (lp *LoginProtection) sweepLocked(now time.Time) {
	for key, st := range lp.accounts {
		if now.After(st.lockedUntil) && now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
			delete(lp.accounts, key)
		}
	}
	lp.ipLimiters.clearIfExceeds(10 * sweepThreshold)
}

// Middleware rejects login POSTs over the per-IP rate with 429.
func (lp *LoginProtection) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		ip := GetClientIP(r)
		if !lp.ipLimiters.get(ip).Allow() {
			slog.WarnContext(r.Context(), "login rate limit exceeded", "ip", ip, "path", r.URL.Path, "category", "auth")
			w.Header().Set("Retry-After", "2")
			http.Error(w, "Too many login attempts. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
