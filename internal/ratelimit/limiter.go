// Package ratelimit provides in-memory rate limiting for login and OTP
// attempts.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds the limiter's thresholds.
type Config struct {
	// Cooldown is the minimum time between sends for one identifier.
	Cooldown time.Duration
	// MaxPerHour caps attempts per identifier per rolling hour.
	MaxPerHour int
	// MaxFailures locks an identifier out after this many failed verifies.
	MaxFailures int
	// Lockout is how long a locked identifier stays locked.
	Lockout time.Duration

	Clock Clock
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Cooldown:    60 * time.Second,
		MaxPerHour:  10,
		MaxFailures: 5,
		Lockout:     5 * time.Minute,
	}
}

// Result reports whether an attempt is allowed and, when not, how long to
// wait.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

type entry struct {
	count    int
	firstAt  time.Time
	lastAt   time.Time
	failures int
	lockedAt time.Time
}

// Limiter tracks attempt counts per hashed identifier.
type Limiter struct {
	config *Config
	clock  Clock

	mu      sync.Mutex
	entries map[string]*entry
}

func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Limiter{
		config:  cfg,
		clock:   clock,
		entries: make(map[string]*entry),
	}
}

// Check reports whether an attempt for identifier is currently allowed. It
// does not record the attempt; call Record after the attempt is made.
func (l *Limiter) Check(identifier string) Result {
	key := hashKey(identifier)
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(now)

	e, ok := l.entries[key]
	if !ok {
		return Result{Allowed: true}
	}

	if !e.lockedAt.IsZero() {
		unlockAt := e.lockedAt.Add(l.config.Lockout)
		if now.Before(unlockAt) {
			return Result{RetryAfter: unlockAt.Sub(now), Reason: "locked out"}
		}
		e.lockedAt = time.Time{}
		e.failures = 0
	}

	if l.config.Cooldown > 0 && !e.lastAt.IsZero() {
		readyAt := e.lastAt.Add(l.config.Cooldown)
		if now.Before(readyAt) {
			return Result{RetryAfter: readyAt.Sub(now), Reason: "cooldown"}
		}
	}

	if l.config.MaxPerHour > 0 && e.count >= l.config.MaxPerHour {
		resetAt := e.firstAt.Add(time.Hour)
		if now.Before(resetAt) {
			return Result{RetryAfter: resetAt.Sub(now), Reason: "hourly cap"}
		}
		e.count = 0
		e.firstAt = time.Time{}
	}

	return Result{Allowed: true}
}

// Record counts an attempt for identifier.
func (l *Limiter) Record(identifier string) {
	key := hashKey(identifier)
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.Sub(e.firstAt) >= time.Hour {
		e = &entry{firstAt: now}
		l.entries[key] = e
	}
	e.count++
	e.lastAt = now
}

// RecordFailure counts a failed verification. Reaching MaxFailures locks the
// identifier for the configured lockout.
func (l *Limiter) RecordFailure(identifier string) {
	key := hashKey(identifier)
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{firstAt: now}
		l.entries[key] = e
	}
	e.failures++
	if l.config.MaxFailures > 0 && e.failures >= l.config.MaxFailures {
		e.lockedAt = now
	}
}

// Reset clears all state for identifier, typically after a successful login.
func (l *Limiter) Reset(identifier string) {
	key := hashKey(identifier)
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

func (l *Limiter) pruneLocked(now time.Time) {
	for key, e := range l.entries {
		stale := now.Sub(e.lastAt) >= 2*time.Hour
		locked := !e.lockedAt.IsZero() && now.Before(e.lockedAt.Add(l.config.Lockout))
		if stale && !locked {
			delete(l.entries, key)
		}
	}
}

// hashKey avoids holding raw identifiers (emails, IPs) in memory.
func hashKey(identifier string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(identifier))))
	return hex.EncodeToString(sum[:])
}
