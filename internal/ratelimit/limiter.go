// Package ratelimit throttles reservation submissions so one client cannot
// flood the booking queue with pending requests.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	SubmitCooldown     time.Duration // Minimum time between submissions per requester (default: 10s)
	SubmitMaxPerHour   int           // Max submissions per requester per hour (default: 20)
	SubmitMaxIPPerHour int           // Max submissions per IP per hour (default: 60)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		SubmitCooldown:     10 * time.Second,
		SubmitMaxPerHour:   20,
		SubmitMaxIPPerHour: 60,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// entry tracks submission counts and timestamps within the current window.
type entry struct {
	count   int
	firstAt time.Time
	lastAt  time.Time
}

// Limiter tracks reservation submissions per requester and per IP.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.Mutex
	// Keyed by hash of requester name or IP
	byRequester map[string]*entry
	byIP        map[string]*entry
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Limiter{
		config:      cfg,
		clock:       clock,
		byRequester: make(map[string]*entry),
		byIP:        make(map[string]*entry),
	}
}

// CheckSubmit checks if a reservation submission is allowed. It does not
// record the attempt; call RecordSubmit after the booking is accepted.
func (l *Limiter) CheckSubmit(requester, ip string) LimitResult {
	now := l.clock.Now()
	requesterKey := hashKey("submit:requester:", requester)
	ipKey := hashKey("submit:ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.expireLocked(now)

	if e := l.byRequester[requesterKey]; e != nil {
		elapsed := now.Sub(e.lastAt)
		if elapsed < l.config.SubmitCooldown {
			return LimitResult{
				Allowed:    false,
				RetryAfter: l.config.SubmitCooldown - elapsed,
				Reason:     "cooldown",
			}
		}
		if e.count >= l.config.SubmitMaxPerHour {
			return LimitResult{
				Allowed:    false,
				RetryAfter: time.Hour - now.Sub(e.firstAt),
				Reason:     "hourly_limit",
			}
		}
	}

	if e := l.byIP[ipKey]; e != nil && e.count >= l.config.SubmitMaxIPPerHour {
		return LimitResult{
			Allowed:    false,
			RetryAfter: time.Hour - now.Sub(e.firstAt),
			Reason:     "ip_hourly_limit",
		}
	}

	return LimitResult{Allowed: true}
}

// RecordSubmit records an accepted submission. Call this AFTER the booking
// has been written.
func (l *Limiter) RecordSubmit(requester, ip string) {
	now := l.clock.Now()
	requesterKey := hashKey("submit:requester:", requester)
	ipKey := hashKey("submit:ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	record(l.byRequester, requesterKey, now)
	record(l.byIP, ipKey, now)
}

func record(m map[string]*entry, key string, now time.Time) {
	e := m[key]
	if e == nil || now.Sub(e.firstAt) >= time.Hour {
		m[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

// expireLocked drops entries whose hour window has passed. Caller holds mu.
func (l *Limiter) expireLocked(now time.Time) {
	for key, e := range l.byRequester {
		if now.Sub(e.firstAt) >= time.Hour && now.Sub(e.lastAt) >= l.config.SubmitCooldown {
			delete(l.byRequester, key)
		}
	}
	for key, e := range l.byIP {
		if now.Sub(e.firstAt) >= time.Hour {
			delete(l.byIP, key)
		}
	}
}

// hashKey avoids holding raw requester names and IPs in memory.
func hashKey(prefix, value string) string {
	sum := sha256.Sum256([]byte(prefix + value))
	return hex.EncodeToString(sum[:])
}
