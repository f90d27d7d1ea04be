// Package ratelimit implements a per-key sliding-window rate limiter,
// used for RCON auth attempts, packet rate limiting, and similar abuse
// protection.
package ratelimit

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type entry struct {
	count       uint32
	windowStart time.Time
}

// Limiter is a thread-safe rate limiter keyed by any comparable value
// (an IP address, a connection ID, a command name).
type Limiter[K comparable] struct {
	mu       sync.RWMutex
	requests map[K]entry
	blocked  map[K]time.Time

	maxRequests   uint32
	window        time.Duration
	blockDuration time.Duration

	cleanupCron *cron.Cron
}

// New returns a Limiter allowing maxRequests per window, blocking a key
// for blockDuration once it exceeds that.
func New[K comparable](maxRequests uint32, window, blockDuration time.Duration) *Limiter[K] {
	return &Limiter[K]{
		requests:      make(map[K]entry),
		blocked:       make(map[K]time.Time),
		maxRequests:   maxRequests,
		window:        window,
		blockDuration: blockDuration,
	}
}

// Check reports whether key is currently allowed to make a request:
// false if blocked, or if it has already reached max_requests within the
// current window.
func (l *Limiter[K]) Check(key K) bool {
	if l.IsBlocked(key) {
		return false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.requests[key]
	if !ok {
		return true
	}
	if time.Since(e.windowStart) < l.window {
		return e.count < l.maxRequests
	}
	return true
}

// Record registers a request from key, resetting its window if expired,
// and blocks key once it reaches max_requests.
func (l *Limiter[K]) Record(key K) {
	now := time.Now()

	l.mu.Lock()
	e, ok := l.requests[key]
	if !ok || now.Sub(e.windowStart) >= l.window {
		e = entry{count: 0, windowStart: now}
	}
	e.count++
	l.requests[key] = e
	exceeded := e.count >= l.maxRequests
	l.mu.Unlock()

	if exceeded {
		l.Block(key)
	}
}

// IsBlocked reports whether key is currently blocked.
func (l *Limiter[K]) IsBlocked(key K) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	until, ok := l.blocked[key]
	return ok && time.Now().Before(until)
}

// Block blocks key for the configured block duration.
func (l *Limiter[K]) Block(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocked[key] = time.Now().Add(l.blockDuration)
}

// Cleanup prunes request entries whose window has long since expired and
// blocks that have already lifted. Intended for periodic invocation; see
// StartPeriodicCleanup.
func (l *Limiter[K]) Cleanup() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.requests {
		if now.Sub(e.windowStart) >= l.window*2 {
			delete(l.requests, k)
		}
	}
	for k, until := range l.blocked {
		if !now.Before(until) {
			delete(l.blocked, k)
		}
	}
}

// Reset clears any tracked state for key.
func (l *Limiter[K]) Reset(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.requests, key)
	delete(l.blocked, key)
}

// Count returns key's current in-window request count.
func (l *Limiter[K]) Count(key K) uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.requests[key].count
}

// StartPeriodicCleanup runs Cleanup on the given cron schedule (standard
// 5-field expression) until Stop is called.
func (l *Limiter[K]) StartPeriodicCleanup(schedule string) error {
	l.cleanupCron = cron.New()
	if _, err := l.cleanupCron.AddFunc(schedule, l.Cleanup); err != nil {
		return err
	}
	l.cleanupCron.Start()
	return nil
}

// Stop halts periodic cleanup, if started.
func (l *Limiter[K]) Stop() {
	if l.cleanupCron != nil {
		l.cleanupCron.Stop()
	}
}
