// Package ratelimit is an in-memory fixed-window limiter keyed by string.
//
// Two limiters run in the server:
//   - login attempts, keyed by client IP, reset after a successful login;
//   - chat messages, keyed by user ID, with a cooldown once the limit is hit.
//
// State lives in process memory behind a mutex. A background goroutine drops
// idle buckets so the map does not grow without bound.
//
// The package imports nothing from the project, so both handlers and
// middleware can use it without an import cycle.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// bucket counts hits of one key inside the current window.
type bucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero = no cooldown
}

// Limiter allows maxHits per window for each key.
//
// With cooldown > 0, going over the limit blocks the key for the cooldown
// period even if the window ends sooner. With cooldown == 0 the key is
// blocked until its window ends.
//
//	limiter := ratelimit.New(5, 2*time.Minute, 0)
//	if !limiter.Allow(ip) { return 429 }
//	limiter.Reset(ip) // after a successful login
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	maxHits  int
	window   time.Duration
	cooldown time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter and starts its cleanup goroutine. Call Stop on
// shutdown.
func New(maxHits int, window, cooldown time.Duration) *Limiter {
	l := &Limiter{
		buckets:  make(map[string]*bucket),
		maxHits:  maxHits,
		window:   window,
		cooldown: cooldown,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		l.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		// cooldown over, start a fresh window
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	if now.Sub(b.windowStart) > l.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count <= l.maxHits {
		return true
	}

	if l.cooldown > 0 {
		b.cooldownUntil = now.Add(l.cooldown)
	}
	return false
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// RetryAfterSeconds is the wait before key is allowed again, rounded up.
// It is the value of the HTTP Retry-After header.
func (l *Limiter) RetryAfterSeconds(key string) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		return 0
	}

	var remaining time.Duration
	if !b.cooldownUntil.IsZero() {
		remaining = b.cooldownUntil.Sub(now)
	} else {
		remaining = l.window - now.Sub(b.windowStart)
	}
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Stop ends the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

// cleanup drops buckets whose window and cooldown are both over.
func (l *Limiter) cleanup() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if now.Sub(b.windowStart) > l.window && now.After(b.cooldownUntil) {
			delete(l.buckets, key)
		}
	}
}

// ExtractIP returns the client IP of r.
//
// Order: first X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
// Behind a reverse proxy RemoteAddr is always the proxy.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage renders a wait in seconds: 120 → "2 minute(s)".
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
