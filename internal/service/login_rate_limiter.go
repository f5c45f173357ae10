package service

import (
	"sync"
	"time"
)

// LoginRateLimiter limita los intentos de login por clave (email normalizado).
type LoginRateLimiter interface {
	Allow(key string) bool
}

// memoryLoginRateLimiter es una ventana deslizante por email. Las claves las elige el
// cliente, así que las que quedan sin intentos vigentes se barren cada ventana.
type memoryLoginRateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryLoginRateLimiter crea un rate limiter de ventana deslizante en memoria.
func NewMemoryLoginRateLimiter(window time.Duration, max int) LoginRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryLoginRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (l *memoryLoginRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now().UTC()
	cutoff := now.Add(-l.window)
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	attempts := recentAttempts(l.hits[key], cutoff)
	if len(attempts) >= l.max {
		l.hits[key] = attempts
		return false
	}
	l.hits[key] = append(attempts, now)
	return true
}

func (l *memoryLoginRateLimiter) sweep(cutoff time.Time) {
	for key, attempts := range l.hits {
		if attempts = recentAttempts(attempts, cutoff); len(attempts) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = attempts
		}
	}
}

func recentAttempts(attempts []time.Time, cutoff time.Time) []time.Time {
	kept := attempts[:0]
	for _, ts := range attempts {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
