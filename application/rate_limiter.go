package application

import (
	"sync"
	"time"
)

const DefaultMinInterval = 5 * time.Second

// RateLimiter enforces a fixed cooldown between forwarded readings.
// Readings arriving inside the cooldown are dropped, not queued.
type RateLimiter struct {
	minInterval time.Duration

	mu       sync.Mutex
	lastSent time.Time
	sent     bool
}

func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &RateLimiter{minInterval: minInterval}
}

// Allow reports whether a reading observed at now may be forwarded. The
// window is advanced before the caller forwards, so a slow or failing
// forward never reopens it early.
func (r *RateLimiter) Allow(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sent && now.Sub(r.lastSent) < r.minInterval {
		return false
	}

	r.lastSent = now
	r.sent = true
	return true
}

// LastSent returns the time of the last allowed reading and false if
// nothing was allowed yet.
func (r *RateLimiter) LastSent() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSent, r.sent
}

func (r *RateLimiter) MinInterval() time.Duration {
	return r.minInterval
}
