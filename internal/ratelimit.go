package internal

import (
	"sync"
	"time"
)

// RateLimiter is a sliding-window limiter keyed by caller. Each key may make
// at most limit calls within any window.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// Allow records a call for key and reports whether it is within the limit.
// Rejected calls are not recorded.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	valid := r.prune(key, now)
	if len(valid) >= r.limit {
		return false
	}
	r.hits[key] = append(valid, now)
	return true
}

// prune drops timestamps outside the window; caller holds mu
func (r *RateLimiter) prune(key string, now time.Time) []time.Time {
	stamps := r.hits[key]
	valid := stamps[:0]
	for _, t := range stamps {
		if now.Sub(t) < r.window {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(r.hits, key)
		return nil
	}
	r.hits[key] = valid
	return valid
}

// Cleanup forgets keys with no calls inside the window
func (r *RateLimiter) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for key := range r.hits {
		r.prune(key, now)
	}
}

// Keys returns how many callers are currently tracked
func (r *RateLimiter) Keys() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hits)
}
