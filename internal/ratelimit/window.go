// Package ratelimit throttles callers with an in-memory sliding window.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Result describes the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds until the oldest hit leaves the window;
	// zero when Allowed.
	RetryAfter int
}

// SlidingWindow allows at most limit hits per key within any window-long
// interval. It is not distributed; each process keeps its own counts.
type SlidingWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string][]time.Time
	swept   time.Time
}

type Option func(*SlidingWindow)

func WithClock(now func() time.Time) Option {
	return func(w *SlidingWindow) {
		if now != nil {
			w.now = now
		}
	}
}

func NewSlidingWindow(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	w := &SlidingWindow{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Allow records a hit for key if it fits in the window.
func (w *SlidingWindow) Allow(_ context.Context, key string) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if now.Sub(w.swept) >= w.window {
		for k := range w.buckets {
			w.prune(k, now)
		}
		w.swept = now
	}
	hits := w.prune(key, now)

	if len(hits) >= w.limit {
		resetAt := now.Add(w.window)
		if len(hits) > 0 {
			resetAt = hits[0].Add(w.window)
		}
		return Result{
			Allowed:    false,
			Limit:      w.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: int(math.Ceil(resetAt.Sub(now).Seconds())),
		}, nil
	}

	hits = append(hits, now)
	w.buckets[key] = hits
	return Result{
		Allowed:   true,
		Limit:     w.limit,
		Remaining: w.limit - len(hits),
		ResetAt:   hits[0].Add(w.window),
	}, nil
}

// Reset forgets every hit recorded for key.
func (w *SlidingWindow) Reset(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.buckets, key)
}

// prune drops hits older than the window and forgets keys left empty.
// Must be called with w.mu held.
func (w *SlidingWindow) prune(key string, now time.Time) []time.Time {
	hits := w.buckets[key]
	cutoff := now.Add(-w.window)
	i := 0
	for ; i < len(hits); i++ {
		if hits[i].After(cutoff) {
			break
		}
	}
	hits = hits[i:]
	if len(hits) == 0 {
		delete(w.buckets, key)
	}
	return hits
}
