// Package ratelimit implements a fixed-window request counter per client key.
package ratelimit

import (
	"context"
	"time"
)

// Store increments the counter of key for the window ending at windowEnd and
// returns the new count. Counters must expire on their own or via Purge.
type Store interface {
	Incr(ctx context.Context, key string, windowEnd time.Time) (int, error)
	Purge(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter struct {
	store  Store
	max    int
	window time.Duration
	now    func() time.Time
}

func NewLimiter(store Store, max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Limiter{
		store:  store,
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow counts one request for key in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowEnd := l.now().Truncate(l.window).Add(l.window)
	d := Decision{Limit: l.max, ResetAt: windowEnd, Remaining: l.max}

	count, err := l.store.Incr(ctx, key, windowEnd)
	if err != nil {
		return d, err
	}

	d.Allowed = count <= l.max
	d.Remaining = l.max - count
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	return d, nil
}

// Purge drops counters of windows that ended before now.
func (l *Limiter) Purge(ctx context.Context) (int, error) {
	return l.store.Purge(ctx, l.now())
}
