// Package ratelimit counts requests per client key in fixed windows.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/clock"
	"github.com/dmitrijs2005/tourbook/internal/common"
)

// sweepEvery is how many Allow calls pass between scans for stale keys.
const sweepEvery = 1024

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left in the current window, never negative.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if wait := d.ResetAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

type window struct {
	start time.Time
	count int
}

// Limiter admits at most max requests per key in each window. Safe for
// concurrent use; one Limiter is shared by the whole process.
type Limiter struct {
	max    int
	period time.Duration
	clock  clock.Clock

	mu    sync.Mutex
	keys  map[string]*window
	calls int
}

func New(max int, period time.Duration, c clock.Clock) *Limiter {
	if max < 1 {
		max = 1
	}
	if period <= 0 {
		period = time.Hour
	}
	return &Limiter{
		max:    max,
		period: period,
		clock:  c,
		keys:   make(map[string]*window),
	}
}

// Allow counts one request for key and reports whether it is admitted.
func (l *Limiter) Allow(key string) Decision {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}

	w, ok := l.keys[key]
	if !ok || !now.Before(w.start.Add(l.period)) {
		w = &window{start: now}
		l.keys[key] = w
	}

	d := Decision{Limit: l.max, ResetAt: w.start.Add(l.period)}
	if w.count >= l.max {
		return d
	}
	w.count++
	d.Allowed = true
	d.Remaining = l.max - w.count
	return d
}

// Check is Allow reduced to an error: RateLimited with a retry hint in
// whole minutes, rounded up.
func (l *Limiter) Check(key string) error {
	d := l.Allow(key)
	if d.Allowed {
		return nil
	}
	return Rejection(d, l.clock.Now())
}

// Rejection builds the RateLimited error for a refused decision.
func Rejection(d Decision, now time.Time) error {
	minutes := int(math.Ceil(d.RetryAfter(now).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return common.RateLimited(fmt.Sprintf("Too many requests from this IP, please try again in %d minutes!", minutes))
}

// Len is the number of keys currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

func (l *Limiter) sweep(now time.Time) {
	for k, w := range l.keys {
		if !now.Before(w.start.Add(l.period)) {
			delete(l.keys, k)
		}
	}
}
