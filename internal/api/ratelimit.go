package api

import (
	"context"
	"sync"
	"time"

	"github.com/muurk/biocat/internal/logging"
)

// Vendor-enforced request ceilings, per API key and device.
const (
	// ShortWindowLimit is the maximum number of requests per second.
	ShortWindowLimit = 10
	// ShortWindowSpan is the duration of the short window.
	ShortWindowSpan = time.Second

	// LongWindowLimit is the maximum number of requests per 15 minutes.
	LongWindowLimit = 200
	// LongWindowSpan is the duration of the long window.
	LongWindowSpan = 15 * time.Minute
)

// rateWindow is a sliding record of request timestamps bounded by a
// duration and a maximum count. Entries older than the span are evicted
// lazily on each check.
type rateWindow struct {
	span   time.Duration
	limit  int
	stamps []time.Time
}

// evict drops timestamps that have aged out of the window.
func (w *rateWindow) evict(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// full reports whether the window is at capacity. Callers must evict first.
func (w *rateWindow) full() bool {
	return len(w.stamps) >= w.limit
}

// freeIn returns how long until the oldest retained timestamp ages out.
func (w *rateWindow) freeIn(now time.Time) time.Duration {
	if len(w.stamps) == 0 {
		return 0
	}
	return w.stamps[0].Add(w.span).Sub(now)
}

// RateLimiter admits requests under the vendor's dual-window rate limit.
// Both windows must have capacity for a request to proceed; on admission
// the current timestamp is recorded in both.
//
// The limiter is scoped to one client instance (one API key). It must not
// be shared between keys, since the vendor enforces limits per key+device.
// All methods are safe for concurrent use; the internal lock is never held
// while sleeping.
type RateLimiter struct {
	mu    sync.Mutex
	short rateWindow
	long  rateWindow

	// now is overridable for tests.
	now func() time.Time
}

// NewRateLimiter creates a limiter enforcing the vendor ceilings.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		short: rateWindow{span: ShortWindowSpan, limit: ShortWindowLimit},
		long:  rateWindow{span: LongWindowSpan, limit: LongWindowLimit},
		now:   time.Now,
	}
}

// reserve attempts to admit a request right now. On success the timestamp
// is recorded in both windows and wait is zero. Otherwise wait is the time
// after which the more restrictive window frees a slot.
func (l *RateLimiter) reserve() (admitted bool, wait time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.short.evict(now)
	l.long.evict(now)

	if !l.short.full() && !l.long.full() {
		l.short.stamps = append(l.short.stamps, now)
		l.long.stamps = append(l.long.stamps, now)
		return true, 0
	}

	// Both windows need room, so the required wait is the larger of the
	// two age-out times among the windows that are at capacity.
	if l.short.full() {
		if d := l.short.freeIn(now); d > wait {
			wait = d
		}
	}
	if l.long.full() {
		if d := l.long.freeIn(now); d > wait {
			wait = d
		}
	}
	return false, wait
}

// Acquire blocks until a request slot is admitted, waiting at most once
// for a window to free up. If the limiter is still at capacity after that
// single wait, a KindRateLimited error is returned and the executor's
// retry policy decides what happens next. Admission order is first come,
// first served with no further fairness guarantee.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	admitted, wait := l.reserve()
	if admitted {
		return nil
	}

	logging.LogRateLimitWait(wait)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return &APIError{Kind: KindConnection, Message: "request cancelled while rate limited", Err: ctx.Err()}
	case <-timer.C:
	}

	if admitted, _ = l.reserve(); admitted {
		return nil
	}
	return &APIError{Kind: KindRateLimited, Message: "local rate limit still saturated after waiting"}
}

// Pending returns the number of requests currently retained in each
// window. Used for diagnostics and tests.
func (l *RateLimiter) Pending() (short, long int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.short.evict(now)
	l.long.evict(now)
	return len(l.short.stamps), len(l.long.stamps)
}
