package api

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock drives the limiter deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(clock *fakeClock) *RateLimiter {
	l := NewRateLimiter()
	l.now = clock.Now
	return l
}

func TestRateLimiterShortWindowCap(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock)

	for i := 0; i < ShortWindowLimit; i++ {
		admitted, _ := l.reserve()
		if !admitted {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}

	admitted, wait := l.reserve()
	if admitted {
		t.Error("request 11 within one second should be denied")
	}
	if wait <= 0 || wait > ShortWindowSpan {
		t.Errorf("wait = %v, want in (0, %v]", wait, ShortWindowSpan)
	}
}

func TestRateLimiterShortWindowRecovers(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock)

	for i := 0; i < ShortWindowLimit; i++ {
		l.reserve()
	}

	clock.Advance(ShortWindowSpan + time.Millisecond)

	admitted, _ := l.reserve()
	if !admitted {
		t.Error("request should be admitted after the short window ages out")
	}
}

func TestRateLimiterLongWindowCap(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock)

	// Issue the full 15-minute budget, pausing whenever the short
	// window fills.
	admittedCount := 0
	for admittedCount < LongWindowLimit {
		admitted, _ := l.reserve()
		if admitted {
			admittedCount++
			continue
		}
		clock.Advance(ShortWindowSpan)
	}

	// Drain the short window so only the long window is restrictive.
	clock.Advance(ShortWindowSpan + time.Millisecond)

	admitted, wait := l.reserve()
	if admitted {
		t.Fatalf("request %d should be denied by the long window", LongWindowLimit+1)
	}
	if wait <= 0 {
		t.Errorf("wait = %v, want positive", wait)
	}

	// The short window has long since drained; the long window is the
	// restrictive one and its wait must reach back to the oldest stamp.
	if wait > LongWindowSpan {
		t.Errorf("wait = %v, want at most %v", wait, LongWindowSpan)
	}
}

func TestRateLimiterNeverExceedsCaps(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock)

	// Hammer the limiter for a simulated minute and count admissions in
	// each trailing second.
	perSecond := make(map[int64]int)
	for step := 0; step < 60*20; step++ {
		if admitted, _ := l.reserve(); admitted {
			perSecond[clock.Now().Unix()]++
		}
		clock.Advance(50 * time.Millisecond)
	}

	for sec, n := range perSecond {
		if n > ShortWindowLimit {
			t.Errorf("second %d admitted %d requests, cap is %d", sec, n, ShortWindowLimit)
		}
	}

	short, long := l.Pending()
	if short > ShortWindowLimit {
		t.Errorf("short window retains %d stamps, cap is %d", short, ShortWindowLimit)
	}
	if long > LongWindowLimit {
		t.Errorf("long window retains %d stamps, cap is %d", long, LongWindowLimit)
	}
}

func TestRateLimiterAcquireWaitsOnce(t *testing.T) {
	l := NewRateLimiter()

	// Fill the short window with real timestamps.
	for i := 0; i < ShortWindowLimit; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire() %d error = %v", i+1, err)
		}
	}

	// The next acquire must wait for the oldest stamp to age out, then
	// succeed. This sleeps up to a second by design.
	start := time.Now()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() after window full error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*ShortWindowSpan {
		t.Errorf("Acquire() waited %v, want around %v", elapsed, ShortWindowSpan)
	}
}

func TestRateLimiterAcquireCancelled(t *testing.T) {
	l := NewRateLimiter()
	for i := 0; i < ShortWindowLimit; i++ {
		_ = l.Acquire(context.Background())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Acquire(ctx)
	if err == nil {
		t.Fatal("Acquire() with cancelled context should fail")
	}
}

func TestRateLimiterConcurrentAcquire(t *testing.T) {
	l := NewRateLimiter()

	// Twice the short-window budget of goroutines; all must eventually
	// be admitted without the window cap being breached.
	var wg sync.WaitGroup
	errs := make(chan error, 2*ShortWindowLimit)
	for i := 0; i < 2*ShortWindowLimit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.Acquire(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && !IsRateLimited(err) {
			t.Errorf("concurrent Acquire() error = %v", err)
		}
	}

	short, long := l.Pending()
	if short > ShortWindowLimit {
		t.Errorf("short window retains %d stamps, cap is %d", short, ShortWindowLimit)
	}
	if long > 2*ShortWindowLimit {
		t.Errorf("long window retains %d stamps, want at most %d", long, 2*ShortWindowLimit)
	}
}

func TestRateWindowEviction(t *testing.T) {
	clock := newFakeClock()
	w := rateWindow{span: time.Second, limit: 10}

	w.stamps = append(w.stamps, clock.Now())
	clock.Advance(500 * time.Millisecond)
	w.stamps = append(w.stamps, clock.Now())
	clock.Advance(600 * time.Millisecond)

	w.evict(clock.Now())
	if len(w.stamps) != 1 {
		t.Errorf("window retains %d stamps after eviction, want 1", len(w.stamps))
	}
}
