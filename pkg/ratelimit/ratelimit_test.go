package ratelimit

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(limit int, window time.Duration) (*Limiter, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	l := New(limit, window)
	l.now = c.now
	return l, c
}

func TestAllowDrainsAndRefills(t *testing.T) {
	l, c := newTestLimiter(3, 3*time.Second)
	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected within the limit", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("fourth request allowed, want rejection")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("a different key shares the drained bucket")
	}

	c.t = c.t.Add(time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("bucket did not refill one token after a third of the window")
	}
	if l.Allow("10.0.0.1") {
		t.Error("bucket refilled more than one token")
	}
}

func TestRefillIsCapped(t *testing.T) {
	l, c := newTestLimiter(2, time.Second)
	l.Allow("k")
	c.t = c.t.Add(time.Hour)
	allowed := 0
	for i := 0; i < 5; i++ {
		if l.Allow("k") {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed %d after a long idle period, want 2", allowed)
	}
}

func TestSweepDropsIdleKeys(t *testing.T) {
	l, c := newTestLimiter(5, time.Minute)
	l.Allow("old")
	c.t = c.t.Add(3 * time.Minute)
	l.Allow("fresh")
	l.Sweep()
	if l.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", l.Len())
	}
}

func TestRetryAfter(t *testing.T) {
	l := New(60, time.Minute)
	if got := l.RetryAfter(); got != time.Second {
		t.Errorf("RetryAfter = %v, want 1s", got)
	}
}
