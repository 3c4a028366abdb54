package session

import (
	"strconv"
	"testing"
	"time"
)

func TestLimiterEvictsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(100, 10)
	l.now = func() time.Time { return now }

	for i := range maxLimiters - 1 {
		l.allow("idle-" + strconv.Itoa(i))
	}
	now = now.Add(limiterIdleTTL + time.Second)
	l.allow("active")

	if got := len(l.limiters); got != maxLimiters {
		t.Fatalf("before sweep: %d limiters, want %d", got, maxLimiters)
	}
	l.allow("newcomer")

	if got := len(l.limiters); got != 2 {
		t.Fatalf("after sweep: %d limiters, want 2", got)
	}
	for _, k := range []string{"active", "newcomer"} {
		if _, ok := l.limiters[k]; !ok {
			t.Errorf("limiter %q was evicted", k)
		}
	}
}

func TestLimiterCapsActiveClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(100, 10)
	l.now = func() time.Time { return now }

	for i := range maxLimiters + 100 {
		now = now.Add(time.Millisecond)
		l.allow("client-" + strconv.Itoa(i))
	}

	if got := len(l.limiters); got != maxLimiters {
		t.Fatalf("%d limiters, want cap %d", got, maxLimiters)
	}
	if _, ok := l.limiters["client-0"]; ok {
		t.Error("oldest client should have been evicted")
	}
	if _, ok := l.limiters["client-"+strconv.Itoa(maxLimiters+99)]; !ok {
		t.Error("newest client is missing")
	}
}

func TestLimiterKeepsBucketAcrossCalls(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(1, 2)
	l.now = func() time.Time { return now }

	if !l.allow("a") || !l.allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.allow("a") {
		t.Fatal("third request in the same instant should be limited")
	}
	if !l.allow("b") {
		t.Fatal("other clients have their own bucket")
	}
	now = now.Add(time.Second)
	if !l.allow("a") {
		t.Fatal("bucket should refill after a second")
	}
}
