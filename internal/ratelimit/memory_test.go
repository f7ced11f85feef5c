package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryLimiterSweepsExpiredWindows(t *testing.T) {
	l := NewMemoryLimiter()
	l.maxKeys = 4
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if _, err := l.Allow(context.Background(), fmt.Sprintf("ip:10.0.0.%d", i), 1, now); err != nil {
			t.Fatalf("allow: %v", err)
		}
	}
	if len(l.counters) != 4 {
		t.Fatalf("expected 4 counters, got %d", len(l.counters))
	}

	now = now.Add(time.Second)
	res, err := l.Allow(context.Background(), "ip:10.0.1.1", 1, now)
	if err != nil || !res.Allowed {
		t.Fatalf("expected new key allowed, got %+v %v", res, err)
	}
	if len(l.counters) != 1 {
		t.Fatalf("expected expired windows swept, got %d counters", len(l.counters))
	}
}

func TestMemoryLimiterKeepsCurrentWindow(t *testing.T) {
	l := NewMemoryLimiter()
	l.maxKeys = 2
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := l.Allow(context.Background(), "ip:a", 1, now); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if _, err := l.Allow(context.Background(), "ip:b", 1, now); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if _, err := l.Allow(context.Background(), "ip:c", 1, now); err != nil {
		t.Fatalf("allow: %v", err)
	}
	res, err := l.Allow(context.Background(), "ip:a", 1, now)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatalf("expected a live counter to survive the sweep and block")
	}
}
