package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rustream/server/internal/ratelimit"
)

func newTestLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return ratelimit.NewLimiter(client, "test-salt")
}

func TestLimiter_AllowsWithinRate(t *testing.T) {
	l := newTestLimiter(t)
	cfg := ratelimit.LimitConfig{Rate: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		d, err := l.CheckRateLimit(context.Background(), "key", cfg)
		if err != nil {
			t.Fatalf("CheckRateLimit failed: %v", err)
		}
		if !d.Allowed {
			t.Errorf("expected attempt %d to be allowed", i+1)
		}
	}
}

func TestLimiter_BlocksOverRate(t *testing.T) {
	l := newTestLimiter(t)
	cfg := ratelimit.LimitConfig{Rate: 2, Window: time.Minute}

	for i := 0; i < 2; i++ {
		l.CheckRateLimit(context.Background(), "key", cfg)
	}
	d, err := l.CheckRateLimit(context.Background(), "key", cfg)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}
	if d.Allowed {
		t.Error("expected the third attempt to be blocked")
	}
}

func TestLimiter_NilClientAlwaysAllows(t *testing.T) {
	l := ratelimit.NewLimiter(nil, "")
	d, err := l.CheckRateLimit(context.Background(), "key", ratelimit.LimitConfig{Rate: 1, Window: time.Minute})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Error("expected a nil redis client to degrade to always-allowed")
	}
}

func TestHashIP_Stable(t *testing.T) {
	l := ratelimit.NewLimiter(nil, "salt")
	a := l.HashIP("1.2.3.4")
	b := l.HashIP("1.2.3.4")
	if a != b {
		t.Error("expected HashIP to be stable for the same input")
	}
	if a == l.HashIP("5.6.7.8") {
		t.Error("expected different IPs to hash differently")
	}
}

func TestConnectionLimiter_AcquireRelease(t *testing.T) {
	c := ratelimit.NewConnectionLimiter(2)

	if !c.Acquire() || !c.Acquire() {
		t.Fatal("expected both slots to be acquirable")
	}
	if c.Acquire() {
		t.Error("expected a third acquire to fail at capacity")
	}
	c.Release()
	if !c.Acquire() {
		t.Error("expected a slot to be free after Release")
	}
}

func TestConnectionLimiter_MaxFloorsAtOne(t *testing.T) {
	c := ratelimit.NewConnectionLimiter(0)
	if c.Max() != 1 {
		t.Errorf("expected Max() to floor at 1, got %d", c.Max())
	}
}
