package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rustream/server/internal/session"
)

func newTestTelemetry(t *testing.T) *session.Telemetry {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return session.NewTelemetry(mr.Addr(), "")
}

func TestTelemetry_RecordAndCount(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := context.Background()

	tel.RecordConnection(ctx, "10.0.0.1", time.Hour)
	tel.RecordConnection(ctx, "10.0.0.2", time.Hour)

	if got := tel.ActiveConnectionCount(ctx, time.Hour); got != 2 {
		t.Errorf("got %d active connections, want 2", got)
	}
}

func TestTelemetry_NoAddrDegradesQuietly(t *testing.T) {
	tel := session.NewTelemetry("", "")
	ctx := context.Background()

	tel.RecordConnection(ctx, "10.0.0.1", time.Hour)
	if got := tel.ActiveConnectionCount(ctx, time.Hour); got != 0 {
		t.Errorf("expected 0 without a Redis addr, got %d", got)
	}
}
