package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Telemetry mirrors connection activity into Redis for cross-restart
// observability. It is never consulted for authentication or session
// validity decisions — Store above is the sole authority for those. If
// Redis is unavailable, every method here logs and returns, degrading the
// feature rather than the server.
type Telemetry struct {
	client *redis.Client
}

// NewTelemetry connects lazily; go-redis dials on first use, so this never
// blocks startup on Redis being reachable.
func NewTelemetry(addr, password string) *Telemetry {
	if addr == "" {
		return &Telemetry{}
	}
	return &Telemetry{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
	}
}

const hostsKey = "rustream:active_hosts"

// RecordConnection adds host to the active-hosts sorted set, scored by the
// current unix time, and trims entries older than staleAfter.
func (t *Telemetry) RecordConnection(ctx context.Context, host string, staleAfter time.Duration) {
	if t.client == nil {
		return
	}
	now := float64(time.Now().Unix())
	pipe := t.client.Pipeline()
	pipe.ZAdd(ctx, hostsKey, redis.Z{Score: now, Member: host})
	pipe.ZRemRangeByScore(ctx, hostsKey, "-inf", fmt.Sprintf("%f", now-staleAfter.Seconds()))
	if _, err := pipe.Exec(ctx); err != nil {
		slog.WarnContext(ctx, "session telemetry unavailable", slog.String("error", err.Error()))
	}
}

// ActiveConnectionCount returns the number of hosts seen within the last
// staleAfter window. It is an observability figure only: max_connections
// is enforced solely by the in-process semaphore in internal/ratelimit,
// which does not consult this count. A Redis failure reports 0.
func (t *Telemetry) ActiveConnectionCount(ctx context.Context, staleAfter time.Duration) int {
	if t.client == nil {
		return 0
	}
	cutoff := float64(time.Now().Add(-staleAfter).Unix())
	n, err := t.client.ZCount(ctx, hostsKey, fmt.Sprintf("%f", cutoff), "+inf").Result()
	if err != nil {
		slog.WarnContext(ctx, "session telemetry unavailable", slog.String("error", err.Error()))
		return 0
	}
	return int(n)
}
