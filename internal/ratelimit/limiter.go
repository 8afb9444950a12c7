// Package ratelimit bounds request volume and concurrent connections: a
// Redis-backed fixed-window counter for login attempts, and an in-process
// semaphore for the server's max_connections cap.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrLimitExceeded    = errors.New("rate limit exceeded")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// LimitConfig bounds a counter to Rate hits per Window.
type LimitConfig struct {
	Rate   int
	Window time.Duration
}

// Decision reports a single CheckRateLimit outcome.
type Decision struct {
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter int
	Allowed    bool
}

// Limiter is a Redis-backed fixed-window counter. A nil client degrades
// every check to "allowed" rather than failing requests.
type Limiter struct {
	client *redis.Client
	salt   string
}

func NewLimiter(client *redis.Client, salt string) *Limiter {
	if salt == "" {
		salt = "rustream-ratelimit"
	}
	return &Limiter{client: client, salt: salt}
}

// HashIP returns a privacy-safe, stable hash of an address for use as a
// rate-limit key component.
func (l *Limiter) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + l.salt))
	return hex.EncodeToString(sum[:])
}

var incrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if tonumber(current) == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// CheckRateLimit increments the counter for key and reports whether it is
// still within config.Rate for the current window. A key's window is
// rooted at its first hit and expires config.Window later.
func (l *Limiter) CheckRateLimit(ctx context.Context, key string, config LimitConfig) (*Decision, error) {
	if l.client == nil {
		return &Decision{Limit: config.Rate, Remaining: config.Rate, Allowed: true}, nil
	}

	count, err := incrScript.Run(ctx, l.client, []string{key}, config.Window.Milliseconds()).Int()
	if err != nil {
		return nil, ErrRedisUnavailable
	}

	remaining := config.Rate - count
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Limit:      config.Rate,
		Remaining:  remaining,
		Reset:      time.Now().Add(config.Window),
		RetryAfter: int(config.Window.Seconds()),
		Allowed:    count <= config.Rate,
	}, nil
}
