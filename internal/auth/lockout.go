package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	LockoutThreshold = 5
	LockoutWindow    = 15 * time.Minute
	LockoutDuration  = 15 * time.Minute
)

// Lockout tracks consecutive failed logins per username and denies further
// attempts for LockoutDuration once LockoutThreshold is reached within
// LockoutWindow, even given correct credentials on a later attempt.
type Lockout struct {
	client *redis.Client
}

// NewLockout wraps client. A nil client (Redis not configured/reachable)
// degrades Lockout into a no-op: nothing is ever locked out.
func NewLockout(client *redis.Client) *Lockout {
	return &Lockout{client: client}
}

// IsLockedOut reports whether username is currently locked out.
func (l *Lockout) IsLockedOut(ctx context.Context, username string) (bool, error) {
	if l.client == nil {
		return false, nil
	}
	key := fmt.Sprintf("lockout:%s", username)
	val, err := l.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "locked", nil
}

// RecordFailedAttempt increments username's failure counter and locks it
// out once LockoutThreshold consecutive failures land within LockoutWindow.
func (l *Lockout) RecordFailedAttempt(ctx context.Context, username string) error {
	if l.client == nil {
		return nil
	}
	key := fmt.Sprintf("lockout_count:%s", username)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		l.client.Expire(ctx, key, LockoutWindow)
	}
	if count >= LockoutThreshold {
		lockKey := fmt.Sprintf("lockout:%s", username)
		l.client.Set(ctx, lockKey, "locked", LockoutDuration)
		l.client.Del(ctx, key)
	}
	return nil
}

// ClearFailures resets username's failure counter after a successful login.
func (l *Lockout) ClearFailures(ctx context.Context, username string) error {
	if l.client == nil {
		return nil
	}
	return l.client.Del(ctx, fmt.Sprintf("lockout_count:%s", username)).Err()
}
