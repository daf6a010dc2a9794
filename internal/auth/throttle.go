package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/admin-service/pkg/util"
)

// LoginThrottle counts failed login attempts per account in Redis and locks
// the account out once the limit is reached. All state lives in Redis with
// TTLs, so instances share the counter and nothing needs cleanup.
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
}

// NewLoginThrottle builds a throttle. A nil client disables throttling.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window, lockout time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, window: window, lockout: lockout}
}

// Check fails when the account is currently locked out.
func (t *LoginThrottle) Check(ctx context.Context, account string) error {
	if t.client == nil || t.maxAttempts <= 0 {
		return nil
	}
	locked, err := t.client.Exists(ctx, lockKey(account)).Result()
	if err != nil {
		return apperrors.MapError(err)
	}
	if locked > 0 {
		return apperrors.NewTooManyAttempts("too many failed login attempts, try again later")
	}
	return nil
}

// RecordFailure bumps the failure counter and installs the lockout once the
// limit is hit. The counter expires after the window, so sparse failures
// never accumulate.
func (t *LoginThrottle) RecordFailure(ctx context.Context, account string) error {
	if t.client == nil || t.maxAttempts <= 0 {
		return nil
	}
	key := attemptsKey(account)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return apperrors.MapError(err)
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return apperrors.MapError(err)
		}
	}
	if count >= int64(t.maxAttempts) {
		if err := t.client.Set(ctx, lockKey(account), "1", t.lockout).Err(); err != nil {
			return apperrors.MapError(err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, account string) error {
	if t.client == nil {
		return nil
	}
	return t.client.Del(ctx, attemptsKey(account)).Err()
}

func attemptsKey(account string) string {
	return fmt.Sprintf("auth:login:attempts:%s", account)
}

func lockKey(account string) string {
	return fmt.Sprintf("auth:login:lock:%s", account)
}
