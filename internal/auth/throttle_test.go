package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admin-service/internal/auth"
	apperrors "github.com/spec-kit/admin-service/pkg/util"
)

func newThrottle(t *testing.T, maxAttempts int) (*auth.LoginThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return auth.NewLoginThrottle(client, maxAttempts, time.Minute, 5*time.Minute), mr
}

func TestThrottleLocksAfterMaxFailures(t *testing.T) {
	throttle, _ := newThrottle(t, 3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, throttle.RecordFailure(ctx, "alice"))
		require.NoError(t, throttle.Check(ctx, "alice"))
	}

	require.NoError(t, throttle.RecordFailure(ctx, "alice"))

	err := throttle.Check(ctx, "alice")
	require.Error(t, err)
	assert.Equal(t, "TOO_MANY_ATTEMPTS", apperrors.ToDomainError(err).Code)
}

func TestThrottleAccountsAreIndependent(t *testing.T) {
	throttle, _ := newThrottle(t, 1)
	ctx := context.Background()

	require.NoError(t, throttle.RecordFailure(ctx, "alice"))
	require.Error(t, throttle.Check(ctx, "alice"))
	require.NoError(t, throttle.Check(ctx, "bob"))
}

func TestThrottleResetClearsCounter(t *testing.T) {
	throttle, _ := newThrottle(t, 3)
	ctx := context.Background()

	require.NoError(t, throttle.RecordFailure(ctx, "alice"))
	require.NoError(t, throttle.RecordFailure(ctx, "alice"))
	require.NoError(t, throttle.Reset(ctx, "alice"))

	// A fresh failure starts counting from one again.
	require.NoError(t, throttle.RecordFailure(ctx, "alice"))
	require.NoError(t, throttle.Check(ctx, "alice"))
}

func TestThrottleLockoutExpires(t *testing.T) {
	throttle, mr := newThrottle(t, 1)
	ctx := context.Background()

	require.NoError(t, throttle.RecordFailure(ctx, "alice"))
	require.Error(t, throttle.Check(ctx, "alice"))

	mr.FastForward(6 * time.Minute)
	require.NoError(t, throttle.Check(ctx, "alice"))
}

func TestThrottleDisabledWithoutClient(t *testing.T) {
	throttle := auth.NewLoginThrottle(nil, 1, time.Minute, time.Minute)
	ctx := context.Background()

	require.NoError(t, throttle.RecordFailure(ctx, "alice"))
	require.NoError(t, throttle.Check(ctx, "alice"))
}
