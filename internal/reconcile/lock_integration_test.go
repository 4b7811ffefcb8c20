//go:build integration

package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	platformredis "github.com/notorious-utopia/egrn/internal/platform/redis"
	"github.com/notorious-utopia/egrn/internal/reconcile"
	"github.com/notorious-utopia/egrn/pkg/testutil/containers"
)

func TestRedisLease(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))

	client := &platformredis.Client{Client: rc.Client}

	t.Run("second holder is denied until release", func(t *testing.T) {
		first := reconcile.NewRedisLease(client, time.Minute)
		second := reconcile.NewRedisLease(client, time.Minute)

		held, err := first.Acquire(ctx)
		require.NoError(t, err)
		require.True(t, held)

		held, err = second.Acquire(ctx)
		require.NoError(t, err)
		require.False(t, held)

		require.NoError(t, first.Release(ctx))

		held, err = second.Acquire(ctx)
		require.NoError(t, err)
		require.True(t, held)
		require.NoError(t, second.Release(ctx))
	})

	t.Run("release does not steal another holder's lease", func(t *testing.T) {
		first := reconcile.NewRedisLease(client, time.Minute)
		second := reconcile.NewRedisLease(client, time.Minute)

		held, err := first.Acquire(ctx)
		require.NoError(t, err)
		require.True(t, held)

		// A holder that lost its lease must not free the current one.
		require.NoError(t, second.Release(ctx))

		held, err = second.Acquire(ctx)
		require.NoError(t, err)
		require.False(t, held)

		require.NoError(t, first.Release(ctx))
	})

	t.Run("expired lease can be reacquired", func(t *testing.T) {
		first := reconcile.NewRedisLease(client, 100*time.Millisecond)

		held, err := first.Acquire(ctx)
		require.NoError(t, err)
		require.True(t, held)

		time.Sleep(200 * time.Millisecond)

		second := reconcile.NewRedisLease(client, time.Minute)
		held, err = second.Acquire(ctx)
		require.NoError(t, err)
		require.True(t, held)
		require.NoError(t, second.Release(ctx))
	})
}
