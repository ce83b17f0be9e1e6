package state_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botblocks/botblocks/pkg/state"
)

func newRedisStore(t *testing.T) (*state.RedisStore, *redis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	t.Cleanup(func() { _ = client.Close() })

	return state.NewRedisStore(client), client
}

func TestRedisStoreTouch(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	first, err := store.Touch(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.MessageCount)
	assert.False(t, first.LastActivity.IsZero())

	second, err := store.Touch(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.MessageCount)

	count, err := store.UserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStoreGetUnknownUser(t *testing.T) {
	store, _ := newRedisStore(t)

	_, err := store.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, state.ErrSessionNotFound)
}

func TestRedisStoreVariables(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	require.NoError(t, store.SetVariable(ctx, "u1", "name", "Ada"))

	session, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", session.Variables["name"])

	// Touch returns the stored overrides alongside the fresh counter.
	touched, err := store.Touch(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", touched.Variables["name"])
}

func TestRedisStorePruneIdle(t *testing.T) {
	ctx := context.Background()
	store, client := newRedisStore(t)

	_, err := store.Touch(ctx, "old")
	require.NoError(t, err)

	_, err = store.Touch(ctx, "fresh")
	require.NoError(t, err)

	stale := strconv.FormatInt(time.Now().Add(-2*time.Hour).UnixMilli(), 10)
	require.NoError(t, client.HSet(ctx, "botblocks:sessions:old", "last_activity", stale).Err())

	pruned, err := store.PruneIdle(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, state.ErrSessionNotFound)

	count, err := store.UserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
