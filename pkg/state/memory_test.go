package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botblocks/botblocks/pkg/state"
)

func TestMemoryStoreTouch(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()

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

func TestMemoryStoreGetUnknownUser(t *testing.T) {
	store := state.NewMemoryStore()

	_, err := store.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, state.ErrSessionNotFound)
}

func TestMemoryStoreVariables(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()

	require.NoError(t, store.SetVariable(ctx, "u1", "name", "Ada"))

	session, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", session.Variables["name"])

	// Snapshots are copies; mutating one must not leak into the store.
	session.Variables["name"] = "Grace"

	again, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Variables["name"])
}

func TestMemoryStorePruneIdle(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()

	_, err := store.Touch(ctx, "old")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = store.Touch(ctx, "fresh")
	require.NoError(t, err)

	pruned, err := store.PruneIdle(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, state.ErrSessionNotFound)

	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
}
