package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"token-crowdsale/internal/domain"
)

func TestAllowlistStore_AddAndContains(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAllowlistStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "alice"))

	ok, err := store.Contains(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Contains(ctx, "bob")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAllowlistStore_AddIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAllowlistStore(pool)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Add(ctx, "alice"))
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestAllowlistStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAllowlistStore(pool)
	ctx := context.Background()

	for _, id := range []domain.Identity{"carol", "alice", "bob"} {
		require.NoError(t, store.Add(ctx, id))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Identity{"alice", "bob", "carol"}, list)
}
