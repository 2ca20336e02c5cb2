package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

func TestSecurityStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSecurityStore(pool)
	ctx := context.Background()

	sec := &domain.Security{
		SecurityID:    42,
		Symbol:        "GCJ1",
		AssetClass:    "FUTURE",
		SecurityGroup: "GC",
	}
	require.NoError(t, store.Insert(ctx, sec))

	byID, err := store.GetByID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, sec, byID)

	bySymbol, err := store.GetBySymbol(ctx, "GCJ1")
	require.NoError(t, err)
	require.Equal(t, sec, bySymbol)
}

func TestSecurityStore_Insert_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSecurityStore(pool)
	ctx := context.Background()

	sec := &domain.Security{SecurityID: 42, Symbol: "GCJ1", AssetClass: "FUTURE", SecurityGroup: "GC"}
	require.NoError(t, store.Insert(ctx, sec))

	err := store.Insert(ctx, sec)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSecurityStore_Get_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSecurityStore(pool)
	ctx := context.Background()

	_, err := store.GetByID(ctx, 999)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetBySymbol(ctx, "NOPE")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
