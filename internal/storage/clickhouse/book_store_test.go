package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

func TestBookStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBookStore(conn)
	ctx := context.Background()

	obs := []domain.BookObservation{
		{SequenceID: 100, Timestamp: 1_000_000, SecurityID: 11, BidPrice: 99.5, BidQty: 4, AskPrice: 100.0, AskQty: 2},
		{SequenceID: 101, Timestamp: 1_001_000, SecurityID: 12, BidPrice: 50.25, BidQty: 1, AskPrice: 50.75, AskQty: 3},
		{SequenceID: 102, Timestamp: 1_002_000, SecurityID: 11, BidPrice: domain.MissingPrice(), BidQty: 0, AskPrice: 100.25, AskQty: 5},
	}

	err := store.InsertBulk(ctx, 310, "2024-03-11", obs)
	require.NoError(t, err)

	got, err := store.GetBySecurity(ctx, 310, "2024-03-11", 11)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, int64(100), got[0].SequenceID)
	require.Equal(t, 99.5, got[0].BidPrice)
	require.Equal(t, int64(4), got[0].BidQty)

	require.Equal(t, int64(102), got[1].SequenceID)
	require.True(t, domain.IsPriceMissing(got[1].BidPrice))
	require.Equal(t, int64(0), got[1].BidQty)
	require.Equal(t, 100.25, got[1].AskPrice)

	// Other channel and date partitions stay empty.
	got, err = store.GetBySecurity(ctx, 311, "2024-03-11", 11)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = store.GetBySecurity(ctx, 310, "2024-03-12", 11)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBookStore_InsertBulk_DuplicateAcrossBatches(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBookStore(conn)
	ctx := context.Background()

	first := []domain.BookObservation{
		{SequenceID: 100, Timestamp: 1_000_000, SecurityID: 11, BidPrice: 99.5, BidQty: 4, AskPrice: 100.0, AskQty: 2},
	}
	require.NoError(t, store.InsertBulk(ctx, 310, "2024-03-11", first))

	second := []domain.BookObservation{
		{SequenceID: 100, Timestamp: 1_000_500, SecurityID: 11, BidPrice: 99.75, BidQty: 1, AskPrice: 100.0, AskQty: 2},
	}
	err := store.InsertBulk(ctx, 310, "2024-03-11", second)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same key on another channel is fine.
	require.NoError(t, store.InsertBulk(ctx, 311, "2024-03-11", second))
}

func TestBookStore_EventInfo(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBookStore(conn)
	ctx := context.Background()

	events := []domain.EventInfo{
		{SequenceID: 101, FirstSubTime: 1_001_000, LastSubTime: 1_001_200},
		{SequenceID: 100, FirstSubTime: 1_000_000, LastSubTime: 1_000_300},
	}
	require.NoError(t, store.InsertEventInfo(ctx, 310, "2024-03-11", events))

	got, err := store.GetEventInfo(ctx, 310, "2024-03-11")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int64(100), got[0].SequenceID)
	require.Equal(t, int64(1_000_300), got[0].LastSubTime)
	require.Equal(t, int64(101), got[1].SequenceID)
}
