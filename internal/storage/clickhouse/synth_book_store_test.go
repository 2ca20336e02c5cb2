package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

func TestSynthBookStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSynthBookStore(conn)
	ctx := context.Background()

	rows := []domain.SyntheticBookRow{
		{
			SequenceID: 100, Timestamp: 1_000_000, FirstSubTime: 999_800, LastSubTime: 1_000_000,
			BidPrice: 1.5, BidQty: 2, AskPrice: -0.5, AskQty: 3, Edge: 1.5,
			BookDur: 120 * time.Microsecond, BookDurFSN: 140 * time.Microsecond, BookDurLSN: 120 * time.Microsecond,
		},
		{
			SequenceID: 104, Timestamp: 1_120_000, FirstSubTime: 1_119_500, LastSubTime: 1_120_000,
			BidPrice: domain.MissingPrice(), BidQty: 0, AskPrice: -0.25, AskQty: 3, Edge: 0.25,
			BookDur: 0, BookDurFSN: 0, BookDurLSN: 0,
		},
	}

	require.NoError(t, store.InsertBulk(ctx, "2024-03-11", "A-B", rows))

	got, err := store.GetByDateSymbol(ctx, "2024-03-11", "A-B")
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, int64(100), got[0].SequenceID)
	require.Equal(t, 1.5, got[0].Edge)
	require.Equal(t, 120*time.Microsecond, got[0].BookDur)
	require.Equal(t, 140*time.Microsecond, got[0].BookDurFSN)

	require.True(t, domain.IsPriceMissing(got[1].BidPrice))
	require.Equal(t, -0.25, got[1].AskPrice)
	require.Equal(t, time.Duration(0), got[1].BookDur)
}

func TestSynthBookStore_DuplicatePartition(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSynthBookStore(conn)
	ctx := context.Background()

	rows := []domain.SyntheticBookRow{
		{SequenceID: 100, Timestamp: 1_000_000, FirstSubTime: 1_000_000, LastSubTime: 1_000_000, BidPrice: 1.0, BidQty: 1, AskPrice: -0.5, AskQty: 1, Edge: 1.0},
	}

	require.NoError(t, store.InsertBulk(ctx, "2024-03-11", "A-B", rows))

	err := store.InsertBulk(ctx, "2024-03-11", "A-B", rows)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same symbol on another date is a separate partition.
	require.NoError(t, store.InsertBulk(ctx, "2024-03-12", "A-B", rows))
}

func TestSynthBookStore_GetByDateSymbol_NotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSynthBookStore(conn)
	ctx := context.Background()

	_, err := store.GetByDateSymbol(ctx, "2024-03-11", "A-B")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
