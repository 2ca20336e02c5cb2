package clickhouse

import (
	"context"
	"fmt"
	"time"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// SynthBookStore implements storage.SynthBookStore using ClickHouse.
// Durations are stored as integral nanoseconds.
type SynthBookStore struct {
	conn *Conn
}

// NewSynthBookStore creates a new SynthBookStore.
func NewSynthBookStore(conn *Conn) *SynthBookStore {
	return &SynthBookStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SynthBookStore = (*SynthBookStore)(nil)

// InsertBulk adds a date/symbol series. Returns ErrDuplicateKey if the
// partition was already built.
func (s *SynthBookStore) InsertBulk(ctx context.Context, date, symbol string, rows []domain.SyntheticBookRow) error {
	if date == "" || symbol == "" {
		return storage.ErrInvalidInput
	}

	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count(*) FROM synth_books WHERE market_date = ? AND symbol = ?
	`, date, symbol).Scan(&count)
	if err != nil {
		return fmt.Errorf("check partition: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO synth_books (
			market_date, symbol, sequence_id, ts, first_sub_time, last_sub_time,
			bid_price, bid_qty, ask_price, ask_qty, edge,
			book_dur_ns, book_dur_fsn_ns, book_dur_lsn_ns
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			date, symbol, r.SequenceID, r.Timestamp, r.FirstSubTime, r.LastSubTime,
			r.BidPrice, r.BidQty, r.AskPrice, r.AskQty, r.Edge,
			r.BookDur.Nanoseconds(), r.BookDurFSN.Nanoseconds(), r.BookDurLSN.Nanoseconds(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByDateSymbol retrieves a series ordered by sequence id ASC. Returns
// ErrNotFound if the partition was never built.
func (s *SynthBookStore) GetByDateSymbol(ctx context.Context, date, symbol string) ([]domain.SyntheticBookRow, error) {
	query := `
		SELECT sequence_id, ts, first_sub_time, last_sub_time,
		       bid_price, bid_qty, ask_price, ask_qty, edge,
		       book_dur_ns, book_dur_fsn_ns, book_dur_lsn_ns
		FROM synth_books
		WHERE market_date = ? AND symbol = ?
		ORDER BY sequence_id ASC
	`

	rows, err := s.conn.Query(ctx, query, date, symbol)
	if err != nil {
		return nil, fmt.Errorf("query synth books: %w", err)
	}
	defer rows.Close()

	var result []domain.SyntheticBookRow
	for rows.Next() {
		var r domain.SyntheticBookRow
		var durNs, fsnNs, lsnNs int64
		err := rows.Scan(
			&r.SequenceID, &r.Timestamp, &r.FirstSubTime, &r.LastSubTime,
			&r.BidPrice, &r.BidQty, &r.AskPrice, &r.AskQty, &r.Edge,
			&durNs, &fsnNs, &lsnNs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan synth book row: %w", err)
		}
		r.BookDur = time.Duration(durNs)
		r.BookDurFSN = time.Duration(fsnNs)
		r.BookDurLSN = time.Duration(lsnNs)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate synth book rows: %w", err)
	}

	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result, nil
}
