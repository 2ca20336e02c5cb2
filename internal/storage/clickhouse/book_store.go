package clickhouse

import (
	"context"
	"fmt"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// BookStore implements storage.BookStore using ClickHouse. Missing prices
// are stored as Float64 NaN; zero-quantity sides are normalized back to the
// missing sentinel at scan time regardless of the stored price.
type BookStore struct {
	conn *Conn
}

// NewBookStore creates a new BookStore.
func NewBookStore(conn *Conn) *BookStore {
	return &BookStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BookStore = (*BookStore)(nil)

// InsertBulk adds observations for a capture. Fails entire batch on any
// duplicate (channel, date, sequence_id, security_id). MergeTree does not
// enforce uniqueness, so existing keys are read back and checked up front.
func (s *BookStore) InsertBulk(ctx context.Context, channel int, date string, obs []domain.BookObservation) error {
	if date == "" {
		return storage.ErrInvalidInput
	}
	if len(obs) == 0 {
		return nil
	}

	type key struct {
		seq        int64
		securityID int64
	}
	seen := make(map[key]struct{}, len(obs))
	for _, o := range obs {
		k := key{o.SequenceID, o.SecurityID}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	existing, err := s.conn.Query(ctx, `
		SELECT sequence_id, security_id
		FROM book_observations
		WHERE channel = ? AND market_date = ?
	`, int32(channel), date)
	if err != nil {
		return fmt.Errorf("check existing observations: %w", err)
	}
	defer existing.Close()
	for existing.Next() {
		var k key
		if err := existing.Scan(&k.seq, &k.securityID); err != nil {
			return fmt.Errorf("scan existing key: %w", err)
		}
		if _, clash := seen[k]; clash {
			return storage.ErrDuplicateKey
		}
	}
	if err := existing.Err(); err != nil {
		return fmt.Errorf("iterate existing keys: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO book_observations (
			channel, market_date, sequence_id, security_id, ts,
			bid_price, bid_qty, ask_price, ask_qty
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		err = batch.Append(
			int32(channel), date, o.SequenceID, o.SecurityID, o.Timestamp,
			o.BidPrice, o.BidQty, o.AskPrice, o.AskQty,
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

// GetBySecurity retrieves one security's observations for a date, ordered by
// sequence id ASC. An empty result is not an error.
func (s *BookStore) GetBySecurity(ctx context.Context, channel int, date string, securityID int64) ([]domain.BookObservation, error) {
	query := `
		SELECT sequence_id, security_id, ts, bid_price, bid_qty, ask_price, ask_qty
		FROM book_observations
		WHERE channel = ? AND market_date = ? AND security_id = ?
		ORDER BY sequence_id ASC
	`

	rows, err := s.conn.Query(ctx, query, int32(channel), date, securityID)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var result []domain.BookObservation
	for rows.Next() {
		var o domain.BookObservation
		err := rows.Scan(
			&o.SequenceID, &o.SecurityID, &o.Timestamp,
			&o.BidPrice, &o.BidQty, &o.AskPrice, &o.AskQty,
		)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		if o.BidQty == 0 {
			o.BidPrice = domain.MissingPrice()
		}
		if o.AskQty == 0 {
			o.AskPrice = domain.MissingPrice()
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return result, nil
}

// InsertEventInfo adds per-event sub-packet timing rows for a capture.
func (s *BookStore) InsertEventInfo(ctx context.Context, channel int, date string, events []domain.EventInfo) error {
	if date == "" {
		return storage.ErrInvalidInput
	}
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO book_events (channel, market_date, sequence_id, first_sub_time, last_sub_time)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, ev := range events {
		if err := batch.Append(int32(channel), date, ev.SequenceID, ev.FirstSubTime, ev.LastSubTime); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetEventInfo retrieves the per-event timing for a date, ordered by
// sequence id ASC.
func (s *BookStore) GetEventInfo(ctx context.Context, channel int, date string) ([]domain.EventInfo, error) {
	query := `
		SELECT sequence_id, first_sub_time, last_sub_time
		FROM book_events
		WHERE channel = ? AND market_date = ?
		ORDER BY sequence_id ASC
	`

	rows, err := s.conn.Query(ctx, query, int32(channel), date)
	if err != nil {
		return nil, fmt.Errorf("query event info: %w", err)
	}
	defer rows.Close()

	var result []domain.EventInfo
	for rows.Next() {
		var ev domain.EventInfo
		if err := rows.Scan(&ev.SequenceID, &ev.FirstSubTime, &ev.LastSubTime); err != nil {
			return nil, fmt.Errorf("scan event info: %w", err)
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event info: %w", err)
	}
	return result, nil
}
