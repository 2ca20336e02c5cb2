package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// OpportunityEventStore implements storage.OpportunityEventStore using
// PostgreSQL. Window durations are stored as integral nanoseconds.
type OpportunityEventStore struct {
	pool *Pool
}

// NewOpportunityEventStore creates a new OpportunityEventStore.
func NewOpportunityEventStore(pool *Pool) *OpportunityEventStore {
	return &OpportunityEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OpportunityEventStore = (*OpportunityEventStore)(nil)

// InsertBulk adds raw opportunity rows atomically. Fails entire batch on any
// duplicate (market_date, symbol, event_id).
func (s *OpportunityEventStore) InsertBulk(ctx context.Context, events []*domain.OpportunityEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO opportunity_events (
			market_date, symbol, event_id, run_id, opp_id, side, entry_pnl,
			entry_qty, entry_ticks, is_direct, has_futures, ts, fsn_win_ns, lsn_win_ns
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for _, ev := range events {
		_, err := tx.Exec(ctx, query,
			ev.MarketDate,
			ev.Symbol,
			ev.EventID,
			ev.RunID,
			ev.OppID,
			ev.Side,
			ev.EntryPnL,
			ev.EntryQty,
			ev.EntryTicks,
			ev.IsDirect,
			ev.HasFutures,
			ev.Timestamp,
			ev.FSNWin.Nanoseconds(),
			ev.LSNWin.Nanoseconds(),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert opportunity event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByDateSymbol retrieves rows for a partition, ordered by event id ASC.
func (s *OpportunityEventStore) GetByDateSymbol(ctx context.Context, date, symbol string) ([]*domain.OpportunityEvent, error) {
	query := `
		SELECT market_date, symbol, event_id, run_id, opp_id, side, entry_pnl,
		       entry_qty, entry_ticks, is_direct, has_futures, ts, fsn_win_ns, lsn_win_ns
		FROM opportunity_events
		WHERE market_date = $1 AND symbol = $2
		ORDER BY event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, date, symbol)
	if err != nil {
		return nil, fmt.Errorf("get opportunity events: %w", err)
	}
	defer rows.Close()

	var result []*domain.OpportunityEvent
	for rows.Next() {
		ev, err := scanOpportunityEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity event: %w", err)
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunity events: %w", err)
	}
	return result, nil
}

// GetAll retrieves every row, ordered by (date, symbol, event id) ASC.
func (s *OpportunityEventStore) GetAll(ctx context.Context) ([]*domain.OpportunityEvent, error) {
	query := `
		SELECT market_date, symbol, event_id, run_id, opp_id, side, entry_pnl,
		       entry_qty, entry_ticks, is_direct, has_futures, ts, fsn_win_ns, lsn_win_ns
		FROM opportunity_events
		ORDER BY market_date ASC, symbol ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all opportunity events: %w", err)
	}
	defer rows.Close()

	var result []*domain.OpportunityEvent
	for rows.Next() {
		ev, err := scanOpportunityEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity event: %w", err)
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunity events: %w", err)
	}
	return result, nil
}

// GetDates retrieves the distinct market dates present, ordered ASC.
func (s *OpportunityEventStore) GetDates(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT market_date
		FROM opportunity_events
		ORDER BY market_date ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get opportunity dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dates: %w", err)
	}
	return dates, nil
}

func scanOpportunityEvent(row pgx.Row) (*domain.OpportunityEvent, error) {
	var ev domain.OpportunityEvent
	var fsnNs, lsnNs int64

	err := row.Scan(
		&ev.MarketDate,
		&ev.Symbol,
		&ev.EventID,
		&ev.RunID,
		&ev.OppID,
		&ev.Side,
		&ev.EntryPnL,
		&ev.EntryQty,
		&ev.EntryTicks,
		&ev.IsDirect,
		&ev.HasFutures,
		&ev.Timestamp,
		&fsnNs,
		&lsnNs,
	)
	if err != nil {
		return nil, err
	}

	ev.FSNWin = time.Duration(fsnNs)
	ev.LSNWin = time.Duration(lsnNs)
	return &ev, nil
}
