package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// FillStore implements storage.FillStore using PostgreSQL. Missing prices
// round-trip as SQL NaN, which double precision supports.
type FillStore struct {
	pool *Pool
}

// NewFillStore creates a new FillStore.
func NewFillStore(pool *Pool) *FillStore {
	return &FillStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

const fillColumns = `
	market_date, symbol, start_sequence_id, shot, observed_edge, observed_cash,
	fill_sequence_id, fill_edge, fill_cash, net_fill_cash, side
`

// InsertBulk adds fills atomically. Fails entire batch on any duplicate
// opportunity key.
func (s *FillStore) InsertBulk(ctx context.Context, fills []*domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO fills (` + fillColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, f := range fills {
		_, err := tx.Exec(ctx, query,
			f.Key.MarketDate,
			f.Key.Symbol,
			f.Key.StartSequenceID,
			f.Shot,
			f.ObservedEdge,
			f.ObservedCash,
			f.FillSequenceID,
			f.FillEdge,
			f.FillCash,
			f.NetFillCash,
			f.Side.String(),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert fill: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByDateSymbol retrieves fills for a partition, ordered by start sequence
// id ASC.
func (s *FillStore) GetByDateSymbol(ctx context.Context, date, symbol string) ([]*domain.Fill, error) {
	query := `
		SELECT ` + fillColumns + `
		FROM fills
		WHERE market_date = $1 AND symbol = $2
		ORDER BY start_sequence_id ASC
	`

	rows, err := s.pool.Query(ctx, query, date, symbol)
	if err != nil {
		return nil, fmt.Errorf("get fills: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// GetAll retrieves every fill, ordered by (date, symbol, start id) ASC.
func (s *FillStore) GetAll(ctx context.Context) ([]*domain.Fill, error) {
	query := `
		SELECT ` + fillColumns + `
		FROM fills
		ORDER BY market_date ASC, symbol ASC, start_sequence_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all fills: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

func scanFills(rows pgx.Rows) ([]*domain.Fill, error) {
	var result []*domain.Fill
	for rows.Next() {
		var f domain.Fill
		var side string
		err := rows.Scan(
			&f.Key.MarketDate,
			&f.Key.Symbol,
			&f.Key.StartSequenceID,
			&f.Shot,
			&f.ObservedEdge,
			&f.ObservedCash,
			&f.FillSequenceID,
			&f.FillEdge,
			&f.FillCash,
			&f.NetFillCash,
			&side,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fill: %w", err)
		}
		f.Side = domain.SideFromString(side)
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fills: %w", err)
	}
	return result, nil
}
