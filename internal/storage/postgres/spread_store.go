package postgres

import (
	"context"
	"fmt"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// SpreadStore implements storage.SpreadStore using PostgreSQL.
type SpreadStore struct {
	pool *Pool
}

// NewSpreadStore creates a new SpreadStore.
func NewSpreadStore(pool *Pool) *SpreadStore {
	return &SpreadStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SpreadStore = (*SpreadStore)(nil)

// Insert adds a synthetic security row. Returns ErrDuplicateKey if the
// symbol exists. The generated id is written back to s.
func (s *SpreadStore) Insert(ctx context.Context, sec *domain.SyntheticSecurity) error {
	query := `
		INSERT INTO synthetic_securities (symbol, leg_spec, is_polygon)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query, sec.Symbol, sec.LegSpec, sec.IsPolygon).Scan(&sec.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert synthetic security: %w", err)
	}
	return nil
}

// GetBySymbol retrieves one definition row. Returns ErrNotFound if not exists.
func (s *SpreadStore) GetBySymbol(ctx context.Context, symbol string) (*domain.SyntheticSecurity, error) {
	query := `
		SELECT id, symbol, leg_spec, is_polygon
		FROM synthetic_securities
		WHERE symbol = $1
	`

	var sec domain.SyntheticSecurity
	err := s.pool.QueryRow(ctx, query, symbol).Scan(&sec.ID, &sec.Symbol, &sec.LegSpec, &sec.IsPolygon)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get synthetic security by symbol: %w", err)
	}
	return &sec, nil
}

// GetPolygons retrieves every polygon definition, ordered by symbol ASC.
func (s *SpreadStore) GetPolygons(ctx context.Context) ([]*domain.SyntheticSecurity, error) {
	query := `
		SELECT id, symbol, leg_spec, is_polygon
		FROM synthetic_securities
		WHERE is_polygon
		ORDER BY symbol ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get polygons: %w", err)
	}
	defer rows.Close()

	var result []*domain.SyntheticSecurity
	for rows.Next() {
		var sec domain.SyntheticSecurity
		if err := rows.Scan(&sec.ID, &sec.Symbol, &sec.LegSpec, &sec.IsPolygon); err != nil {
			return nil, fmt.Errorf("scan synthetic security: %w", err)
		}
		result = append(result, &sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate synthetic securities: %w", err)
	}
	return result, nil
}
