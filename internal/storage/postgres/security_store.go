package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// SecurityStore implements storage.SecurityStore using PostgreSQL.
type SecurityStore struct {
	pool *Pool
}

// NewSecurityStore creates a new SecurityStore.
func NewSecurityStore(pool *Pool) *SecurityStore {
	return &SecurityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SecurityStore = (*SecurityStore)(nil)

// Insert adds a security. Returns ErrDuplicateKey if the id or symbol exists.
func (s *SecurityStore) Insert(ctx context.Context, sec *domain.Security) error {
	query := `
		INSERT INTO securities (security_id, symbol, asset_class, security_group)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		sec.SecurityID,
		sec.Symbol,
		sec.AssetClass,
		sec.SecurityGroup,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert security: %w", err)
	}
	return nil
}

// GetByID retrieves a security by feed id. Returns ErrNotFound if not exists.
func (s *SecurityStore) GetByID(ctx context.Context, securityID int64) (*domain.Security, error) {
	query := `
		SELECT security_id, symbol, asset_class, security_group
		FROM securities
		WHERE security_id = $1
	`

	sec, err := scanSecurity(s.pool.QueryRow(ctx, query, securityID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get security by id: %w", err)
	}
	return sec, nil
}

// GetBySymbol retrieves a security by symbol. Returns ErrNotFound if not exists.
func (s *SecurityStore) GetBySymbol(ctx context.Context, symbol string) (*domain.Security, error) {
	query := `
		SELECT security_id, symbol, asset_class, security_group
		FROM securities
		WHERE symbol = $1
	`

	sec, err := scanSecurity(s.pool.QueryRow(ctx, query, symbol))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get security by symbol: %w", err)
	}
	return sec, nil
}

func scanSecurity(row pgx.Row) (*domain.Security, error) {
	var sec domain.Security
	err := row.Scan(
		&sec.SecurityID,
		&sec.Symbol,
		&sec.AssetClass,
		&sec.SecurityGroup,
	)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}
