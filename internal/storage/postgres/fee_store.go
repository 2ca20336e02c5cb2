package postgres

import (
	"context"
	"fmt"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// FeeStore implements storage.FeeStore using PostgreSQL.
type FeeStore struct {
	pool *Pool
}

// NewFeeStore creates a new FeeStore.
func NewFeeStore(pool *Pool) *FeeStore {
	return &FeeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FeeStore = (*FeeStore)(nil)

// Insert adds a fee rate. Returns ErrDuplicateKey on a duplicate product
// tuple.
func (s *FeeStore) Insert(ctx context.Context, r domain.FeeRate) error {
	query := `
		INSERT INTO fee_rates (product_type, exchange, venue, security_type, member_type, fee_per_contract)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ProductType,
		r.Exchange,
		r.Venue,
		r.SecurityType,
		string(r.MemberType),
		r.FeePerContract,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert fee rate: %w", err)
	}
	return nil
}

// GetRatesByProduct retrieves every tier's rate for one product type,
// ordered by member type ASC.
func (s *FeeStore) GetRatesByProduct(ctx context.Context, productType string) ([]domain.FeeRate, error) {
	query := `
		SELECT product_type, exchange, venue, security_type, member_type, fee_per_contract
		FROM fee_rates
		WHERE product_type = $1
		ORDER BY member_type ASC
	`

	rows, err := s.pool.Query(ctx, query, productType)
	if err != nil {
		return nil, fmt.Errorf("get fee rates by product: %w", err)
	}
	defer rows.Close()

	var result []domain.FeeRate
	for rows.Next() {
		var r domain.FeeRate
		var memberType string
		if err := rows.Scan(&r.ProductType, &r.Exchange, &r.Venue, &r.SecurityType, &memberType, &r.FeePerContract); err != nil {
			return nil, fmt.Errorf("scan fee rate: %w", err)
		}
		r.MemberType = domain.MemberType(memberType)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee rates: %w", err)
	}
	return result, nil
}
