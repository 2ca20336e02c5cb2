package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// FeeStore is an in-memory implementation of storage.FeeStore.
type FeeStore struct {
	mu   sync.RWMutex
	data map[string]domain.FeeRate // keyed by the full product tuple
}

// NewFeeStore creates a new in-memory fee store.
func NewFeeStore() *FeeStore {
	return &FeeStore{
		data: make(map[string]domain.FeeRate),
	}
}

func feeKey(r domain.FeeRate) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", r.ProductType, r.Exchange, r.Venue, r.SecurityType, r.MemberType)
}

// Insert adds a fee rate. Returns ErrDuplicateKey on a duplicate product
// tuple.
func (s *FeeStore) Insert(_ context.Context, r domain.FeeRate) error {
	if r.ProductType == "" || r.MemberType == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := feeKey(r)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[key] = r
	return nil
}

// GetRatesByProduct retrieves every tier's rate for one product type,
// ordered by member type ASC.
func (s *FeeStore) GetRatesByProduct(_ context.Context, productType string) ([]domain.FeeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.FeeRate
	for _, r := range s.data {
		if r.ProductType == productType {
			result = append(result, r)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].MemberType < result[j].MemberType
	})
	return result, nil
}

var _ storage.FeeStore = (*FeeStore)(nil)
