package memory

import (
	"context"
	"sort"
	"sync"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// SpreadStore is an in-memory implementation of storage.SpreadStore.
type SpreadStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SyntheticSecurity // keyed by symbol
}

// NewSpreadStore creates a new in-memory spread store.
func NewSpreadStore() *SpreadStore {
	return &SpreadStore{
		data: make(map[string]*domain.SyntheticSecurity),
	}
}

// Insert adds a synthetic security row. Returns ErrDuplicateKey if the
// symbol exists.
func (s *SpreadStore) Insert(_ context.Context, sec *domain.SyntheticSecurity) error {
	if sec == nil || sec.Symbol == "" || sec.LegSpec == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sec.Symbol]; exists {
		return storage.ErrDuplicateKey
	}
	secCopy := *sec
	s.data[sec.Symbol] = &secCopy
	return nil
}

// GetBySymbol retrieves one definition row. Returns ErrNotFound if absent.
func (s *SpreadStore) GetBySymbol(_ context.Context, symbol string) (*domain.SyntheticSecurity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, exists := s.data[symbol]
	if !exists {
		return nil, storage.ErrNotFound
	}
	secCopy := *sec
	return &secCopy, nil
}

// GetPolygons retrieves every polygon definition, ordered by symbol ASC.
func (s *SpreadStore) GetPolygons(_ context.Context) ([]*domain.SyntheticSecurity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SyntheticSecurity
	for _, sec := range s.data {
		if sec.IsPolygon {
			secCopy := *sec
			result = append(result, &secCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result, nil
}

var _ storage.SpreadStore = (*SpreadStore)(nil)
