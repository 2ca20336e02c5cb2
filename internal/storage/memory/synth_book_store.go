package memory

import (
	"context"
	"fmt"
	"sync"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// SynthBookStore is an in-memory implementation of storage.SynthBookStore.
type SynthBookStore struct {
	mu   sync.RWMutex
	data map[string][]domain.SyntheticBookRow // keyed by (date, symbol)
}

// NewSynthBookStore creates a new in-memory synthetic book store.
func NewSynthBookStore() *SynthBookStore {
	return &SynthBookStore{
		data: make(map[string][]domain.SyntheticBookRow),
	}
}

func partitionKey(date, symbol string) string {
	return fmt.Sprintf("%s|%s", date, symbol)
}

// InsertBulk adds a date/symbol series. Returns ErrDuplicateKey if the
// partition was already built.
func (s *SynthBookStore) InsertBulk(_ context.Context, date, symbol string, rows []domain.SyntheticBookRow) error {
	if date == "" || symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := partitionKey(date, symbol)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	series := make([]domain.SyntheticBookRow, len(rows))
	copy(series, rows)
	s.data[key] = series
	return nil
}

// GetByDateSymbol retrieves a series ordered by sequence id ASC. Returns
// ErrNotFound if the partition was never built.
func (s *SynthBookStore) GetByDateSymbol(_ context.Context, date, symbol string) ([]domain.SyntheticBookRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, exists := s.data[partitionKey(date, symbol)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	result := make([]domain.SyntheticBookRow, len(series))
	copy(result, series)
	return result, nil
}

var _ storage.SynthBookStore = (*SynthBookStore)(nil)
