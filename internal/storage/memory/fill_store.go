package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// FillStore is an in-memory implementation of storage.FillStore.
type FillStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Fill // keyed by opportunity key
}

// NewFillStore creates a new in-memory fill store.
func NewFillStore() *FillStore {
	return &FillStore{
		data: make(map[string]*domain.Fill),
	}
}

func fillKey(k domain.OpportunityKey) string {
	return fmt.Sprintf("%s|%s|%d", k.MarketDate, k.Symbol, k.StartSequenceID)
}

// InsertBulk adds fills. Fails entire batch on duplicate opportunity key.
func (s *FillStore) InsertBulk(_ context.Context, fills []*domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(fills))
	for _, f := range fills {
		if f == nil || f.Key.MarketDate == "" || f.Key.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := fillKey(f.Key)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, f := range fills {
		fCopy := *f
		s.data[fillKey(f.Key)] = &fCopy
	}
	return nil
}

// GetByDateSymbol retrieves fills for a partition, ordered by start sequence
// id ASC.
func (s *FillStore) GetByDateSymbol(_ context.Context, date, symbol string) ([]*domain.Fill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Fill
	for _, f := range s.data {
		if f.Key.MarketDate == date && f.Key.Symbol == symbol {
			fCopy := *f
			result = append(result, &fCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key.StartSequenceID < result[j].Key.StartSequenceID
	})
	return result, nil
}

// GetAll retrieves every fill, ordered by (date, symbol, start id) ASC.
func (s *FillStore) GetAll(_ context.Context) ([]*domain.Fill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Fill, 0, len(s.data))
	for _, f := range s.data {
		fCopy := *f
		result = append(result, &fCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Key, result[j].Key
		if a.MarketDate != b.MarketDate {
			return a.MarketDate < b.MarketDate
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.StartSequenceID < b.StartSequenceID
	})
	return result, nil
}

var _ storage.FillStore = (*FillStore)(nil)
