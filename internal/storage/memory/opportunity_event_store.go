package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// OpportunityEventStore is an in-memory implementation of
// storage.OpportunityEventStore.
type OpportunityEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.OpportunityEvent // keyed by (market_date, symbol, event_id)
}

// NewOpportunityEventStore creates a new in-memory opportunity event store.
func NewOpportunityEventStore() *OpportunityEventStore {
	return &OpportunityEventStore{
		data: make(map[string]*domain.OpportunityEvent),
	}
}

func oppEventKey(date, symbol string, eventID int64) string {
	return fmt.Sprintf("%s|%s|%d", date, symbol, eventID)
}

// InsertBulk adds raw opportunity rows. Fails entire batch on duplicate.
func (s *OpportunityEventStore) InsertBulk(_ context.Context, events []*domain.OpportunityEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev == nil || ev.MarketDate == "" || ev.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := oppEventKey(ev.MarketDate, ev.Symbol, ev.EventID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, ev := range events {
		evCopy := *ev
		s.data[oppEventKey(ev.MarketDate, ev.Symbol, ev.EventID)] = &evCopy
	}
	return nil
}

// GetByDateSymbol retrieves rows for a partition, ordered by event id ASC.
func (s *OpportunityEventStore) GetByDateSymbol(_ context.Context, date, symbol string) ([]*domain.OpportunityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OpportunityEvent
	for _, ev := range s.data {
		if ev.MarketDate == date && ev.Symbol == symbol {
			evCopy := *ev
			result = append(result, &evCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EventID < result[j].EventID
	})
	return result, nil
}

// GetAll retrieves every row, ordered by (date, symbol, event id) ASC.
func (s *OpportunityEventStore) GetAll(_ context.Context) ([]*domain.OpportunityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.OpportunityEvent, 0, len(s.data))
	for _, ev := range s.data {
		evCopy := *ev
		result = append(result, &evCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.MarketDate != b.MarketDate {
			return a.MarketDate < b.MarketDate
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.EventID < b.EventID
	})
	return result, nil
}

// GetDates retrieves the distinct market dates present, ordered ASC.
func (s *OpportunityEventStore) GetDates(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, ev := range s.data {
		seen[ev.MarketDate] = struct{}{}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

var _ storage.OpportunityEventStore = (*OpportunityEventStore)(nil)
