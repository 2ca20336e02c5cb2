// Package memory provides in-memory store implementations for unit tests
// and fixture pipelines.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

type storedObs struct {
	channel int
	date    string
	obs     domain.BookObservation
}

type storedEvent struct {
	channel int
	date    string
	event   domain.EventInfo
}

// BookStore is an in-memory implementation of storage.BookStore.
type BookStore struct {
	mu     sync.RWMutex
	obs    map[string]storedObs   // keyed by (channel, date, sequence_id, security_id)
	events map[string]storedEvent // keyed by (channel, date, sequence_id)
}

// NewBookStore creates a new in-memory book store.
func NewBookStore() *BookStore {
	return &BookStore{
		obs:    make(map[string]storedObs),
		events: make(map[string]storedEvent),
	}
}

func obsKey(channel int, date string, seq, securityID int64) string {
	return fmt.Sprintf("%d|%s|%d|%d", channel, date, seq, securityID)
}

func eventKey(channel int, date string, seq int64) string {
	return fmt.Sprintf("%d|%s|%d", channel, date, seq)
}

// InsertBulk adds observations for a capture. Fails entire batch on duplicate.
func (s *BookStore) InsertBulk(_ context.Context, channel int, date string, obs []domain.BookObservation) error {
	if date == "" {
		return storage.ErrInvalidInput
	}
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(obs))
	for _, o := range obs {
		key := obsKey(channel, date, o.SequenceID, o.SecurityID)
		if _, exists := s.obs[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, o := range obs {
		s.obs[obsKey(channel, date, o.SequenceID, o.SecurityID)] = storedObs{channel: channel, date: date, obs: o}
	}
	return nil
}

// GetBySecurity retrieves one security's observations for a date, ordered by
// sequence id ASC. An empty result is not an error.
func (s *BookStore) GetBySecurity(_ context.Context, channel int, date string, securityID int64) ([]domain.BookObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.BookObservation
	for _, rec := range s.obs {
		if rec.channel == channel && rec.date == date && rec.obs.SecurityID == securityID {
			result = append(result, rec.obs)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SequenceID < result[j].SequenceID
	})
	return result, nil
}

// InsertEventInfo adds per-event sub-packet timing rows for a capture.
func (s *BookStore) InsertEventInfo(_ context.Context, channel int, date string, events []domain.EventInfo) error {
	if date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		if _, exists := s.events[eventKey(channel, date, ev.SequenceID)]; exists {
			return storage.ErrDuplicateKey
		}
	}
	for _, ev := range events {
		s.events[eventKey(channel, date, ev.SequenceID)] = storedEvent{channel: channel, date: date, event: ev}
	}
	return nil
}

// GetEventInfo retrieves the per-event timing for a date, ordered by
// sequence id ASC.
func (s *BookStore) GetEventInfo(_ context.Context, channel int, date string) ([]domain.EventInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.EventInfo
	for _, rec := range s.events {
		if rec.channel == channel && rec.date == date {
			result = append(result, rec.event)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SequenceID < result[j].SequenceID
	})
	return result, nil
}

var _ storage.BookStore = (*BookStore)(nil)
