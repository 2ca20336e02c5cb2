package memory

import (
	"context"
	"sync"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// SecurityStore is an in-memory implementation of storage.SecurityStore.
type SecurityStore struct {
	mu       sync.RWMutex
	byID     map[int64]*domain.Security
	bySymbol map[string]*domain.Security
}

// NewSecurityStore creates a new in-memory security store.
func NewSecurityStore() *SecurityStore {
	return &SecurityStore{
		byID:     make(map[int64]*domain.Security),
		bySymbol: make(map[string]*domain.Security),
	}
}

// Insert adds a security. Returns ErrDuplicateKey if the id or symbol exists.
func (s *SecurityStore) Insert(_ context.Context, sec *domain.Security) error {
	if sec == nil || sec.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[sec.SecurityID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.bySymbol[sec.Symbol]; exists {
		return storage.ErrDuplicateKey
	}

	secCopy := *sec
	s.byID[sec.SecurityID] = &secCopy
	s.bySymbol[sec.Symbol] = &secCopy
	return nil
}

// GetByID retrieves a security by feed id. Returns ErrNotFound if absent.
func (s *SecurityStore) GetByID(_ context.Context, securityID int64) (*domain.Security, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, exists := s.byID[securityID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	secCopy := *sec
	return &secCopy, nil
}

// GetBySymbol retrieves a security by symbol. Returns ErrNotFound if absent.
func (s *SecurityStore) GetBySymbol(_ context.Context, symbol string) (*domain.Security, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, exists := s.bySymbol[symbol]
	if !exists {
		return nil, storage.ErrNotFound
	}
	secCopy := *sec
	return &secCopy, nil
}

var _ storage.SecurityStore = (*SecurityStore)(nil)
