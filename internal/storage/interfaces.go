package storage

import (
	"context"

	"spread-sniper-lab/internal/domain"
)

// BookStore provides access to captured top-of-book observations for a
// (channel, date) pair. Observations are filtered to READY_TO_TRADE and
// zero-quantity sides are normalized to the missing-price sentinel before
// they leave the store.
type BookStore interface {
	// InsertBulk adds observations for a capture. Fails the entire batch on
	// any duplicate (channel, date, sequence_id, security_id).
	InsertBulk(ctx context.Context, channel int, date string, obs []domain.BookObservation) error

	// GetBySecurity retrieves one security's observations for a date,
	// ordered by sequence id ASC. An empty result is not an error here;
	// the aligner decides whether missing legs are fatal.
	GetBySecurity(ctx context.Context, channel int, date string, securityID int64) ([]domain.BookObservation, error)

	// InsertEventInfo adds per-event sub-packet timing rows for a capture.
	InsertEventInfo(ctx context.Context, channel int, date string, events []domain.EventInfo) error

	// GetEventInfo retrieves the per-event sub-packet timing for a date,
	// ordered by sequence id ASC.
	GetEventInfo(ctx context.Context, channel int, date string) ([]domain.EventInfo, error)
}

// SynthBookStore persists derived synthetic book series per (date, symbol).
type SynthBookStore interface {
	// InsertBulk adds a date/symbol series. Returns ErrDuplicateKey if the
	// partition was already built.
	InsertBulk(ctx context.Context, date, symbol string, rows []domain.SyntheticBookRow) error

	// GetByDateSymbol retrieves a series ordered by sequence id ASC.
	// Returns ErrNotFound if the partition was never built.
	GetByDateSymbol(ctx context.Context, date, symbol string) ([]domain.SyntheticBookRow, error)
}

// SecurityStore provides the security reference data.
type SecurityStore interface {
	// Insert adds a security. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, s *domain.Security) error

	// GetByID retrieves a security by feed id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, securityID int64) (*domain.Security, error)

	// GetBySymbol retrieves a security by symbol. Returns ErrNotFound if absent.
	GetBySymbol(ctx context.Context, symbol string) (*domain.Security, error)
}

// SpreadStore provides synthetic spread definitions.
type SpreadStore interface {
	// Insert adds a synthetic security row. Returns ErrDuplicateKey if the
	// symbol exists.
	Insert(ctx context.Context, s *domain.SyntheticSecurity) error

	// GetBySymbol retrieves one definition row. Returns ErrNotFound if absent.
	GetBySymbol(ctx context.Context, symbol string) (*domain.SyntheticSecurity, error)

	// GetPolygons retrieves every polygon definition, ordered by symbol ASC.
	GetPolygons(ctx context.Context) ([]*domain.SyntheticSecurity, error)
}

// FeeStore provides the exchange fee reference data.
type FeeStore interface {
	// Insert adds a fee rate. Returns ErrDuplicateKey on a duplicate
	// (product_type, exchange, venue, security_type, member_type).
	Insert(ctx context.Context, r domain.FeeRate) error

	// GetRatesByProduct retrieves every tier's rate for one product type,
	// ordered by member type ASC. The caller folds them into a net fee
	// schedule per spread.
	GetRatesByProduct(ctx context.Context, productType string) ([]domain.FeeRate, error)
}

// OpportunityEventStore provides the raw opportunity rows recorded by the
// capture run.
type OpportunityEventStore interface {
	// InsertBulk adds raw opportunity rows. Fails the entire batch on any
	// duplicate (market_date, symbol, event_id).
	InsertBulk(ctx context.Context, events []*domain.OpportunityEvent) error

	// GetByDateSymbol retrieves rows for a partition, ordered by event id ASC.
	GetByDateSymbol(ctx context.Context, date, symbol string) ([]*domain.OpportunityEvent, error)

	// GetAll retrieves every row, ordered by (date, symbol, event id) ASC.
	GetAll(ctx context.Context) ([]*domain.OpportunityEvent, error)

	// GetDates retrieves the distinct market dates present, ordered ASC.
	GetDates(ctx context.Context) ([]string, error)
}

// FillStore persists simulated fill outcomes.
type FillStore interface {
	// InsertBulk adds fills. Fails the entire batch on any duplicate
	// opportunity key.
	InsertBulk(ctx context.Context, fills []*domain.Fill) error

	// GetByDateSymbol retrieves fills for a partition, ordered by start
	// sequence id ASC.
	GetByDateSymbol(ctx context.Context, date, symbol string) ([]*domain.Fill, error)

	// GetAll retrieves every fill, ordered by (date, symbol, start id) ASC.
	GetAll(ctx context.Context) ([]*domain.Fill, error)
}
