package synthbook

import (
	"context"
	"fmt"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
)

// Runner builds synthetic book series from captured leg books.
type Runner struct {
	securities storage.SecurityStore
	books      storage.BookStore
	synthBooks storage.SynthBookStore
}

// NewRunner creates a synthetic book runner. synthBooks may be nil when the
// caller only wants the series returned, not persisted.
func NewRunner(securities storage.SecurityStore, books storage.BookStore, synthBooks storage.SynthBookStore) *Runner {
	return &Runner{
		securities: securities,
		books:      books,
		synthBooks: synthBooks,
	}
}

// BuildDate produces one spread's synthetic book series for one date.
// Steps:
//  1. Resolve each leg's security id and load its observations
//  2. Align the legs onto the shared sequence-id timeline
//  3. Price the synthetic top of book and annotate event timing
//  4. Persist the series when a store is configured
func (r *Runner) BuildDate(ctx context.Context, channel int, date string, def domain.SpreadDefinition) ([]domain.SyntheticBookRow, error) {
	legs := make([]LegSeries, 0, def.NumLegs())
	for _, symbol := range def.LegSymbols() {
		sec, err := r.securities.GetBySymbol(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("resolve leg %s: %w", symbol, err)
		}

		obs, err := r.books.GetBySecurity(ctx, channel, date, sec.SecurityID)
		if err != nil {
			return nil, fmt.Errorf("load leg %s books for %s: %w", symbol, date, err)
		}
		legs = append(legs, LegSeries{Symbol: symbol, Observations: obs})
	}

	aligned, err := Align(date, legs)
	if err != nil {
		return nil, err
	}

	events, err := r.books.GetEventInfo(ctx, channel, date)
	if err != nil {
		return nil, fmt.Errorf("load event info for %s: %w", date, err)
	}
	eventsBySeq := make(map[int64]domain.EventInfo, len(events))
	for _, ev := range events {
		eventsBySeq[ev.SequenceID] = ev
	}

	rows, err := Compute(aligned, def, eventsBySeq)
	if err != nil {
		return nil, err
	}

	if r.synthBooks != nil {
		if err := r.synthBooks.InsertBulk(ctx, date, def.Symbol, rows); err != nil {
			return nil, fmt.Errorf("persist synth book %s %s: %w", date, def.Symbol, err)
		}
	}

	return rows, nil
}
