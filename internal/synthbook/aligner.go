package synthbook

import (
	"fmt"
	"sort"

	"spread-sniper-lab/internal/domain"
)

// LegSeries is one leg's raw observation stream for a date, ordered by
// sequence id ASC.
type LegSeries struct {
	Symbol       string
	Observations []domain.BookObservation
}

// Align merges the legs' independently-timed observation streams into one
// timeline over the union of their sequence ids, forward-filling each leg's
// most recent state. Before a leg's first observation its fields carry the
// missing sentinel, not zero.
//
// Returns ErrMissingData when any leg has zero observations for the date,
// ErrInconsistentQuantity when an observation's price/quantity pair disagrees
// about being missing.
func Align(date string, legs []LegSeries) ([]domain.AlignedBookRow, error) {
	for _, leg := range legs {
		if len(leg.Observations) == 0 {
			return nil, fmt.Errorf("leg %s on %s: %w", leg.Symbol, date, ErrMissingData)
		}
	}

	type taggedObs struct {
		leg int
		obs domain.BookObservation
	}

	total := 0
	for _, leg := range legs {
		total += len(leg.Observations)
	}
	all := make([]taggedObs, 0, total)
	for i, leg := range legs {
		for _, obs := range leg.Observations {
			if err := validateObservation(leg.Symbol, obs); err != nil {
				return nil, err
			}
			all = append(all, taggedObs{leg: i, obs: obs})
		}
	}

	// Sequence ids come from one global counter, so sorting the union by id
	// recovers the channel's event order. Stable keeps intra-leg order for
	// any duplicate ids in defective captures.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].obs.SequenceID < all[j].obs.SequenceID
	})

	state := make([]domain.LegBook, len(legs))
	for i := range state {
		state[i] = domain.LegBook{
			SequenceID: -1,
			BidPrice:   domain.MissingPrice(),
			AskPrice:   domain.MissingPrice(),
		}
	}

	rows := make([]domain.AlignedBookRow, 0, total)
	for _, t := range all {
		obs := t.obs
		state[t.leg] = domain.LegBook{
			SequenceID: obs.SequenceID,
			BidPrice:   obs.BidPrice,
			BidQty:     obs.BidQty,
			AskPrice:   obs.AskPrice,
			AskQty:     obs.AskQty,
		}

		ts := obs.Timestamp
		if n := len(rows); n > 0 && ts < rows[n-1].Timestamp {
			// A lagging leg clock must not break output monotonicity.
			ts = rows[n-1].Timestamp
		}

		if n := len(rows); n > 0 && rows[n-1].SequenceID == obs.SequenceID {
			rows[n-1].Legs = snapshotLegs(state)
			rows[n-1].Timestamp = ts
			continue
		}

		rows = append(rows, domain.AlignedBookRow{
			SequenceID: obs.SequenceID,
			Timestamp:  ts,
			Legs:       snapshotLegs(state),
		})
	}

	return rows, nil
}

func snapshotLegs(state []domain.LegBook) []domain.LegBook {
	legs := make([]domain.LegBook, len(state))
	copy(legs, state)
	return legs
}

// validateObservation rejects observations where one side's price and
// quantity disagree about being missing. The upstream feed normalizes empty
// sides to (missing price, zero quantity); anything else is an alignment bug.
func validateObservation(symbol string, obs domain.BookObservation) error {
	if err := validateSide(obs.BidPrice, obs.BidQty); err != nil {
		return fmt.Errorf("leg %s seq %d bid: %w", symbol, obs.SequenceID, err)
	}
	if err := validateSide(obs.AskPrice, obs.AskQty); err != nil {
		return fmt.Errorf("leg %s seq %d ask: %w", symbol, obs.SequenceID, err)
	}
	return nil
}

func validateSide(price float64, qty int64) error {
	if domain.IsPriceMissing(price) != (qty == 0) {
		return fmt.Errorf("%w (price=%v qty=%d)", ErrInconsistentQuantity, price, qty)
	}
	return nil
}
