package domain

import "time"

// Fill is the outcome of simulating one opportunity under a minimum
// fill-duration constraint. FillEdge is MissingPrice() and FillSequenceID 0
// when no row in the window persisted long enough to be hittable.
type Fill struct {
	Key OpportunityKey

	Shot           bool    // observed cash cleared the shoot threshold
	ObservedEdge   float64 // edge on the first row of the window
	ObservedCash   float64 // ObservedEdge scaled by cash-per-point when configured
	FillSequenceID int64
	FillEdge       float64
	FillCash       float64
	NetFillCash    float64 // FillCash net of the applicable fee
	Side           Side
}

// Filled reports whether a hittable row existed.
func (f Fill) Filled() bool {
	return !IsPriceMissing(f.FillEdge)
}

// PnL is the outcome of the latency-model simulation of one opportunity for
// one lookahead delay: net cash per membership tier after fees.
type PnL struct {
	Key     OpportunityKey
	Delay   time.Duration
	Latency time.Duration

	// Taken is false when the shot row's edge was below the required edge;
	// NetCash then holds zeros (no trade, not a loss).
	Taken          bool
	FillSequenceID int64
	CashEdge       float64
	NetCash        map[MemberType]float64
}
