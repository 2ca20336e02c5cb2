// Package verification checks that persisted fills match a fresh
// re-simulation of their opportunity windows.
package verification

import (
	"context"
	"math"

	"spread-sniper-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single fill.
type VerificationResult struct {
	Key             domain.OpportunityKey // verified opportunity
	Match           bool                  // true if all fields match
	Divergences     []FieldDivergence     // list of divergent fields
	StoredNetCash   float64               // net fill cash from the stored fill
	ReplayedNetCash float64               // net fill cash from the replayed fill
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalFills     int                  // total fills verified
	MatchedFills   int                  // fills that matched exactly
	DivergentFills int                  // fills with divergences
	Results        []VerificationResult // individual results
}

// Verifier interface for fill replay verification.
type Verifier interface {
	// VerifyPartition re-simulates every stored fill of one (date, symbol)
	// partition and compares the outcomes field by field.
	VerifyPartition(ctx context.Context, date, symbol string) (*VerificationReport, error)

	// VerifyAll verifies all stored fills across partitions.
	VerifyAll(ctx context.Context) (*VerificationReport, error)
}

// CompareFills compares a stored fill against its replayed counterpart and
// returns divergences. Uses FloatTolerance for float64 comparisons; missing
// prices only match other missing prices.
func CompareFills(stored, replayed *domain.Fill) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.Shot != replayed.Shot {
		divergences = append(divergences, FieldDivergence{
			Field:    "Shot",
			Expected: stored.Shot,
			Actual:   replayed.Shot,
		})
	}

	if !floatEquals(stored.ObservedEdge, replayed.ObservedEdge) {
		divergences = append(divergences, FieldDivergence{
			Field:    "ObservedEdge",
			Expected: stored.ObservedEdge,
			Actual:   replayed.ObservedEdge,
		})
	}

	if !floatEquals(stored.ObservedCash, replayed.ObservedCash) {
		divergences = append(divergences, FieldDivergence{
			Field:    "ObservedCash",
			Expected: stored.ObservedCash,
			Actual:   replayed.ObservedCash,
		})
	}

	if stored.FillSequenceID != replayed.FillSequenceID {
		divergences = append(divergences, FieldDivergence{
			Field:    "FillSequenceID",
			Expected: stored.FillSequenceID,
			Actual:   replayed.FillSequenceID,
		})
	}

	if !floatEquals(stored.FillEdge, replayed.FillEdge) {
		divergences = append(divergences, FieldDivergence{
			Field:    "FillEdge",
			Expected: stored.FillEdge,
			Actual:   replayed.FillEdge,
		})
	}

	if !floatEquals(stored.FillCash, replayed.FillCash) {
		divergences = append(divergences, FieldDivergence{
			Field:    "FillCash",
			Expected: stored.FillCash,
			Actual:   replayed.FillCash,
		})
	}

	if !floatEquals(stored.NetFillCash, replayed.NetFillCash) {
		divergences = append(divergences, FieldDivergence{
			Field:    "NetFillCash",
			Expected: stored.NetFillCash,
			Actual:   replayed.NetFillCash,
		})
	}

	if stored.Side != replayed.Side {
		divergences = append(divergences, FieldDivergence{
			Field:    "Side",
			Expected: stored.Side,
			Actual:   replayed.Side,
		})
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance. NaN encodes
// a missing price, so two NaNs compare equal.
func floatEquals(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return math.Abs(a-b) < FloatTolerance
}
