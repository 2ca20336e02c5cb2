// Package fill simulates trade executions against opportunity windows under
// latency and quote-persistence assumptions.
package fill

import (
	"errors"
	"fmt"
	"time"

	"spread-sniper-lab/internal/domain"
)

// Defaults applied by NewSimulator.
const (
	// DefaultMinFillDuration is the minimum time a quote must persist before
	// it counts as hittable.
	DefaultMinFillDuration = 55 * time.Microsecond
)

// Simulation errors.
var (
	// ErrEmptyWindow is returned for an opportunity with no rows. Windows
	// always carry at least their anchor row, so this indicates corrupt input.
	ErrEmptyWindow = errors.New("opportunity window has no rows")

	// ErrNoFeeRate is returned when the configured membership tier is absent
	// from the fee schedule.
	ErrNoFeeRate = errors.New("no fee rate for member type")

	// ErrUnreachableFill is returned when the window ends before the
	// requested latency elapses. The lookahead delay was too short for the
	// latency; this must stay distinguishable from a genuine no-fill.
	ErrUnreachableFill = errors.New("opportunity window ended before the requested latency elapsed")
)

// ShotBasis selects which row's required-cash threshold the observed cash is
// compared against when deciding whether a shot would have been taken. The
// reference analysis evaluated the observed row; both readings are supported
// because the fee column can in principle vary across the window.
type ShotBasis int

const (
	ShotBasisObserved ShotBasis = iota
	ShotBasisFill
)

// SimulatorConfig enumerates every recognized fill-pick option.
type SimulatorConfig struct {
	// MinFillDuration is the persistence threshold for hittable rows. Zero
	// means DefaultMinFillDuration; negative means no threshold.
	MinFillDuration time.Duration

	// CashPerPoint converts edge units into currency. Zero leaves values in
	// raw edge units.
	CashPerPoint float64

	// MemberType selects the fee tier for net cash. Empty means non-member.
	MemberType domain.MemberType

	// RequiredCash overrides the shoot threshold for a given row. Nil means
	// the net fee for MemberType regardless of row (shoot only when the
	// observed cash clears the fee).
	RequiredCash func(domain.OpportunityRow) float64

	// ShotBasis selects the row whose threshold gates the shot.
	ShotBasis ShotBasis

	// Clock selects the persistence column compared against
	// MinFillDuration. Nil means OppDurThruLSN: elapsed time measured from
	// when the anchor update finished hitting the wire.
	Clock func(domain.OpportunityRow) time.Duration
}

// Simulator picks realizable fills for opportunity windows under one fee
// schedule.
type Simulator struct {
	cfg  SimulatorConfig
	fees domain.FeeSchedule
}

// NewSimulator creates a Simulator, applying defaults.
func NewSimulator(cfg SimulatorConfig, fees domain.FeeSchedule) *Simulator {
	if cfg.MinFillDuration == 0 {
		cfg.MinFillDuration = DefaultMinFillDuration
	}
	if cfg.MemberType == "" {
		cfg.MemberType = domain.MemberTypeNonMember
	}
	if cfg.Clock == nil {
		cfg.Clock = func(r domain.OpportunityRow) time.Duration { return r.OppDurThruLSN }
	}
	return &Simulator{cfg: cfg, fees: fees}
}

// Simulate determines whether and at what edge one opportunity fills.
//
// The observed state is the window's first row. Candidate fill rows are
// those whose quote persisted at least MinFillDuration; the fill is the
// candidate with the greatest defined edge, first occurrence winning ties.
// With no candidate the result carries the window's last row, Shot=false and
// a missing fill edge. Shot is true when the observed cash is defined and
// clears the required-cash threshold of the basis row.
func (s *Simulator) Simulate(opp domain.Opportunity) (domain.Fill, error) {
	if len(opp.Rows) == 0 {
		return domain.Fill{}, fmt.Errorf("%s/%s seq %d: %w", opp.Key.MarketDate, opp.Key.Symbol, opp.Key.StartSequenceID, ErrEmptyWindow)
	}

	fee, ok := s.fees.NetFee(s.cfg.MemberType)
	if !ok {
		return domain.Fill{}, fmt.Errorf("%s tier %s: %w", opp.Key.Symbol, s.cfg.MemberType, ErrNoFeeRate)
	}

	observed := opp.Rows[0]
	observedCash := s.toCash(observed.Edge)

	fillIdx := -1
	for i, row := range opp.Rows {
		if s.cfg.Clock(row) < s.cfg.MinFillDuration {
			continue
		}
		if domain.IsPriceMissing(row.Edge) {
			continue
		}
		if fillIdx < 0 || row.Edge > opp.Rows[fillIdx].Edge {
			fillIdx = i
		}
	}

	result := domain.Fill{
		Key:          opp.Key,
		ObservedEdge: observed.Edge,
		ObservedCash: observedCash,
	}

	if fillIdx < 0 {
		last := opp.Rows[len(opp.Rows)-1]
		result.Shot = false
		result.FillSequenceID = 0
		result.FillEdge = domain.MissingPrice()
		result.FillCash = domain.MissingPrice()
		result.NetFillCash = domain.MissingPrice()
		result.Side = last.Side
		return result, nil
	}

	fillRow := opp.Rows[fillIdx]
	basis := observed
	if s.cfg.ShotBasis == ShotBasisFill {
		basis = fillRow
	}

	result.Shot = !domain.IsPriceMissing(observedCash) && observedCash > s.requiredCash(basis, fee)
	result.FillSequenceID = fillRow.SequenceID
	result.FillEdge = fillRow.Edge
	result.FillCash = s.toCash(fillRow.Edge)
	result.NetFillCash = result.FillCash - fee
	result.Side = fillRow.Side
	return result, nil
}

func (s *Simulator) toCash(edge float64) float64 {
	if s.cfg.CashPerPoint != 0 {
		return edge * s.cfg.CashPerPoint
	}
	return edge
}

func (s *Simulator) requiredCash(row domain.OpportunityRow, fee float64) float64 {
	if s.cfg.RequiredCash != nil {
		return s.cfg.RequiredCash(row)
	}
	return fee
}
