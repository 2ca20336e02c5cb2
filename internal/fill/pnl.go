package fill

import (
	"fmt"
	"time"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/lookup"
)

// DefaultLatency is the round-trip time assumed between deciding to shoot
// and the order reaching the book.
const DefaultLatency = 50 * time.Microsecond

// PnLConfig parameterizes the latency model.
type PnLConfig struct {
	// RequiredEdge is the minimum edge at the shot row for the trade to be
	// taken. Rows below it produce a zero-P&L result rather than no result.
	RequiredEdge float64

	// Delays is the grid of decision delays to evaluate, each measured from
	// the window anchor. Empty means a single zero delay.
	Delays []time.Duration

	// Latency is the shot-to-fill latency. Zero means DefaultLatency.
	Latency time.Duration

	// CashPerPoint converts edge units into currency. Zero leaves values in
	// raw edge units.
	CashPerPoint float64

	// Clock selects the persistence column used to place shot and fill
	// rows. Nil means OppDurThru.
	Clock func(domain.OpportunityRow) time.Duration
}

// PnLModel evaluates realized P&L for opportunity windows across a grid of
// decision delays under one fee schedule.
type PnLModel struct {
	cfg  PnLConfig
	fees domain.FeeSchedule
}

// NewPnLModel creates a PnLModel, applying defaults.
func NewPnLModel(cfg PnLConfig, fees domain.FeeSchedule) *PnLModel {
	if cfg.Latency == 0 {
		cfg.Latency = DefaultLatency
	}
	if len(cfg.Delays) == 0 {
		cfg.Delays = []time.Duration{0}
	}
	if cfg.Clock == nil {
		cfg.Clock = func(r domain.OpportunityRow) time.Duration { return r.OppDurThru }
	}
	return &PnLModel{cfg: cfg, fees: fees}
}

// Evaluate runs the latency model for one opportunity, producing one result
// per configured delay.
//
// The shot row is the first row persisting through the delay; windows too
// short for the delay are skipped wholesale and produce no results. A shot
// row below the required edge yields a not-taken result with zero cash. The
// fill row is the first row at or after the shot row persisting through
// delay+latency; if the window ends first, the model cannot price the trade
// and Evaluate fails with ErrUnreachableFill.
func (m *PnLModel) Evaluate(opp domain.Opportunity) ([]domain.PnL, error) {
	if len(opp.Rows) == 0 {
		return nil, fmt.Errorf("%s/%s seq %d: %w", opp.Key.MarketDate, opp.Key.Symbol, opp.Key.StartSequenceID, ErrEmptyWindow)
	}

	results := make([]domain.PnL, 0, len(m.cfg.Delays))
	for _, delay := range m.cfg.Delays {
		shotIdx := lookup.FirstThruAtOrAfter(opp.Rows, 0, delay, m.cfg.Clock)
		shotRow := opp.Rows[shotIdx]
		if m.cfg.Clock(shotRow) < delay {
			// Window shorter than the delay: nothing was quotable by
			// decision time for any remaining delay either.
			return nil, nil
		}

		if domain.IsPriceMissing(shotRow.Edge) || shotRow.Edge < m.cfg.RequiredEdge {
			results = append(results, domain.PnL{
				Key:     opp.Key,
				Delay:   delay,
				Latency: m.cfg.Latency,
				Taken:   false,
				NetCash: m.zeroCash(),
			})
			continue
		}

		horizon := delay + m.cfg.Latency
		fillIdx := lookup.FirstThruAtOrAfter(opp.Rows, shotIdx, horizon, m.cfg.Clock)
		fillRow := opp.Rows[fillIdx]
		if m.cfg.Clock(fillRow) < horizon {
			return nil, fmt.Errorf("%s/%s seq %d delay %s: %w",
				opp.Key.MarketDate, opp.Key.Symbol, opp.Key.StartSequenceID, delay, ErrUnreachableFill)
		}

		cashEdge := fillRow.Edge
		if m.cfg.CashPerPoint != 0 {
			cashEdge *= m.cfg.CashPerPoint
		}
		results = append(results, domain.PnL{
			Key:            opp.Key,
			Delay:          delay,
			Latency:        m.cfg.Latency,
			Taken:          true,
			FillSequenceID: fillRow.SequenceID,
			CashEdge:       cashEdge,
			NetCash:        m.netCash(cashEdge),
		})
	}
	return results, nil
}

func (m *PnLModel) zeroCash() map[domain.MemberType]float64 {
	out := make(map[domain.MemberType]float64, len(m.fees.Net))
	for tier := range m.fees.Net {
		out[tier] = 0
	}
	return out
}

func (m *PnLModel) netCash(cashEdge float64) map[domain.MemberType]float64 {
	out := make(map[domain.MemberType]float64, len(m.fees.Net))
	for tier, fee := range m.fees.Net {
		out[tier] = cashEdge - fee
	}
	return out
}
