// Package opportunity slices latency-annotated opportunity windows out of
// synthetic book series.
package opportunity

import (
	"fmt"
	"time"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/lookup"
	"spread-sniper-lab/internal/synthbook"
)

// DefaultDelay bounds how far past the anchor a window extends.
const DefaultDelay = 5000 * time.Microsecond

// MergeConfig configures window construction.
type MergeConfig struct {
	// Delay is the forward lookahead bound from the anchor row. Zero means
	// DefaultDelay.
	Delay time.Duration

	// Tolerance is the absolute edge tolerance used when detecting starts.
	Tolerance float64
}

// Merger builds opportunity windows for (date, symbol) partitions.
type Merger struct {
	delay time.Duration
	tol   float64
}

// NewMerger creates a Merger, applying defaults.
func NewMerger(cfg MergeConfig) *Merger {
	delay := cfg.Delay
	if delay == 0 {
		delay = DefaultDelay
	}
	return &Merger{delay: delay, tol: cfg.Tolerance}
}

// MergeDate detects every opportunity in a partition's synthetic book series
// and builds its window.
func (m *Merger) MergeDate(date, symbol string, rows []domain.SyntheticBookRow) ([]domain.Opportunity, error) {
	starts := synthbook.DetectStarts(rows, m.tol)
	opps := make([]domain.Opportunity, 0, len(starts))
	for _, start := range starts {
		key := domain.OpportunityKey{MarketDate: date, Symbol: symbol, StartSequenceID: start}
		opp, err := m.MergeWindow(rows, key)
		if err != nil {
			return nil, err
		}
		opps = append(opps, opp)
	}
	return opps, nil
}

// MergeEvents builds windows for externally recorded opportunity rows,
// anchoring each at its captured event id.
func (m *Merger) MergeEvents(rows []domain.SyntheticBookRow, events []*domain.OpportunityEvent) ([]domain.Opportunity, error) {
	opps := make([]domain.Opportunity, 0, len(events))
	for _, ev := range events {
		key := domain.OpportunityKey{MarketDate: ev.MarketDate, Symbol: ev.Symbol, StartSequenceID: ev.EventID}
		opp, err := m.MergeWindow(rows, key)
		if err != nil {
			return nil, err
		}
		opps = append(opps, opp)
	}
	return opps, nil
}

// MergeWindow builds one opportunity's annotated window from its partition's
// full series.
//
// The anchor is the row with the greatest sequence id not exceeding the
// opportunity's start id, so a nominal start landing mid-burst anchors on
// the burst's last visible row. The window is every row from the
// anchor whose timestamp falls within [anchorTime, anchorTime+delay], in
// sequence order; the anchor row itself is always included.
//
// Each row's elapsed opportunity time is computed against three clocks: the
// anchor's transact time (OppDur), and the anchor event's first/last
// sub-packet times (OppDurFSN/LSN). The Thru variants extend each through the
// next book change, which tells exactly how long the row's quote persisted
// into the opportunity.
func (m *Merger) MergeWindow(rows []domain.SyntheticBookRow, key domain.OpportunityKey) (domain.Opportunity, error) {
	anchorIdx, err := lookup.AnchorIndex(rows, key.StartSequenceID)
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("opportunity %s/%s seq %d: %w", key.MarketDate, key.Symbol, key.StartSequenceID, err)
	}

	anchor := rows[anchorIdx]
	anchorTime := anchor.Timestamp
	deltaFSN := time.Duration(anchor.FirstSubTime - anchorTime)
	deltaLSN := time.Duration(anchor.LastSubTime - anchorTime)
	stopTime := anchorTime + m.delay.Nanoseconds()

	var out []domain.OpportunityRow
	for i := anchorIdx; i < len(rows) && rows[i].Timestamp <= stopTime; i++ {
		r := rows[i]
		oppDur := time.Duration(r.Timestamp - anchorTime)

		row := domain.OpportunityRow{
			SyntheticBookRow: r,
			OppDur:           oppDur,
			OppDurFSN:        oppDur - deltaFSN,
			OppDurLSN:        oppDur - deltaLSN,
			Side:             domain.SideOf(r.BidPrice, r.AskPrice),
		}
		row.OppDurThru = row.OppDur + r.BookDur
		row.OppDurThruFSN = row.OppDurFSN + r.BookDur
		row.OppDurThruLSN = row.OppDurLSN + r.BookDur
		out = append(out, row)
	}

	return domain.Opportunity{Key: key, Rows: out}, nil
}
