package summary

import (
	"math"
	"sort"
	"time"

	"spread-sniper-lab/internal/domain"
)

// WindowClock names one duration measure on an opportunity record.
type WindowClock struct {
	Name  string
	Value func(domain.OpportunityEvent) time.Duration
}

// DefaultClocks measures windows from the last and first sub-event times.
var DefaultClocks = []WindowClock{
	{Name: "lsn_win", Value: func(e domain.OpportunityEvent) time.Duration { return e.LSNWin }},
	{Name: "fsn_win", Value: func(e domain.OpportunityEvent) time.Duration { return e.FSNWin }},
}

// DurationQuantile is one quantile of one clock over a group.
type DurationQuantile struct {
	Clock    string
	Quantile float64
	Value    time.Duration
}

// ThresholdCount is the number of opportunities in a group whose clock
// exceeded a threshold.
type ThresholdCount struct {
	Clock     string
	Threshold time.Duration
	Count     int
}

// DurationSummary is one (date, symbol) row of the window-duration report.
// Exactly one of Quantiles and Exceedances is populated, depending on
// whether thresholds were configured.
type DurationSummary struct {
	MarketDate string
	Symbol     string
	NumOpps    int

	Quantiles   []DurationQuantile
	Exceedances []ThresholdCount
}

// DurationConfig parameterizes the window-duration report.
type DurationConfig struct {
	// Quantiles to report per clock. Empty means deciles 0.1 through 0.9.
	Quantiles []float64

	// Thresholds, when non-empty, switch the report from quantiles to
	// exceedance counts per clock.
	Thresholds []time.Duration

	// Clocks to measure. Empty means DefaultClocks.
	Clocks []WindowClock
}

// SummarizeDurations groups opportunity records by (market date, symbol) and
// reports how long their windows lasted, ordered by date then symbol.
func SummarizeDurations(events []domain.OpportunityEvent, cfg DurationConfig) []DurationSummary {
	if len(cfg.Quantiles) == 0 {
		cfg.Quantiles = make([]float64, 9)
		for i := range cfg.Quantiles {
			cfg.Quantiles[i] = 0.1 * float64(i+1)
		}
	}
	if len(cfg.Clocks) == 0 {
		cfg.Clocks = DefaultClocks
	}

	type groupKey struct {
		date   string
		symbol string
	}
	groups := make(map[groupKey][]domain.OpportunityEvent)
	for _, e := range events {
		k := groupKey{date: e.MarketDate, symbol: e.Symbol}
		groups[k] = append(groups[k], e)
	}
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].symbol < keys[j].symbol
	})

	out := make([]DurationSummary, 0, len(keys))
	for _, k := range keys {
		group := groups[k]
		s := DurationSummary{MarketDate: k.date, Symbol: k.symbol, NumOpps: len(group)}
		if len(cfg.Thresholds) > 0 {
			for _, thresh := range cfg.Thresholds {
				for _, clock := range cfg.Clocks {
					n := 0
					for _, e := range group {
						if clock.Value(e) > thresh {
							n++
						}
					}
					s.Exceedances = append(s.Exceedances, ThresholdCount{
						Clock:     clock.Name,
						Threshold: thresh,
						Count:     n,
					})
				}
			}
		} else {
			sortedByClock := make([][]time.Duration, len(cfg.Clocks))
			for i, clock := range cfg.Clocks {
				durs := make([]time.Duration, len(group))
				for j, e := range group {
					durs[j] = clock.Value(e)
				}
				sort.Slice(durs, func(a, b int) bool { return durs[a] < durs[b] })
				sortedByClock[i] = durs
			}
			for _, q := range cfg.Quantiles {
				for i, clock := range cfg.Clocks {
					s.Quantiles = append(s.Quantiles, DurationQuantile{
						Clock:    clock.Name,
						Quantile: q,
						Value:    quantile(sortedByClock[i], q),
					})
				}
			}
		}
		out = append(out, s)
	}
	return out
}

// quantile computes the q-th quantile of an already sorted slice with
// linear interpolation between order statistics.
func quantile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo, hi = 0, 0
	}
	if hi >= len(sorted) {
		lo, hi = len(sorted)-1, len(sorted)-1
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + time.Duration(frac*float64(sorted[hi]-sorted[lo]))
}
