// Package summary aggregates simulated fills and opportunity windows into
// per-partition report tables.
package summary

import (
	"sort"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/lookup"
)

// DefaultEdgeBoundaries is the standard edge bucket grid, in edge units.
var DefaultEdgeBoundaries = []float64{-0.50, -0.25, 0.0, 0.25, 0.50, 1.00}

// EdgeSummary is one (date, symbol) row of the edge report: how many shots
// filled in each edge bucket, plus shot/skip counts and cash totals.
type EdgeSummary struct {
	MarketDate string
	Symbol     string

	// BucketCounts[i] is the number of shots whose fill edge landed in the
	// bucket owned by Boundaries[i]. Fills below the lowest boundary are
	// clamped into the first bucket.
	Boundaries   []float64
	BucketCounts []int

	NumShots   int
	NumSkipped int

	// Sums over shots only. Skipped opportunities contribute nothing.
	FillEdgeSum    float64
	NetFillCashSum float64
}

// AggregatorConfig parameterizes the edge report.
type AggregatorConfig struct {
	// EdgeBoundaries are the bucket boundaries; they are copied and sorted.
	// Empty means DefaultEdgeBoundaries.
	EdgeBoundaries []float64
}

// Aggregator buckets simulated fills into an edge report.
type Aggregator struct {
	boundaries []float64
}

// NewAggregator creates an Aggregator, applying defaults.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	src := cfg.EdgeBoundaries
	if len(src) == 0 {
		src = DefaultEdgeBoundaries
	}
	boundaries := make([]float64, len(src))
	copy(boundaries, src)
	sort.Float64s(boundaries)
	return &Aggregator{boundaries: boundaries}
}

// Aggregate groups fills by (market date, symbol) and produces one summary
// row per group, ordered by date then symbol.
//
// Only shots enter the buckets and the cash sums; every fill still counts
// toward NumShots+NumSkipped, so the two always total the group size.
func (a *Aggregator) Aggregate(fills []domain.Fill) []EdgeSummary {
	type groupKey struct {
		date   string
		symbol string
	}
	groups := make(map[groupKey][]domain.Fill)
	for _, f := range fills {
		k := groupKey{date: f.Key.MarketDate, symbol: f.Key.Symbol}
		groups[k] = append(groups[k], f)
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

	out := make([]EdgeSummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, a.summarize(k.date, k.symbol, groups[k]))
	}
	return out
}

func (a *Aggregator) summarize(date, symbol string, fills []domain.Fill) EdgeSummary {
	s := EdgeSummary{
		MarketDate:   date,
		Symbol:       symbol,
		Boundaries:   a.boundaries,
		BucketCounts: make([]int, len(a.boundaries)),
	}
	for _, f := range fills {
		if !f.Shot {
			s.NumSkipped++
			continue
		}
		s.NumShots++
		s.FillEdgeSum += f.FillEdge
		s.NetFillCashSum += f.NetFillCash
		s.BucketCounts[lookup.BucketIndex(a.boundaries, f.FillEdge)]++
	}
	return s
}
