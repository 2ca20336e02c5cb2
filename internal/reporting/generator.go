// Package reporting renders batch results as CSV and Markdown tables.
package reporting

import (
	"context"
	"time"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage"
	"spread-sniper-lab/internal/summary"
)

// Generator produces reports from stored data.
type Generator struct {
	fillStore  storage.FillStore
	eventStore storage.OpportunityEventStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. eventStore may be nil when no
// capture-run records exist; the duration section is then omitted.
func NewGenerator(fillStore storage.FillStore, eventStore storage.OpportunityEventStore) *Generator {
	return &Generator{
		fillStore:  fillStore,
		eventStore: eventStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Options parameterize report generation.
type Options struct {
	// RunID labels the report; optional.
	RunID string

	// EdgeBoundaries are the bucket boundaries; empty means defaults.
	EdgeBoundaries []float64

	// Durations parameterizes the window-duration section.
	Durations summary.DurationConfig

	// FailedDates lists dates excluded from the aggregates.
	FailedDates []string
}

// Generate builds a report from every stored fill and opportunity record.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Report, error) {
	fills, err := g.fillStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]domain.Fill, len(fills))
	for i, f := range fills {
		values[i] = *f
	}

	aggregator := summary.NewAggregator(summary.AggregatorConfig{EdgeBoundaries: opts.EdgeBoundaries})
	edges := aggregator.Aggregate(values)

	var durations []summary.DurationSummary
	if g.eventStore != nil {
		events, err := g.eventStore.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		evValues := make([]domain.OpportunityEvent, len(events))
		for i, ev := range events {
			evValues[i] = *ev
		}
		durations = summary.SummarizeDurations(evValues, opts.Durations)
	}

	return &Report{
		GeneratedAt:       g.now(),
		RunID:             opts.RunID,
		DataSummary:       buildDataSummary(values, edges),
		EdgeSummaries:     edges,
		DurationSummaries: durations,
		FailedDates:       opts.FailedDates,
	}, nil
}

func buildDataSummary(fills []domain.Fill, edges []summary.EdgeSummary) DataSummary {
	dates := make(map[string]struct{})
	symbols := make(map[string]struct{})
	shots := 0
	for _, f := range fills {
		dates[f.Key.MarketDate] = struct{}{}
		symbols[f.Key.Symbol] = struct{}{}
		if f.Shot {
			shots++
		}
	}

	return DataSummary{
		Dates:         len(dates),
		Symbols:       len(symbols),
		Opportunities: len(fills),
		Fills:         len(fills),
		Shots:         shots,
	}
}
