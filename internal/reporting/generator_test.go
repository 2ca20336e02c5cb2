package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/storage/memory"
	"spread-sniper-lab/internal/summary"
)

func setupTestData(t *testing.T) (*memory.FillStore, *memory.OpportunityEventStore) {
	t.Helper()
	ctx := context.Background()

	fillStore := memory.NewFillStore()
	eventStore := memory.NewOpportunityEventStore()

	fills := []*domain.Fill{
		{
			Key:  domain.OpportunityKey{MarketDate: "2024-03-11", Symbol: "A-B", StartSequenceID: 100},
			Shot: true, ObservedEdge: 0.5, ObservedCash: 5.0,
			FillSequenceID: 101, FillEdge: 0.5, FillCash: 5.0, NetFillCash: 4.0,
			Side: domain.SideSell,
		},
		{
			Key:  domain.OpportunityKey{MarketDate: "2024-03-11", Symbol: "A-B", StartSequenceID: 200},
			Shot: false, ObservedEdge: 0.1, ObservedCash: 1.0,
			FillSequenceID: 0, FillEdge: domain.MissingPrice(), FillCash: domain.MissingPrice(), NetFillCash: domain.MissingPrice(),
			Side: domain.SideSell,
		},
	}
	if err := fillStore.InsertBulk(ctx, fills); err != nil {
		t.Fatalf("insert fills: %v", err)
	}

	events := []*domain.OpportunityEvent{
		{MarketDate: "2024-03-11", Symbol: "A-B", EventID: 100, LSNWin: 100 * time.Microsecond, FSNWin: 120 * time.Microsecond},
		{MarketDate: "2024-03-11", Symbol: "A-B", EventID: 200, LSNWin: 40 * time.Microsecond, FSNWin: 60 * time.Microsecond},
	}
	if err := eventStore.InsertBulk(ctx, events); err != nil {
		t.Fatalf("insert events: %v", err)
	}

	return fillStore, eventStore
}

func TestGenerator_Generate(t *testing.T) {
	fillStore, eventStore := setupTestData(t)

	fixed := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	gen := NewGenerator(fillStore, eventStore).WithClock(func() time.Time { return fixed })

	report, err := gen.Generate(context.Background(), Options{
		RunID: "test-run",
		Durations: summary.DurationConfig{
			Thresholds: []time.Duration{55 * time.Microsecond},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !report.GeneratedAt.Equal(fixed) {
		t.Errorf("GeneratedAt = %v, want %v", report.GeneratedAt, fixed)
	}
	if report.DataSummary.Fills != 2 || report.DataSummary.Shots != 1 {
		t.Errorf("DataSummary fills/shots = %d/%d, want 2/1",
			report.DataSummary.Fills, report.DataSummary.Shots)
	}

	if len(report.EdgeSummaries) != 1 {
		t.Fatalf("EdgeSummaries = %d, want 1", len(report.EdgeSummaries))
	}
	es := report.EdgeSummaries[0]
	if es.NumShots != 1 || es.NumSkipped != 1 {
		t.Errorf("NumShots/NumSkipped = %d/%d, want 1/1", es.NumShots, es.NumSkipped)
	}

	if len(report.DurationSummaries) != 1 {
		t.Fatalf("DurationSummaries = %d, want 1", len(report.DurationSummaries))
	}
	ds := report.DurationSummaries[0]
	if ds.NumOpps != 2 {
		t.Errorf("NumOpps = %d, want 2", ds.NumOpps)
	}
	// One of two windows exceeds 55us on the lsn clock.
	for _, e := range ds.Exceedances {
		if e.Clock == "lsn_win" && e.Count != 1 {
			t.Errorf("lsn_win exceedances = %d, want 1", e.Count)
		}
	}
}

func TestGenerator_Generate_NoEventStore(t *testing.T) {
	fillStore, _ := setupTestData(t)

	gen := NewGenerator(fillStore, nil)
	report, err := gen.Generate(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(report.DurationSummaries) != 0 {
		t.Errorf("DurationSummaries = %d, want 0 without an event store", len(report.DurationSummaries))
	}
}

func TestRenderMarkdown(t *testing.T) {
	fillStore, eventStore := setupTestData(t)
	gen := NewGenerator(fillStore, eventStore)

	report, err := gen.Generate(context.Background(), Options{
		RunID:       "test-run",
		FailedDates: []string{"2024-03-13"},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Sniper Opportunity Report",
		"Run: test-run",
		"## Edge Summary",
		"| 2024-03-11 | A-B |",
		"## Failed Dates",
		"- 2024-03-13",
		"## Window Durations",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderEdgeCSV(t *testing.T) {
	fillStore, eventStore := setupTestData(t)
	gen := NewGenerator(fillStore, eventStore)

	report, err := gen.Generate(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	csv := RenderEdgeCSV(report)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header plus one row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "market_date,symbol,n_shots") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2024-03-11,A-B,1,1,") {
		t.Errorf("unexpected row: %s", lines[1])
	}
}

func TestRenderDurationCSV(t *testing.T) {
	fillStore, eventStore := setupTestData(t)
	gen := NewGenerator(fillStore, eventStore)

	report, err := gen.Generate(context.Background(), Options{
		Durations: summary.DurationConfig{Quantiles: []float64{0.5}},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	csv := RenderDurationCSV(report)
	if !strings.Contains(csv, "market_date,symbol,n_opps,clock,measure,value") {
		t.Error("missing header")
	}
	if !strings.Contains(csv, "2024-03-11,A-B,2,lsn_win,q50,") {
		t.Errorf("missing lsn_win median row in:\n%s", csv)
	}
}
