package reporting

import (
	"time"

	"spread-sniper-lab/internal/summary"
)

// Report is the rendered output of one analysis batch.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	// Data Summary
	DataSummary DataSummary

	// Edge summaries, sorted by (market_date, symbol)
	EdgeSummaries []summary.EdgeSummary

	// Window duration summaries, sorted by (market_date, symbol)
	DurationSummaries []summary.DurationSummary

	// FailedDates lists dates excluded from the aggregates.
	FailedDates []string
}

// DataSummary describes the batch's input and output volume.
type DataSummary struct {
	Dates         int
	Symbols       int
	Opportunities int
	Fills         int
	Shots         int
}
