package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Sniper Opportunity Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	}

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Dates | %d |\n", r.DataSummary.Dates))
	sb.WriteString(fmt.Sprintf("| Symbols | %d |\n", r.DataSummary.Symbols))
	sb.WriteString(fmt.Sprintf("| Opportunities | %d |\n", r.DataSummary.Opportunities))
	sb.WriteString(fmt.Sprintf("| Fills | %d |\n", r.DataSummary.Fills))
	sb.WriteString(fmt.Sprintf("| Shots | %d |\n", r.DataSummary.Shots))
	sb.WriteString("\n")

	if len(r.FailedDates) > 0 {
		sb.WriteString("## Failed Dates\n\n")
		for _, d := range r.FailedDates {
			sb.WriteString(fmt.Sprintf("- %s\n", d))
		}
		sb.WriteString("\n")
	}

	// Edge Summaries
	sb.WriteString("## Edge Summary\n\n")
	if len(r.EdgeSummaries) > 0 {
		sb.WriteString("| Date | Symbol | Shots | Skipped | Edge Sum | Net Cash Sum |")
		for _, b := range r.EdgeSummaries[0].Boundaries {
			sb.WriteString(fmt.Sprintf(" >=%g |", b))
		}
		sb.WriteString("\n")
		sb.WriteString("|------|--------|-------|---------|----------|--------------|")
		for range r.EdgeSummaries[0].Boundaries {
			sb.WriteString("------|")
		}
		sb.WriteString("\n")
		for _, es := range r.EdgeSummaries {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %.4f | %.4f |",
				es.MarketDate, es.Symbol, es.NumShots, es.NumSkipped, es.FillEdgeSum, es.NetFillCashSum))
			for _, c := range es.BucketCounts {
				sb.WriteString(fmt.Sprintf(" %d |", c))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No edge summaries available.\n")
	}
	sb.WriteString("\n")

	// Window Durations
	sb.WriteString("## Window Durations\n\n")
	if len(r.DurationSummaries) > 0 {
		sb.WriteString("| Date | Symbol | Opps | Clock | Measure | Value |\n")
		sb.WriteString("|------|--------|------|-------|---------|-------|\n")
		for _, ds := range r.DurationSummaries {
			for _, q := range ds.Quantiles {
				sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | q%02.0f | %s |\n",
					ds.MarketDate, ds.Symbol, ds.NumOpps, q.Clock, q.Quantile*100, q.Value))
			}
			for _, e := range ds.Exceedances {
				sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | >%s | %d |\n",
					ds.MarketDate, ds.Symbol, ds.NumOpps, e.Clock, e.Threshold, e.Count))
			}
		}
	} else {
		sb.WriteString("No duration summaries available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
