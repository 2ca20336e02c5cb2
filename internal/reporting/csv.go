package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderEdgeCSV renders edge summaries as a CSV string. Bucket columns are
// named by their lower boundary; every row shares the report's boundary set.
func RenderEdgeCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("market_date,symbol,n_shots,n_skipped,fill_edge_sum,net_fill_cash_sum")
	if len(r.EdgeSummaries) > 0 {
		for _, b := range r.EdgeSummaries[0].Boundaries {
			sb.WriteString(fmt.Sprintf(",bucket_%g", b))
		}
	}
	sb.WriteString("\n")

	for _, es := range r.EdgeSummaries {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%.6f,%.6f",
			es.MarketDate,
			es.Symbol,
			es.NumShots,
			es.NumSkipped,
			es.FillEdgeSum,
			es.NetFillCashSum,
		))
		for _, c := range es.BucketCounts {
			sb.WriteString(fmt.Sprintf(",%d", c))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderDurationCSV renders window duration summaries as a CSV string. One
// row per (date, symbol, clock, measure).
func RenderDurationCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("market_date,symbol,n_opps,clock,measure,value\n")

	for _, ds := range r.DurationSummaries {
		for _, q := range ds.Quantiles {
			sb.WriteString(fmt.Sprintf("%s,%s,%d,%s,q%02.0f,%s\n",
				ds.MarketDate, ds.Symbol, ds.NumOpps, q.Clock, q.Quantile*100, formatDur(q.Value)))
		}
		for _, e := range ds.Exceedances {
			sb.WriteString(fmt.Sprintf("%s,%s,%d,%s,gt_%s,%d\n",
				ds.MarketDate, ds.Symbol, ds.NumOpps, e.Clock, formatDur(e.Threshold), e.Count))
		}
	}

	return sb.String()
}

func formatDur(d time.Duration) string {
	return d.String()
}
