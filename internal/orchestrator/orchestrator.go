// Package orchestrator coordinates the per-date analysis pipeline.
// Flow per date: synthetic book → opportunity windows → fill pick →
// latency P&L, then summary aggregation over the joined results.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"spread-sniper-lab/internal/config"
	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/fill"
	"spread-sniper-lab/internal/observability"
	"spread-sniper-lab/internal/opportunity"
	"spread-sniper-lab/internal/spread"
	"spread-sniper-lab/internal/storage"
	"spread-sniper-lab/internal/summary"
	"spread-sniper-lab/internal/synthbook"
)

// Orchestrator runs the analysis batch over the configured dates and spreads.
type Orchestrator struct {
	securities storage.SecurityStore
	spreads    storage.SpreadStore
	books      storage.BookStore
	synthBooks storage.SynthBookStore
	fees       storage.FeeStore
	fills      storage.FillStore

	cfg     *config.Config
	logger  zerolog.Logger
	metrics *observability.Metrics
	runID   uuid.UUID
}

// Options for creating an Orchestrator.
type Options struct {
	SecurityStore  storage.SecurityStore
	SpreadStore    storage.SpreadStore
	BookStore      storage.BookStore
	SynthBookStore storage.SynthBookStore
	FeeStore       storage.FeeStore

	// FillStore is optional; when nil, simulated fills are not persisted.
	FillStore storage.FillStore

	Config *config.Config
	Logger zerolog.Logger

	// Metrics is optional; nil disables instrumentation.
	Metrics *observability.Metrics
}

// New creates a new Orchestrator with a fresh run id.
func New(opts Options) *Orchestrator {
	runID := uuid.New()
	return &Orchestrator{
		securities: opts.SecurityStore,
		spreads:    opts.SpreadStore,
		books:      opts.BookStore,
		synthBooks: opts.SynthBookStore,
		fees:       opts.FeeStore,
		fills:      opts.FillStore,
		cfg:        opts.Config,
		logger:     opts.Logger.With().Str("run_id", runID.String()).Logger(),
		metrics:    opts.Metrics,
		runID:      runID,
	}
}

// RunResult is the joined output of one batch.
type RunResult struct {
	RunID uuid.UUID

	Opportunities int
	Fills         []domain.Fill
	PnLs          []domain.PnL

	EdgeSummaries []summary.EdgeSummary

	// FailedDates lists dates whose pipeline failed; their partitions are
	// absent from the aggregates. Errors carries the matching messages.
	FailedDates []string
	Errors      []string
}

// dateResult is one worker's output for one date.
type dateResult struct {
	date          string
	opportunities int
	fills         []domain.Fill
	pnls          []domain.PnL
	err           error
}

// Run executes the batch: resolve spreads and fees, process every date,
// join at the barrier, then aggregate. A failed date is logged and skipped;
// only a failure that leaves no date standing is fatal.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{RunID: o.runID}

	targets, err := o.resolveSpreads(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve spreads: %w", err)
	}
	o.logger.Info().Int("spreads", len(targets)).Int("dates", len(o.cfg.Dates)).Msg("batch starting")

	results := o.processDates(ctx, targets)

	for _, dr := range results {
		if dr.err != nil {
			o.logger.Error().Str("date", dr.date).Err(dr.err).Msg("date failed, skipping")
			result.FailedDates = append(result.FailedDates, dr.date)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", dr.date, dr.err))
			if o.metrics != nil {
				o.metrics.DatesProcessed.WithLabelValues("failed").Inc()
			}
			continue
		}
		if o.metrics != nil {
			o.metrics.DatesProcessed.WithLabelValues("ok").Inc()
		}
		result.Opportunities += dr.opportunities
		result.Fills = append(result.Fills, dr.fills...)
		result.PnLs = append(result.PnLs, dr.pnls...)
	}
	if len(o.cfg.Dates) > 0 && len(result.FailedDates) == len(o.cfg.Dates) {
		return nil, fmt.Errorf("every date failed: %s", result.Errors[0])
	}

	aggregator := summary.NewAggregator(summary.AggregatorConfig{EdgeBoundaries: o.cfg.EdgeBoundaries})
	result.EdgeSummaries = aggregator.Aggregate(result.Fills)

	if o.metrics != nil {
		o.metrics.BatchDuration.Observe(time.Since(started).Seconds())
	}
	o.logger.Info().
		Int("opportunities", result.Opportunities).
		Int("fills", len(result.Fills)).
		Int("failed_dates", len(result.FailedDates)).
		Dur("elapsed", time.Since(started)).
		Msg("batch complete")

	return result, nil
}

// target is one spread resolved to its definition and fee schedule.
type target struct {
	def  domain.SpreadDefinition
	fees domain.FeeSchedule
}

func (o *Orchestrator) resolveSpreads(ctx context.Context) ([]target, error) {
	var rows []*domain.SyntheticSecurity
	if len(o.cfg.Symbols) > 0 {
		for _, symbol := range o.cfg.Symbols {
			row, err := o.spreads.GetBySymbol(ctx, symbol)
			if err != nil {
				return nil, fmt.Errorf("spread %s: %w", symbol, err)
			}
			rows = append(rows, row)
		}
	} else {
		polygons, err := o.spreads.GetPolygons(ctx)
		if err != nil {
			return nil, err
		}
		rows = polygons
	}

	rates, err := o.fees.GetRatesByProduct(ctx, o.cfg.ProductType)
	if err != nil {
		return nil, fmt.Errorf("fee rates for %s: %w", o.cfg.ProductType, err)
	}

	targets := make([]target, 0, len(rows))
	for _, row := range rows {
		def, err := spread.Parse(row.Symbol, row.LegSpec)
		if err != nil {
			return nil, fmt.Errorf("parse spread %s: %w", row.Symbol, err)
		}
		targets = append(targets, target{def: def, fees: domain.BuildFeeSchedule(def, rates)})
	}
	return targets, nil
}

// processDates fans the date list out over the worker pool and joins the
// per-date results at the barrier, in input date order. Small batches run
// sequentially; parallelism never pays for itself under the threshold.
func (o *Orchestrator) processDates(ctx context.Context, targets []target) []dateResult {
	dates := o.cfg.Dates
	results := make([]dateResult, len(dates))

	chunks := partition(dates, o.cfg.Workers)
	if len(chunks) == 1 {
		for i, date := range dates {
			results[i] = o.processDate(ctx, date, targets)
		}
		return results
	}

	g, ctx := errgroup.WithContext(ctx)
	offset := 0
	for _, chunk := range chunks {
		chunk := chunk
		base := offset
		offset += len(chunk)
		g.Go(func() error {
			for i, date := range chunk {
				results[base+i] = o.processDate(ctx, date, targets)
			}
			return nil
		})
	}
	// Workers never return errors; per-date failures ride in the results.
	_ = g.Wait()
	return results
}

// partition splits dates into worker chunks. Below the parallel threshold
// everything lands in a single chunk; otherwise chunks hold at least
// MinChunk dates so no worker spins up for a trivial slice.
func partition(dates []string, w config.Workers) [][]string {
	if len(dates) < w.ParallelThreshold {
		return [][]string{dates}
	}

	size := len(dates) / w.Count
	if size < w.MinChunk {
		size = w.MinChunk
	}

	var chunks [][]string
	for start := 0; start < len(dates); start += size {
		end := start + size
		if end > len(dates) {
			end = len(dates)
		}
		chunks = append(chunks, dates[start:end])
	}
	return chunks
}

// processDate runs the full pipeline for one date across every spread.
func (o *Orchestrator) processDate(ctx context.Context, date string, targets []target) dateResult {
	started := time.Now()
	dr := dateResult{date: date}

	runner := synthbook.NewRunner(o.securities, o.books, o.synthBooks)
	merger := opportunity.NewMerger(opportunity.MergeConfig{
		Delay:     o.cfg.Delay.Std(),
		Tolerance: o.cfg.Tolerance,
	})

	for _, t := range targets {
		rows, err := o.buildSynthBook(ctx, runner, date, t.def)
		if err != nil {
			dr.err = fmt.Errorf("spread %s: %w", t.def.Symbol, err)
			return dr
		}

		opps, err := merger.MergeDate(date, t.def.Symbol, rows)
		if err != nil {
			dr.err = fmt.Errorf("spread %s: %w", t.def.Symbol, err)
			return dr
		}
		dr.opportunities += len(opps)
		if o.metrics != nil {
			o.metrics.OpportunitiesDetected.Add(float64(len(opps)))
		}

		simulator := fill.NewSimulator(fill.SimulatorConfig{
			MinFillDuration: o.cfg.MinFillDuration.Std(),
			CashPerPoint:    o.cfg.CashPerPoint,
			MemberType:      domain.MemberType(o.cfg.MemberType),
		}, t.fees)

		model := fill.NewPnLModel(fill.PnLConfig{
			RequiredEdge: o.cfg.RequiredEdge,
			Delays:       stdDelays(o.cfg.Delays),
			Latency:      o.cfg.Latency.Std(),
			CashPerPoint: o.cfg.CashPerPoint,
		}, t.fees)

		for _, opp := range opps {
			f, err := simulator.Simulate(opp)
			if err != nil {
				dr.err = err
				return dr
			}
			dr.fills = append(dr.fills, f)
			if o.metrics != nil {
				o.metrics.FillsSimulated.Inc()
				if f.Shot {
					o.metrics.ShotsTaken.Inc()
				}
			}

			pnls, err := model.Evaluate(opp)
			if err != nil {
				// A window too short for the latency is a finding about the
				// opportunity, not a pipeline failure.
				if errors.Is(err, fill.ErrUnreachableFill) {
					o.logger.Warn().
						Str("date", date).
						Str("symbol", opp.Key.Symbol).
						Int64("start_seq", opp.Key.StartSequenceID).
						Msg("fill unreachable within window")
					continue
				}
				dr.err = err
				return dr
			}
			dr.pnls = append(dr.pnls, pnls...)
			if o.metrics != nil {
				o.metrics.PnLRowsComputed.Add(float64(len(pnls)))
			}
		}
	}

	if o.fills != nil && len(dr.fills) > 0 {
		if err := o.persistFills(ctx, dr.fills); err != nil {
			if o.metrics != nil {
				o.metrics.StoreErrors.WithLabelValues("fills").Inc()
			}
			dr.err = fmt.Errorf("persist fills: %w", err)
			return dr
		}
	}

	if o.metrics != nil {
		o.metrics.DateDuration.Observe(time.Since(started).Seconds())
	}
	o.logger.Info().
		Str("date", date).
		Int("opportunities", dr.opportunities).
		Dur("elapsed", time.Since(started)).
		Msg("date complete")
	return dr
}

// buildSynthBook builds one partition's synthetic series, reusing an already
// persisted partition instead of rebuilding it.
func (o *Orchestrator) buildSynthBook(ctx context.Context, runner *synthbook.Runner, date string, def domain.SpreadDefinition) ([]domain.SyntheticBookRow, error) {
	if o.synthBooks != nil {
		rows, err := o.synthBooks.GetByDateSymbol(ctx, date, def.Symbol)
		if err == nil {
			return rows, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			if o.metrics != nil {
				o.metrics.StoreErrors.WithLabelValues("synth_books").Inc()
			}
			return nil, err
		}
	}
	return runner.BuildDate(ctx, o.cfg.Channel, date, def)
}

func (o *Orchestrator) persistFills(ctx context.Context, fills []domain.Fill) error {
	recs := make([]*domain.Fill, len(fills))
	for i := range fills {
		recs[i] = &fills[i]
	}
	err := o.fills.InsertBulk(ctx, recs)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// Already simulated in a previous run.
		return nil
	}
	return err
}

func stdDelays(delays []config.Duration) []time.Duration {
	out := make([]time.Duration, len(delays))
	for i, d := range delays {
		out[i] = d.Std()
	}
	return out
}

// SortFills orders fills by (date, symbol, start id), the order the stores
// and reports use.
func SortFills(fills []domain.Fill) {
	sort.Slice(fills, func(i, j int) bool {
		a, b := fills[i].Key, fills[j].Key
		if a.MarketDate != b.MarketDate {
			return a.MarketDate < b.MarketDate
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.StartSequenceID < b.StartSequenceID
	})
}
