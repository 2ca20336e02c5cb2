package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"spread-sniper-lab/internal/config"
	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/opportunity"
	"spread-sniper-lab/internal/spread"
	"spread-sniper-lab/internal/storage"
	chstore "spread-sniper-lab/internal/storage/clickhouse"
	"spread-sniper-lab/internal/storage/memory"
	pgstore "spread-sniper-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to run configuration YAML (required)")
	symbols := flag.String("symbols", "", "Comma-separated symbol override")
	runID := flag.Uint("run-id", 0, "Capture run id recorded on persisted events")
	persist := flag.Bool("persist", false, "Persist detected opportunities as event records")
	fromStore := flag.Bool("from-store", false, "Rebuild windows for previously recorded events instead of detecting")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("cmd", "opps").Logger()

	if *configPath == "" {
		logger.Fatal().Msg("--config is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if *symbols != "" {
		cfg.Symbols = strings.Split(*symbols, ",")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	var (
		spreadStore    storage.SpreadStore           = memory.NewSpreadStore()
		synthBookStore storage.SynthBookStore        = memory.NewSynthBookStore()
		eventStore     storage.OpportunityEventStore = memory.NewOpportunityEventStore()
	)

	if !cfg.UseMemory() {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()
		spreadStore = pgstore.NewSpreadStore(pool)
		eventStore = pgstore.NewOpportunityEventStore(pool)

		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickHouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		synthBookStore = chstore.NewSynthBookStore(conn)
	}

	merger := opportunity.NewMerger(opportunity.MergeConfig{
		Delay:     cfg.Delay.Std(),
		Tolerance: cfg.Tolerance,
	})

	for _, symbol := range cfg.Symbols {
		row, err := spreadStore.GetBySymbol(ctx, symbol)
		if err != nil {
			logger.Fatal().Err(err).Str("symbol", symbol).Msg("resolve spread")
		}
		def, err := spread.Parse(row.Symbol, row.LegSpec)
		if err != nil {
			logger.Fatal().Err(err).Str("symbol", symbol).Msg("parse spread")
		}

		for _, date := range cfg.Dates {
			rows, err := synthBookStore.GetByDateSymbol(ctx, date, symbol)
			if err != nil {
				logger.Error().Err(err).Str("date", date).Str("symbol", symbol).Msg("load synth book")
				continue
			}

			var opps []domain.Opportunity
			if *fromStore {
				events, err := eventStore.GetByDateSymbol(ctx, date, symbol)
				if err != nil {
					logger.Error().Err(err).Str("date", date).Str("symbol", symbol).Msg("load events")
					continue
				}
				if len(events) == 0 {
					logger.Info().Str("date", date).Str("symbol", symbol).Msg("no recorded events")
					continue
				}
				opps, err = merger.MergeEvents(rows, events)
				if err != nil {
					logger.Error().Err(err).Str("date", date).Str("symbol", symbol).Msg("merge failed")
					continue
				}
			} else {
				opps, err = merger.MergeDate(date, symbol, rows)
				if err != nil {
					logger.Error().Err(err).Str("date", date).Str("symbol", symbol).Msg("merge failed")
					continue
				}
			}
			logger.Info().Str("date", date).Str("symbol", symbol).Bool("replayed", *fromStore).
				Int("opportunities", len(opps)).Msg("opportunities merged")

			// Stored events are already persisted; only fresh detections are written back.
			if !*persist || *fromStore || len(opps) == 0 {
				continue
			}
			events := make([]*domain.OpportunityEvent, 0, len(opps))
			for i, opp := range opps {
				events = append(events, toEvent(opp, uint32(*runID), uint32(i), def))
			}
			if err := eventStore.InsertBulk(ctx, events); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					logger.Warn().Str("date", date).Str("symbol", symbol).Msg("events already recorded")
					continue
				}
				logger.Fatal().Err(err).Str("date", date).Str("symbol", symbol).Msg("persist events")
			}
		}
	}
}

// toEvent flattens one merged opportunity into its persistent record. The
// window durations carry the last row's persistence-through times, which is
// how long the opportunity stood on each clock.
func toEvent(opp domain.Opportunity, runID, oppID uint32, def domain.SpreadDefinition) *domain.OpportunityEvent {
	anchor := opp.Anchor()
	last := opp.Rows[len(opp.Rows)-1]

	qty := anchor.BidQty
	if anchor.Side == domain.SideBuy {
		qty = anchor.AskQty
	}

	return &domain.OpportunityEvent{
		MarketDate: opp.Key.MarketDate,
		Symbol:     opp.Key.Symbol,
		EventID:    opp.Key.StartSequenceID,
		RunID:      runID,
		OppID:      oppID,
		Side:       anchor.Side.String(),
		EntryPnL:   anchor.Edge,
		EntryQty:   uint32(qty),
		EntryTicks: len(opp.Rows),
		IsDirect:   def.NumLegs() == 1,
		HasFutures: def.HasOutright(),
		Timestamp:  anchor.Timestamp,
		FSNWin:     last.OppDurThruFSN,
		LSNWin:     last.OppDurThruLSN,
	}
}
