package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"spread-sniper-lab/internal/config"
	"spread-sniper-lab/internal/domain"
	"spread-sniper-lab/internal/fill"
	"spread-sniper-lab/internal/opportunity"
	"spread-sniper-lab/internal/spread"
	"spread-sniper-lab/internal/storage"
	chstore "spread-sniper-lab/internal/storage/clickhouse"
	"spread-sniper-lab/internal/storage/memory"
	pgstore "spread-sniper-lab/internal/storage/postgres"
	"spread-sniper-lab/internal/verification"
)

func main() {
	configPath := flag.String("config", "", "Path to run configuration YAML (required)")
	symbols := flag.String("symbols", "", "Comma-separated symbol override")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("cmd", "verify").Logger()

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
	if len(cfg.Symbols) == 0 {
		logger.Fatal().Msg("at least one symbol is required")
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
		spreadStore    storage.SpreadStore    = memory.NewSpreadStore()
		feeStore       storage.FeeStore       = memory.NewFeeStore()
		fillStore      storage.FillStore      = memory.NewFillStore()
		synthBookStore storage.SynthBookStore = memory.NewSynthBookStore()
	)

	if !cfg.UseMemory() {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()
		spreadStore = pgstore.NewSpreadStore(pool)
		feeStore = pgstore.NewFeeStore(pool)
		fillStore = pgstore.NewFillStore(pool)

		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickHouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		synthBookStore = chstore.NewSynthBookStore(conn)
	}

	rates, err := feeStore.GetRatesByProduct(ctx, cfg.ProductType)
	if err != nil {
		logger.Fatal().Err(err).Str("product", cfg.ProductType).Msg("load fee rates")
	}

	merger := opportunity.NewMerger(opportunity.MergeConfig{
		Delay:     cfg.Delay.Std(),
		Tolerance: cfg.Tolerance,
	})

	divergent := 0
	for _, symbol := range cfg.Symbols {
		row, err := spreadStore.GetBySymbol(ctx, symbol)
		if err != nil {
			logger.Fatal().Err(err).Str("symbol", symbol).Msg("load spread")
		}
		def, err := spread.Parse(row.Symbol, row.LegSpec)
		if err != nil {
			logger.Fatal().Err(err).Str("symbol", symbol).Msg("parse spread")
		}

		sim := fill.NewSimulator(fill.SimulatorConfig{
			MinFillDuration: cfg.MinFillDuration.Std(),
			CashPerPoint:    cfg.CashPerPoint,
			MemberType:      domain.MemberType(cfg.MemberType),
		}, domain.BuildFeeSchedule(def, rates))

		verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
			SynthBooks: synthBookStore,
			Fills:      fillStore,
			Merger:     merger,
			Simulator:  sim,
		})

		for _, date := range cfg.Dates {
			report, err := verifier.VerifyPartition(ctx, date, symbol)
			if err != nil {
				logger.Fatal().Err(err).Str("date", date).Str("symbol", symbol).Msg("verify partition")
			}
			logger.Info().
				Str("date", date).
				Str("symbol", symbol).
				Int("fills", report.TotalFills).
				Int("matched", report.MatchedFills).
				Int("divergent", report.DivergentFills).
				Msg("partition verified")

			divergent += report.DivergentFills
			for _, result := range report.Results {
				if result.Match {
					continue
				}
				for _, d := range result.Divergences {
					logger.Warn().
						Str("date", result.Key.MarketDate).
						Str("symbol", result.Key.Symbol).
						Int64("seq", result.Key.StartSequenceID).
						Str("field", d.Field).
						Str("expected", fmt.Sprint(d.Expected)).
						Str("actual", fmt.Sprint(d.Actual)).
						Msg("fill diverged from replay")
				}
			}
		}
	}

	if divergent > 0 {
		logger.Fatal().Int("divergent", divergent).Msg("verification failed")
	}
	logger.Info().Msg("all fills match replay")
}
