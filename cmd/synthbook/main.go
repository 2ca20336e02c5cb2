package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"spread-sniper-lab/internal/config"
	"spread-sniper-lab/internal/spread"
	"spread-sniper-lab/internal/storage"
	chstore "spread-sniper-lab/internal/storage/clickhouse"
	"spread-sniper-lab/internal/storage/memory"
	"spread-sniper-lab/internal/storage/migrations"
	pgstore "spread-sniper-lab/internal/storage/postgres"
	"spread-sniper-lab/internal/synthbook"
)

func main() {
	configPath := flag.String("config", "", "Path to run configuration YAML (required)")
	dates := flag.String("dates", "", "Comma-separated date override")
	symbols := flag.String("symbols", "", "Comma-separated symbol override")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("cmd", "synthbook").Logger()

	if *configPath == "" {
		logger.Fatal().Msg("--config is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if *dates != "" {
		cfg.Dates = strings.Split(*dates, ",")
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
		securityStore  storage.SecurityStore  = memory.NewSecurityStore()
		spreadStore    storage.SpreadStore    = memory.NewSpreadStore()
		bookStore      storage.BookStore      = memory.NewBookStore()
		synthBookStore storage.SynthBookStore = memory.NewSynthBookStore()
	)

	if !cfg.UseMemory() {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()
		if err := migrations.ApplyPostgres(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("apply postgres migrations")
		}
		securityStore = pgstore.NewSecurityStore(pool)
		spreadStore = pgstore.NewSpreadStore(pool)

		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickHouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		if err := migrations.ApplyClickhouse(ctx, conn); err != nil {
			logger.Fatal().Err(err).Msg("apply clickhouse migrations")
		}
		bookStore = chstore.NewBookStore(conn)
		synthBookStore = chstore.NewSynthBookStore(conn)
	}

	runner := synthbook.NewRunner(securityStore, bookStore, synthBookStore)

	for _, symbol := range cfg.Symbols {
		row, err := spreadStore.GetBySymbol(ctx, symbol)
		if err != nil {
			logger.Fatal().Err(err).Str("symbol", symbol).Msg("resolve spread")
		}
		def, err := spread.Parse(row.Symbol, row.LegSpec)
		if err != nil {
			logger.Fatal().Err(err).Str("symbol", symbol).Msg("parse spread")
		}
		logger.Info().Str("symbol", symbol).
			Strs("legs", def.LegSymbols()).
			Ints("ratios", def.LegRatios()).
			Msg("spread resolved")

		for _, date := range cfg.Dates {
			rows, err := runner.BuildDate(ctx, cfg.Channel, date, def)
			if err != nil {
				logger.Error().Err(err).Str("date", date).Str("symbol", symbol).Msg("build failed")
				continue
			}
			logger.Info().Str("date", date).Str("symbol", symbol).
				Int("rows", len(rows)).Msg("synthetic book built")
		}
	}
}
