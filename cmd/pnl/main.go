package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"spread-sniper-lab/internal/config"
	"spread-sniper-lab/internal/observability"
	"spread-sniper-lab/internal/orchestrator"
	"spread-sniper-lab/internal/storage"
	chstore "spread-sniper-lab/internal/storage/clickhouse"
	"spread-sniper-lab/internal/storage/memory"
	pgstore "spread-sniper-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to run configuration YAML (required)")
	symbols := flag.String("symbols", "", "Comma-separated symbol override")
	outputJSON := flag.Bool("json", false, "Output results as JSON")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("cmd", "pnl").Logger()

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

	metrics := observability.NewMetrics("", nil)
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			logger.Info().Str("addr", *metricsAddr).Msg("starting metrics server")
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	var (
		securityStore  storage.SecurityStore  = memory.NewSecurityStore()
		spreadStore    storage.SpreadStore    = memory.NewSpreadStore()
		feeStore       storage.FeeStore       = memory.NewFeeStore()
		fillStore      storage.FillStore      = memory.NewFillStore()
		bookStore      storage.BookStore      = memory.NewBookStore()
		synthBookStore storage.SynthBookStore = memory.NewSynthBookStore()
	)

	if !cfg.UseMemory() {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()
		securityStore = pgstore.NewSecurityStore(pool)
		spreadStore = pgstore.NewSpreadStore(pool)
		feeStore = pgstore.NewFeeStore(pool)
		fillStore = pgstore.NewFillStore(pool)

		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickHouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		bookStore = chstore.NewBookStore(conn)
		synthBookStore = chstore.NewSynthBookStore(conn)
	}

	orch := orchestrator.New(orchestrator.Options{
		SecurityStore:  securityStore,
		SpreadStore:    spreadStore,
		BookStore:      bookStore,
		SynthBookStore: synthBookStore,
		FeeStore:       feeStore,
		FillStore:      fillStore,
		Config:         cfg,
		Logger:         logger,
		Metrics:        metrics,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("batch failed")
	}

	if *outputJSON {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return
	}

	orchestrator.SortFills(result.Fills)
	fmt.Printf("run %s: %d opportunities, %d fills, %d failed dates\n",
		result.RunID, result.Opportunities, len(result.Fills), len(result.FailedDates))
	for _, f := range result.Fills {
		fmt.Printf("%s %s seq=%d side=%s market=%s shot=%v filled=%v net=%.4f\n",
			f.Key.MarketDate, f.Key.Symbol, f.Key.StartSequenceID,
			f.Side, f.Side.MarketName(), f.Shot, f.Filled(), f.NetFillCash)
	}
	for _, p := range result.PnLs {
		fmt.Printf("%s %s seq=%d delay=%s taken=%v cash_edge=%.4f",
			p.Key.MarketDate, p.Key.Symbol, p.Key.StartSequenceID, p.Delay, p.Taken, p.CashEdge)
		for tier, cash := range p.NetCash {
			fmt.Printf(" %s=%.4f", tier, cash)
		}
		fmt.Println()
	}
}
