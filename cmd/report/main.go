package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"spread-sniper-lab/internal/config"
	"spread-sniper-lab/internal/reporting"
	"spread-sniper-lab/internal/storage"
	"spread-sniper-lab/internal/storage/memory"
	pgstore "spread-sniper-lab/internal/storage/postgres"
	"spread-sniper-lab/internal/summary"
)

func main() {
	configPath := flag.String("config", "", "Path to run configuration YAML (required)")
	format := flag.String("format", "markdown", "Output format: markdown, csv, durations-csv")
	output := flag.String("output", "", "Output file; stdout when empty")
	thresholds := flag.String("threshold", "", "Duration threshold (e.g. 55us) switching the duration section to exceedance counts")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("cmd", "report").Logger()

	if *configPath == "" {
		logger.Fatal().Msg("--config is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()

	var (
		fillStore  storage.FillStore             = memory.NewFillStore()
		eventStore storage.OpportunityEventStore = memory.NewOpportunityEventStore()
	)
	if !cfg.UseMemory() {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()
		fillStore = pgstore.NewFillStore(pool)
		eventStore = pgstore.NewOpportunityEventStore(pool)
	}

	durations := summary.DurationConfig{}
	if *thresholds != "" {
		d, err := time.ParseDuration(*thresholds)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse threshold")
		}
		durations.Thresholds = []time.Duration{d}
	}

	gen := reporting.NewGenerator(fillStore, eventStore)
	report, err := gen.Generate(ctx, reporting.Options{
		EdgeBoundaries: cfg.EdgeBoundaries,
		Durations:      durations,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("generate report")
	}

	var rendered string
	switch *format {
	case "markdown":
		rendered = reporting.RenderMarkdown(report)
	case "csv":
		rendered = reporting.RenderEdgeCSV(report)
	case "durations-csv":
		rendered = reporting.RenderDurationCSV(report)
	default:
		logger.Fatal().Str("format", *format).Msg("unknown format")
	}

	if *output == "" {
		fmt.Print(rendered)
		return
	}
	if err := os.WriteFile(*output, []byte(rendered), 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write report")
	}
	logger.Info().Str("path", *output).Msg("report written")
}
