package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"stockpipe/internal/config"
	"stockpipe/internal/fetch"
	"stockpipe/internal/pipeline"
	"stockpipe/internal/provider"
	"stockpipe/internal/scheduler"
	"stockpipe/internal/store"
	"stockpipe/internal/util"
)

func main() {
	cfgPath := "config/stockpipe.yaml"
	if p := os.Getenv("STOCKPIPE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	st, err := store.OpenSQLite(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	md := provider.NewAlpacaProvider(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		cfg.Alpaca.RateLimitPerMin,
	)
	fetcher := fetch.New(md, cfg.StartTime(), cfg.EndTime(), cfg.Pipeline.MaxAttempts, cfg.BackoffBase())

	opts := pipeline.Options{
		Seed:          cfg.SeedTickers(),
		DownloadSleep: cfg.DownloadSleep(),
	}
	if cfg.Pipeline.SnapshotEnabled {
		opts.SnapshotDir = filepath.Join(cfg.Storage.DataDir, "analytics")
	}
	p := pipeline.New(st, fetcher, opts)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Schedule.Cron != "" {
		sched := scheduler.New(logger)
		if err := sched.Register(cfg.Schedule.Cron, func() error { return p.Run(ctx) }); err != nil {
			log.Fatalf("failed to register schedule: %v", err)
		}
		sched.Start()
		logger.Info("scheduler started", "cron", cfg.Schedule.Cron)
		<-ctx.Done()
		<-sched.Stop().Done()
		return
	}

	if err := p.Run(ctx); err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}
}
