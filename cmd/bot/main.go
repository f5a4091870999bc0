package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"StockBot/internal/artifact"
	"StockBot/internal/calculator"
	"StockBot/internal/collector"
	"StockBot/internal/config"
	"StockBot/internal/export"
	"StockBot/internal/metrics"
	"StockBot/internal/model"
	"StockBot/internal/notifier"
	"StockBot/internal/recorder"
	"StockBot/internal/scheduler"
)

func setupLogging(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("StockBot starting")

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("load market timezone")
	}
	open, err := model.ParseTimeOfDay(cfg.Market.RegularOpen)
	if err != nil {
		log.Fatal().Err(err).Msg("market.regular_open")
	}
	closing, err := model.ParseTimeOfDay(cfg.Market.RegularClose)
	if err != nil {
		log.Fatal().Err(err).Msg("market.regular_close")
	}

	m := metrics.New(cfg.Metrics.Namespace)

	// Init fetcher chain
	var fetcher collector.Fetcher = collector.NewPolygonFetcher(cfg.Polygon.APIKey, cfg.Polygon.Timeout, cfg.Polygon.RequestsPerMinute, cfg.Proxy)
	fetcher = collector.NewLoggingFetcher(log.Logger, fetcher)
	fetcher = collector.NewInstrumentingFetcher(m.UpstreamRequests, m.UpstreamDuration, fetcher)
	log.Info().Str("source", fetcher.Name()).Int("rpm", cfg.Polygon.RequestsPerMinute).Msg("data source ready")

	col := collector.NewCollector(fetcher, loc)
	col.Bounds = calculator.SessionBounds{Open: open, Close: closing}
	col.GapLookbackDays = cfg.Market.GapLookbackDays
	col.MaxConcurrency = cfg.Polygon.MaxConcurrency

	exp, err := export.New(cfg.Output.ExportFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("init exporter")
	}
	arts, err := artifact.NewDir(cfg.Output.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("init output dir")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Ops server
	var ops *metrics.Server
	if cfg.Metrics.Addr != "" {
		ops = metrics.NewServer(cfg.Metrics.Addr, cfg.Metrics.Namespace)
		ops.Start()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dn, err := notifier.NewDiscordNotifier(cfg.Discord.Token, cfg.Discord.GuildIDs, cfg.CommandTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("init discord")
	}

	sched := scheduler.NewScheduler(col, exp, arts, dn, rec, m, scheduler.Settings{
		ChartFormat:       cfg.Output.ChartFormat,
		MaxDaysHistorical: *cfg.Market.MaxDaysHistorical,
		ReportChannelID:   cfg.Discord.ReportChannelID,
		Watchlist:         cfg.Schedule.Watchlist,
		RetainFor:         cfg.Output.RetainFor,
	})
	if err := sched.RegisterAll(ctx, cfg.Schedule.DailyReportCron, cfg.Schedule.CleanupCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()

	if err := dn.Start(ctx, sched.HandleCommand); err != nil {
		log.Fatal().Err(err).Msg("start discord")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing daily report now")
		go sched.RunDailyReportNow(ctx)
	}

	log.Info().Msg("StockBot is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	if err := dn.Close(); err != nil {
		log.Warn().Err(err).Msg("close discord session")
	}
	sched.Stop()
	if ops != nil {
		if err := ops.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("ops server shutdown")
		}
	}
	log.Info().Msg("StockBot stopped")
}
