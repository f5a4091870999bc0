package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"StockBot/internal/artifact"
	"StockBot/internal/collector"
	"StockBot/internal/export"
	"StockBot/internal/metrics"
	"StockBot/internal/model"
	"StockBot/internal/notifier"
	"StockBot/internal/recorder"
)

// Poster delivers a message to a channel outside of any interaction.
type Poster interface {
	PostWithRetry(ctx context.Context, channelID string, msg notifier.Message, maxRetries int) error
}

// Settings are the user-facing knobs the command handlers and jobs read.
type Settings struct {
	ChartFormat       string
	MaxDaysHistorical int
	ReportChannelID   string
	Watchlist         []string
	RetainFor         time.Duration
}

// Scheduler owns the cron jobs and dispatches slash commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Exporter  export.Exporter
	Artifacts *artifact.Dir
	Poster    Poster
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Settings  Settings
	Logger    zerolog.Logger
}

// NewScheduler creates a new Scheduler. Cron specs are evaluated in the
// collector's exchange timezone.
func NewScheduler(col *collector.Collector, exp export.Exporter, dir *artifact.Dir,
	poster Poster, rec recorder.Recorder, m *metrics.Metrics, settings Settings) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(col.Location)),
		Collector: col,
		Exporter:  exp,
		Artifacts: dir,
		Poster:    poster,
		Recorder:  rec,
		Metrics:   m,
		Settings:  settings,
		Logger:    log.Logger,
	}
}

// RegisterAll registers the daily watchlist report and the artifact sweep.
// Jobs run under ctx. An empty cron expression disables that job.
func (s *Scheduler) RegisterAll(ctx context.Context, dailyReportCron, cleanupCron string) error {
	if dailyReportCron != "" {
		if _, err := s.Cron.AddFunc(dailyReportCron, func() { s.dailyReport(ctx) }); err != nil {
			return fmt.Errorf("register daily report: %w", err)
		}
	}
	if cleanupCron != "" {
		if _, err := s.Cron.AddFunc(cleanupCron, s.cleanup); err != nil {
			return fmt.Errorf("register cleanup: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info().Msg("scheduler stopped")
}

// RunDailyReportNow executes the daily report immediately.
func (s *Scheduler) RunDailyReportNow(ctx context.Context) {
	s.dailyReport(ctx)
}

func (s *Scheduler) dailyReport(ctx context.Context) {
	if s.Settings.ReportChannelID == "" || len(s.Settings.Watchlist) == 0 {
		s.Logger.Debug().Msg("daily report skipped: no channel or watchlist")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	date := s.Collector.Today()
	day := date.Format("2006-01-02")
	s.Logger.Info().Str("date", day).Strs("watchlist", s.Settings.Watchlist).Msg("running daily report")

	var records []model.DailyRecord
	var skipped []string
	for _, t := range s.Settings.Watchlist {
		rec, err := s.Collector.DailyRecord(ctx, t, date)
		if err != nil {
			s.Logger.Warn().Err(err).Str("ticker", t).Msg("daily report: ticker skipped")
			skipped = append(skipped, t)
			continue
		}
		records = append(records, *rec)
	}

	msg := notifier.Message{Content: notifier.FormatDailyReport(day, records, skipped)}
	if len(records) > 0 {
		ext := s.Exporter.Extension()
		path := s.Artifacts.Path("daily-report", ext)
		defer s.Artifacts.Remove(path)
		if err := s.Exporter.Write(records, path); err != nil {
			s.Logger.Error().Err(err).Msg("daily report: export")
		} else {
			msg.Files = []notifier.Attachment{{
				Name:        fmt.Sprintf("daily-report-%s.%s", day, ext),
				ContentType: s.Exporter.ContentType(),
				Path:        path,
			}}
		}
	}

	if err := s.Poster.PostWithRetry(ctx, s.Settings.ReportChannelID, msg, 3); err != nil {
		s.Logger.Error().Err(err).Msg("daily report: post")
	}
}

func (s *Scheduler) cleanup() {
	n, err := s.Artifacts.Sweep(s.Settings.RetainFor, time.Now())
	if err != nil {
		s.Logger.Error().Err(err).Msg("artifact sweep")
		return
	}
	if n > 0 {
		s.Logger.Info().Int("removed", n).Msg("stale artifacts removed")
	}
}
