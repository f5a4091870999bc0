package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"StockBot/internal/chart"
	"StockBot/internal/collector"
	"StockBot/internal/model"
	"StockBot/internal/notifier"
	"StockBot/internal/recorder"
)

// InputError is a user mistake caught before any upstream call. Its message
// is shown to the user verbatim.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputErrorf(format string, args ...interface{}) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

const (
	msgNotClosed = "Please wait until market close..."
	msgNoGapData = "No Data Found"
	msgTimeout   = "Request timed out, please try again."

	replyTimeout = 10 * time.Second
)

// HandleCommand runs one slash command and sends every reply through r.
// Failures never escape: they are logged and turned into a short message.
func (s *Scheduler) HandleCommand(ctx context.Context, cmd notifier.Command, r notifier.Responder) {
	start := time.Now()

	var err error
	switch cmd.Name {
	case notifier.CmdStockData:
		err = s.stockData(ctx, cmd, r)
	case notifier.CmdTimerangeChart:
		err = s.timerangeChart(ctx, cmd, r)
	case notifier.CmdDailyChart:
		err = s.dailyChart(ctx, cmd, r)
	case notifier.CmdChart:
		err = s.intervalChart(ctx, cmd, r)
	case notifier.CmdGapStats:
		err = s.gapStats(ctx, cmd, r)
	default:
		err = inputErrorf("Unknown command %q", cmd.Name)
	}

	outcome, text := s.describe(cmd, err)
	if text != "" {
		// ctx may already be done (timeout, shutdown); the reply still goes out.
		replyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
		sendErr := r.Send(replyCtx, notifier.Message{Content: text})
		cancel()
		if sendErr != nil {
			s.Logger.Error().Err(sendErr).Str("command", cmd.Name).Msg("send error reply")
		}
	}

	elapsed := time.Since(start)
	level := zerolog.InfoLevel
	if outcome == "error" || outcome == "not_found" || outcome == "timeout" {
		level = zerolog.ErrorLevel
	}
	s.Logger.WithLevel(level).Err(err).Str("command", cmd.Name).
		Str("tickers", cmd.Option("ticker")).
		Str("guild", cmd.GuildID).
		Str("user", cmd.UserID).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("command handled")

	s.Metrics.Commands.With("command", cmd.Name, "outcome", outcome).Add(1)
	s.Metrics.CommandDuration.With("command", cmd.Name).Observe(elapsed.Seconds())
	if err := s.Recorder.RecordCommand(&recorder.CommandEvent{
		At:      start,
		Command: cmd.Name,
		Tickers: cmd.Option("ticker"),
		GuildID: cmd.GuildID,
		UserID:  cmd.UserID,
		Outcome: outcome,
		Elapsed: elapsed,
	}); err != nil {
		s.Logger.Error().Err(err).Msg("record command")
	}
}

// describe maps a handler error to an outcome label and the user-facing text.
func (s *Scheduler) describe(cmd notifier.Command, err error) (outcome, text string) {
	if err == nil {
		return "ok", ""
	}
	var inErr *InputError
	var tErr *collector.TickerError
	switch {
	case errors.As(err, &inErr):
		return "input_error", inErr.Msg
	case errors.Is(err, collector.ErrMarketNotClosed):
		return "not_closed", msgNotClosed
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout", msgTimeout
	case cmd.Name == notifier.CmdGapStats:
		return "not_found", msgNoGapData
	case errors.As(err, &tErr):
		return "not_found", "Data not found, " + tErr.Ticker
	default:
		return "error", "Data not found, " + cmd.Option("ticker")
	}
}

func parseTickers(raw string) ([]string, error) {
	fields := strings.Fields(strings.ToUpper(raw))
	if len(fields) == 0 {
		return nil, inputErrorf(":x: At least one ticker is required")
	}
	for _, f := range fields {
		for _, r := range f {
			if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == ':' || r == '-') {
				return nil, inputErrorf(":x: Invalid ticker %q", f)
			}
		}
	}
	return fields, nil
}

// parseDate resolves the optional date option in the exchange timezone.
// maxDaysBack < 0 disables the lookback limit.
func (s *Scheduler) parseDate(raw string, maxDaysBack int) (time.Time, error) {
	today := s.Collector.Today()
	if raw == "" {
		return today, nil
	}
	date, err := time.ParseInLocation("2006-01-02", raw, s.Collector.Location)
	if err != nil {
		return time.Time{}, inputErrorf(":x: Invalid date %q, expected YYYY-MM-DD", raw)
	}
	back := daysBetween(date, today)
	if back < 0 {
		return time.Time{}, inputErrorf(":x: Date %s is in the future", raw)
	}
	if maxDaysBack >= 0 && back > maxDaysBack {
		return time.Time{}, inputErrorf(":x: Date may not be longer in the past than %d days", maxDaysBack)
	}
	return date, nil
}

// daysBetween counts calendar days from a to b, ignoring DST-length days.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func parseTimeOption(name, raw string) (model.TimeOfDay, error) {
	t, err := model.ParseTimeOfDay(raw)
	if err != nil {
		return 0, inputErrorf(":x: Invalid %s %q, expected HH:MM", name, raw)
	}
	return t, nil
}

func (s *Scheduler) stockData(ctx context.Context, cmd notifier.Command, r notifier.Responder) error {
	tickers, err := parseTickers(cmd.Option("ticker"))
	if err != nil {
		return err
	}
	date, err := s.parseDate(cmd.Option("date"), s.Settings.MaxDaysHistorical)
	if err != nil {
		return err
	}

	records, err := s.Collector.DailyRecords(ctx, tickers, date)
	if err != nil {
		return err
	}

	ext := s.Exporter.Extension()
	path := s.Artifacts.Path("stock-data", ext)
	defer s.Artifacts.Remove(path)
	if err := s.Exporter.Write(records, path); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return r.Send(ctx, notifier.Message{
		Content: fmt.Sprintf("Stocks: %s | Date: %s", strings.Join(tickers, ", "), date.Format("2006-01-02")),
		Files: []notifier.Attachment{{
			Name:        fmt.Sprintf("stock-data-%s.%s", date.Format("2006-01-02"), ext),
			ContentType: s.Exporter.ContentType(),
			Path:        path,
		}},
	})
}

func (s *Scheduler) timerangeChart(ctx context.Context, cmd notifier.Command, r notifier.Responder) error {
	tickers, err := parseTickers(cmd.Option("ticker"))
	if err != nil {
		return err
	}
	from, err := parseTimeOption("time1", cmd.Option("time1"))
	if err != nil {
		return err
	}
	to, err := parseTimeOption("time2", cmd.Option("time2"))
	if err != nil {
		return err
	}
	if from > to {
		return inputErrorf(":x: time1 (%s) must not be after time2 (%s)", from.HHMM(), to.HHMM())
	}
	date, err := s.parseDate(cmd.Option("date"), -1)
	if err != nil {
		return err
	}
	return s.sessionCharts(ctx, r, tickers, date, from, to)
}

func (s *Scheduler) dailyChart(ctx context.Context, cmd notifier.Command, r notifier.Responder) error {
	tickers, err := parseTickers(cmd.Option("ticker"))
	if err != nil {
		return err
	}
	date, err := s.parseDate(cmd.Option("date"), -1)
	if err != nil {
		return err
	}
	return s.sessionCharts(ctx, r, tickers, date, s.Collector.Bounds.Open, model.NewTimeOfDay(16, 0, 0))
}

func (s *Scheduler) sessionCharts(ctx context.Context, r notifier.Responder, tickers []string, date time.Time, from, to model.TimeOfDay) error {
	day := date.Format("2006-01-02")
	for _, t := range tickers {
		bars, err := s.Collector.SessionBars(ctx, t, date, from, to)
		if err != nil {
			return &collector.TickerError{Ticker: t, Err: err}
		}
		if err := s.sendChart(ctx, r, t, fmt.Sprintf("%s - %s", t, day), day, bars, model.Minute); err != nil {
			return &collector.TickerError{Ticker: t, Err: err}
		}
	}
	return nil
}

// chartWindow returns the lookback used by the chart command for each timespan.
func chartWindow(ts model.Timespan, more bool) (years, months, days int) {
	switch ts {
	case model.Hour:
		if more {
			return 0, 0, 20
		}
		return 0, 0, 5
	case model.Day:
		if more {
			return 0, 0, 730
		}
		return 0, 0, 180
	case model.Week:
		if more {
			return 5, 0, 0
		}
		return 2, 0, 0
	default:
		return 0, 0, 0
	}
}

func parseBoolOption(raw string) bool {
	switch strings.ToLower(raw) {
	case "yes", "y", "true", "1":
		return true
	default:
		return false
	}
}

func (s *Scheduler) intervalChart(ctx context.Context, cmd notifier.Command, r notifier.Responder) error {
	tickers, err := parseTickers(cmd.Option("ticker"))
	if err != nil {
		return err
	}
	ts, err := model.ParseTimespan(cmd.Option("timeframe"))
	if err != nil {
		return inputErrorf(":x: Invalid timeframe %q, use minute, hour, day or week", cmd.Option("timeframe"))
	}
	multiplier, err := strconv.Atoi(cmd.Option("unit"))
	if err != nil || multiplier < 1 {
		return inputErrorf(":x: Invalid unit %q, expected a positive whole number", cmd.Option("unit"))
	}
	date, err := s.parseDate(cmd.Option("date"), -1)
	if err != nil {
		return err
	}
	more := parseBoolOption(cmd.Option("more_data"))

	to := date.AddDate(0, 0, 1).Add(-time.Millisecond)
	y, m, d := chartWindow(ts, more)
	from := date.AddDate(-y, -m, -d)
	day := date.Format("2006-01-02")

	for _, t := range tickers {
		bars, err := s.Collector.Bars(ctx, t, multiplier, ts, from, to)
		if err != nil {
			return &collector.TickerError{Ticker: t, Err: err}
		}
		title := fmt.Sprintf("%s - %s (%d %s)", t, day, multiplier, ts)
		if err := s.sendChart(ctx, r, t, title, fmt.Sprintf("%s-%d%s", day, multiplier, ts), bars, ts); err != nil {
			return &collector.TickerError{Ticker: t, Err: err}
		}
	}
	return nil
}

func (s *Scheduler) sendChart(ctx context.Context, r notifier.Responder, ticker, title, suffix string, bars []model.Bar, ts model.Timespan) error {
	format := s.Settings.ChartFormat
	ext := chart.Extension(format)
	path := s.Artifacts.Path(ticker+"-chart", ext)
	defer s.Artifacts.Remove(path)

	err := chart.RenderFile(path, bars, chart.Options{
		Title:      title,
		Format:     format,
		Location:   s.Collector.Location,
		TimeLayout: chart.TimeLayoutFor(ts),
	})
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return r.Send(ctx, notifier.Message{Files: []notifier.Attachment{{
		Name:        fmt.Sprintf("%s-%s.%s", ticker, suffix, ext),
		ContentType: chart.ContentType(format),
		Path:        path,
	}}})
}

func (s *Scheduler) gapStats(ctx context.Context, cmd notifier.Command, r notifier.Responder) error {
	tickers, err := parseTickers(cmd.Option("ticker"))
	if err != nil {
		return err
	}
	if len(tickers) != 1 {
		return inputErrorf(":x: gap_stats takes a single ticker")
	}
	percent, err := strconv.ParseFloat(cmd.Option("percent"), 64)
	if err != nil {
		return inputErrorf(":x: Invalid percent %q, expected a number", cmd.Option("percent"))
	}

	summary, err := s.Collector.GapStats(ctx, tickers[0], percent)
	if err != nil {
		return err
	}
	return r.Send(ctx, notifier.Message{
		Content: notifier.FormatGapHeader(tickers[0], percent) + "\n" + notifier.FormatGapStats(summary),
	})
}
