package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockBot/internal/artifact"
	"StockBot/internal/collector"
	"StockBot/internal/export"
	"StockBot/internal/metrics"
	"StockBot/internal/model"
	"StockBot/internal/notifier"
	"StockBot/internal/recorder"
)

// sent is a message captured at send time, with attachment presence checked
// before the handler removes the files.
type sent struct {
	Content string
	Files   []string
	Present []bool
}

type fakeResponder struct {
	mu   sync.Mutex
	msgs []sent
}

// Send fails on a done ctx like the Discord client does.
func (f *fakeResponder) Send(ctx context.Context, msg notifier.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := sent{Content: msg.Content}
	for _, a := range msg.Files {
		_, err := os.Stat(a.Path)
		s.Files = append(s.Files, a.Name)
		s.Present = append(s.Present, err == nil)
	}
	f.msgs = append(f.msgs, s)
	return nil
}

type fakePoster struct {
	fakeResponder
	channels []string
}

func (p *fakePoster) PostWithRetry(ctx context.Context, channelID string, msg notifier.Message, _ int) error {
	p.channels = append(p.channels, channelID)
	return p.Send(ctx, msg)
}

// stallingFetcher never answers before ctx is done.
type stallingFetcher struct{}

func (stallingFetcher) Name() string { return "stalling" }

func (stallingFetcher) FetchAggs(ctx context.Context, _ collector.AggsRequest) ([]model.Bar, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallingFetcher) FetchTickerDetails(ctx context.Context, _ string) (*model.TickerDetails, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type memRecorder struct {
	events []*recorder.CommandEvent
}

func (m *memRecorder) RecordCommand(evt *recorder.CommandEvent) error {
	m.events = append(m.events, evt)
	return nil
}
func (m *memRecorder) Close() error { return nil }

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func minuteBars(day time.Time, fromH, fromM, toH, toM int) []model.Bar {
	var bars []model.Bar
	start := time.Date(day.Year(), day.Month(), day.Day(), fromH, fromM, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), toH, toM, 0, 0, day.Location())
	for ts := start; !ts.After(end); ts = ts.Add(time.Minute) {
		bars = append(bars, model.Bar{Timestamp: ts.UnixMilli(), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 10})
	}
	return bars
}

type fixture struct {
	sched  *Scheduler
	fetch  *collector.MockFetcher
	rec    *memRecorder
	poster *fakePoster
	dir    string
	loc    *time.Location
}

// newFixture builds a scheduler whose clock reads 2024-07-02 20:00 New York.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc := newYork(t)
	now := time.Date(2024, 7, 2, 20, 0, 0, 0, loc)

	f := &collector.MockFetcher{}
	col := collector.NewCollector(f, loc)
	col.Logger = zerolog.Nop()
	col.Now = func() time.Time { return now }

	dir := t.TempDir()
	arts, err := artifact.NewDir(dir)
	require.NoError(t, err)
	exp, err := export.New("csv")
	require.NoError(t, err)

	rec := &memRecorder{}
	poster := &fakePoster{}
	s := NewScheduler(col, exp, arts, poster, rec, metrics.NewDiscard(), Settings{
		ChartFormat:       "png",
		MaxDaysHistorical: 7,
		ReportChannelID:   "chan-1",
		Watchlist:         []string{"AAPL", "MSFT"},
		RetainFor:         time.Hour,
	})
	s.Logger = zerolog.Nop()
	return &fixture{sched: s, fetch: f, rec: rec, poster: poster, dir: dir, loc: loc}
}

func (fx *fixture) run(t *testing.T, name string, opts map[string]string) *fakeResponder {
	t.Helper()
	r := &fakeResponder{}
	fx.sched.HandleCommand(context.Background(), notifier.Command{Name: name, Options: opts, GuildID: "g1", UserID: "u1"}, r)
	return r
}

func (fx *fixture) lastOutcome(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, fx.rec.events)
	return fx.rec.events[len(fx.rec.events)-1].Outcome
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStockData_SendsExportAndCleansUp(t *testing.T) {
	fx := newFixture(t)
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, fx.loc)
	fx.fetch.AddBars("AAPL", model.Minute, minuteBars(day, 9, 30, 15, 59)...)

	r := fx.run(t, notifier.CmdStockData, map[string]string{"ticker": "aapl", "date": "2024-07-01"})

	require.Len(t, r.msgs, 1)
	assert.Equal(t, "Stocks: AAPL | Date: 2024-07-01", r.msgs[0].Content)
	assert.Equal(t, []string{"stock-data-2024-07-01.csv"}, r.msgs[0].Files)
	assert.Equal(t, []bool{true}, r.msgs[0].Present)
	assert.Equal(t, "ok", fx.lastOutcome(t))
	assertDirEmpty(t, fx.dir)
}

func TestStockData_DateTooOld(t *testing.T) {
	fx := newFixture(t)
	r := fx.run(t, notifier.CmdStockData, map[string]string{"ticker": "AAPL", "date": "2024-06-01"})

	require.Len(t, r.msgs, 1)
	assert.Equal(t, ":x: Date may not be longer in the past than 7 days", r.msgs[0].Content)
	assert.Equal(t, "input_error", fx.lastOutcome(t))
	assert.Empty(t, fx.fetch.Calls())
}

func TestStockData_FutureDate(t *testing.T) {
	fx := newFixture(t)
	r := fx.run(t, notifier.CmdStockData, map[string]string{"ticker": "AAPL", "date": "2024-07-03"})

	require.Len(t, r.msgs, 1)
	assert.Contains(t, r.msgs[0].Content, "in the future")
	assert.Empty(t, fx.fetch.Calls())
}

func TestStockData_NotClosed(t *testing.T) {
	fx := newFixture(t)
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, fx.loc)
	fx.fetch.AddBars("AAPL", model.Minute, minuteBars(day, 9, 30, 14, 45)...)

	r := fx.run(t, notifier.CmdStockData, map[string]string{"ticker": "AAPL", "date": "2024-07-01"})

	require.Len(t, r.msgs, 1)
	assert.Equal(t, "Please wait until market close...", r.msgs[0].Content)
	assert.Equal(t, "not_closed", fx.lastOutcome(t))
}

func TestStockData_NamesMissingTicker(t *testing.T) {
	fx := newFixture(t)
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, fx.loc)
	fx.fetch.AddBars("AAPL", model.Minute, minuteBars(day, 9, 30, 15, 59)...)

	r := fx.run(t, notifier.CmdStockData, map[string]string{"ticker": "AAPL ZZZZ", "date": "2024-07-01"})

	require.Len(t, r.msgs, 1)
	assert.Equal(t, "Data not found, ZZZZ", r.msgs[0].Content)
	assert.Equal(t, "not_found", fx.lastOutcome(t))
	assertDirEmpty(t, fx.dir)
}

func TestHandleCommand_TimeoutReplyDelivered(t *testing.T) {
	fx := newFixture(t)
	fx.sched.Collector.Fetcher = stallingFetcher{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	r := &fakeResponder{}
	fx.sched.HandleCommand(ctx, notifier.Command{Name: notifier.CmdStockData, Options: map[string]string{"ticker": "AAPL"}}, r)

	require.Len(t, r.msgs, 1)
	assert.Equal(t, "Request timed out, please try again.", r.msgs[0].Content)
	assert.Equal(t, "timeout", fx.lastOutcome(t))
}

func TestHandleCommand_ReplyAfterShutdown(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeResponder{}
	fx.sched.HandleCommand(ctx, notifier.Command{Name: notifier.CmdGapStats, Options: map[string]string{"ticker": "AAPL", "percent": "5"}}, r)

	require.Len(t, r.msgs, 1)
	assert.Equal(t, "No Data Found", r.msgs[0].Content)
}

func TestTimerangeChart(t *testing.T) {
	fx := newFixture(t)
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, fx.loc)
	fx.fetch.AddBars("AAPL", model.Minute, minuteBars(day, 9, 30, 15, 59)...)
	fx.fetch.AddBars("MSFT", model.Minute, minuteBars(day, 9, 30, 15, 59)...)

	r := fx.run(t, notifier.CmdTimerangeChart, map[string]string{
		"ticker": "AAPL MSFT", "time1": "10:00", "time2": "11:00", "date": "2024-07-01",
	})

	require.Len(t, r.msgs, 2)
	assert.Equal(t, []string{"AAPL-2024-07-01.png"}, r.msgs[0].Files)
	assert.Equal(t, []string{"MSFT-2024-07-01.png"}, r.msgs[1].Files)
	assert.Equal(t, []bool{true}, r.msgs[0].Present)
	assert.Equal(t, "ok", fx.lastOutcome(t))
	assertDirEmpty(t, fx.dir)
}

func TestTimerangeChart_InvalidInput(t *testing.T) {
	fx := newFixture(t)

	cases := map[string]map[string]string{
		"bad time":       {"ticker": "AAPL", "time1": "25:00", "time2": "11:00"},
		"reversed":       {"ticker": "AAPL", "time1": "12:00", "time2": "11:00"},
		"missing ticker": {"ticker": " ", "time1": "10:00", "time2": "11:00"},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			r := fx.run(t, notifier.CmdTimerangeChart, opts)
			require.Len(t, r.msgs, 1)
			assert.Contains(t, r.msgs[0].Content, ":x:")
			assert.Equal(t, "input_error", fx.lastOutcome(t))
		})
	}
	assert.Empty(t, fx.fetch.Calls())
}

func TestDailyChart_NoBars(t *testing.T) {
	fx := newFixture(t)
	r := fx.run(t, notifier.CmdDailyChart, map[string]string{"ticker": "AAPL", "date": "2024-07-01"})

	require.Len(t, r.msgs, 1)
	assert.Equal(t, "Data not found, AAPL", r.msgs[0].Content)
}

func TestIntervalChart_Window(t *testing.T) {
	fx := newFixture(t)
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, fx.loc)
	fx.fetch.AddBars("AAPL", model.Day,
		model.Bar{Timestamp: day.AddDate(0, 0, -1).UnixMilli(), Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		model.Bar{Timestamp: day.UnixMilli(), Open: 11, High: 13, Low: 10, Close: 12, Volume: 120},
	)

	r := fx.run(t, notifier.CmdChart, map[string]string{
		"ticker": "AAPL", "timeframe": "day", "unit": "1", "date": "2024-07-01", "more_data": "true",
	})

	require.Len(t, r.msgs, 1)
	assert.Equal(t, []string{"AAPL-2024-07-01-1day.png"}, r.msgs[0].Files)

	calls := fx.fetch.Calls()
	require.Len(t, calls, 1)
	assert.True(t, day.AddDate(0, 0, -730).Equal(calls[0].From))
	assert.Equal(t, model.Day, calls[0].Timespan)
}

func TestIntervalChart_InvalidUnit(t *testing.T) {
	fx := newFixture(t)
	for _, unit := range []string{"0", "-3", "abc"} {
		r := fx.run(t, notifier.CmdChart, map[string]string{"ticker": "AAPL", "timeframe": "hour", "unit": unit})
		require.Len(t, r.msgs, 1)
		assert.Contains(t, r.msgs[0].Content, "Invalid unit")
	}
	r := fx.run(t, notifier.CmdChart, map[string]string{"ticker": "AAPL", "timeframe": "month", "unit": "1"})
	assert.Contains(t, r.msgs[0].Content, "Invalid timeframe")
	assert.Empty(t, fx.fetch.Calls())
}

func TestGapStats(t *testing.T) {
	fx := newFixture(t)
	d1 := time.Date(2024, 6, 27, 0, 0, 0, 0, fx.loc)
	d2 := time.Date(2024, 6, 28, 0, 0, 0, 0, fx.loc)
	fx.fetch.AddBars("AAPL", model.Day,
		model.Bar{Timestamp: d1.UnixMilli(), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1},
		model.Bar{Timestamp: d2.UnixMilli(), Open: 106, High: 110, Low: 104, Close: 108, Volume: 1},
	)

	r := fx.run(t, notifier.CmdGapStats, map[string]string{"ticker": "aapl", "percent": "5"})

	require.Len(t, r.msgs, 1)
	assert.Contains(t, r.msgs[0].Content, "Ticker: AAPL | Percent: 5")
	assert.Contains(t, r.msgs[0].Content, "2024-06-28")
	assert.Contains(t, r.msgs[0].Content, "*Count*:  1")
	assert.Equal(t, "ok", fx.lastOutcome(t))
}

func TestGapStats_Errors(t *testing.T) {
	fx := newFixture(t)

	r := fx.run(t, notifier.CmdGapStats, map[string]string{"ticker": "AAPL", "percent": "five"})
	assert.Contains(t, r.msgs[0].Content, "Invalid percent")

	r = fx.run(t, notifier.CmdGapStats, map[string]string{"ticker": "AAPL MSFT", "percent": "5"})
	assert.Contains(t, r.msgs[0].Content, "single ticker")

	fx.fetch.Fail = func(collector.AggsRequest) error { return errors.New("boom") }
	r = fx.run(t, notifier.CmdGapStats, map[string]string{"ticker": "AAPL", "percent": "5"})
	assert.Equal(t, "No Data Found", r.msgs[0].Content)
	assert.Equal(t, "not_found", fx.lastOutcome(t))
}

func TestHandleCommand_Unknown(t *testing.T) {
	fx := newFixture(t)
	r := fx.run(t, "nope", nil)
	require.Len(t, r.msgs, 1)
	assert.Contains(t, r.msgs[0].Content, "Unknown command")
	assert.Equal(t, "g1", fx.rec.events[0].GuildID)
}

func TestDailyReport(t *testing.T) {
	fx := newFixture(t)
	day := time.Date(2024, 7, 2, 0, 0, 0, 0, fx.loc)
	fx.fetch.AddBars("AAPL", model.Minute, minuteBars(day, 9, 30, 15, 59)...)

	fx.sched.RunDailyReportNow(context.Background())

	require.Len(t, fx.poster.msgs, 1)
	assert.Equal(t, []string{"chan-1"}, fx.poster.channels)
	msg := fx.poster.msgs[0]
	assert.Contains(t, msg.Content, "2024-07-02")
	assert.Contains(t, msg.Content, "AAPL")
	assert.Contains(t, msg.Content, "MSFT")
	assert.Equal(t, []string{"daily-report-2024-07-02.csv"}, msg.Files)
	assert.Equal(t, []bool{true}, msg.Present)
	assertDirEmpty(t, fx.dir)
}

func TestDailyReport_UsesCallerContext(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fx.sched.RunDailyReportNow(ctx)

	assert.Empty(t, fx.fetch.Calls())
	assert.Empty(t, fx.poster.msgs)
}

func TestDailyReport_Disabled(t *testing.T) {
	fx := newFixture(t)
	fx.sched.Settings.ReportChannelID = ""
	fx.sched.RunDailyReportNow(context.Background())
	assert.Empty(t, fx.poster.msgs)
	assert.Empty(t, fx.fetch.Calls())
}

func TestCleanup(t *testing.T) {
	fx := newFixture(t)
	old := fx.sched.Artifacts.Path("old", "png")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	fresh := fx.sched.Artifacts.Path("fresh", "png")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))

	fx.sched.cleanup()

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestRegisterAll(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.sched.RegisterAll(context.Background(), "0 5 16 * * 1-5", "0 0 * * * *"))
	assert.Len(t, fx.sched.Cron.Entries(), 2)

	assert.Error(t, fx.sched.RegisterAll(context.Background(), "not a cron", ""))
}

func TestDaysBetween(t *testing.T) {
	loc := newYork(t)
	// spans the March DST change
	a := time.Date(2024, 3, 9, 0, 0, 0, 0, loc)
	b := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)
	assert.Equal(t, 2, daysBetween(a, b))
	assert.Equal(t, -2, daysBetween(b, a))
}
