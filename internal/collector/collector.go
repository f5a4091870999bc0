package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"StockBot/internal/calculator"
	"StockBot/internal/model"
)

var (
	// ErrMarketNotClosed is returned when the requested day's regular session
	// has not reached its closing bar.
	ErrMarketNotClosed = errors.New("market not closed")
	// ErrNoData is returned when the upstream API has no bars for a request.
	ErrNoData = errors.New("no data")
)

// TickerError attributes a failure to one ticker of a multi-ticker request.
type TickerError struct {
	Ticker string
	Err    error
}

func (e *TickerError) Error() string { return e.Ticker + ": " + e.Err.Error() }
func (e *TickerError) Unwrap() error { return e.Err }

// Collector orchestrates data fetching and the session/gap calculations.
type Collector struct {
	Fetcher         Fetcher
	Location        *time.Location
	Bounds          calculator.SessionBounds
	GapLookbackDays int
	MaxConcurrency  int
	Logger          zerolog.Logger
	Now             func() time.Time
}

// NewCollector creates a new Collector with US equity session defaults.
func NewCollector(fetcher Fetcher, loc *time.Location) *Collector {
	return &Collector{
		Fetcher:         fetcher,
		Location:        loc,
		Bounds:          calculator.DefaultSessionBounds(),
		GapLookbackDays: 5000,
		MaxConcurrency:  4,
		Logger:          log.Logger,
		Now:             time.Now,
	}
}

// Today returns the current date in the exchange timezone.
func (c *Collector) Today() time.Time {
	return c.startOfDay(c.Now())
}

func (c *Collector) startOfDay(t time.Time) time.Time {
	t = t.In(c.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location)
}

// dayRange returns [00:00, 23:59:59.999] of date in the exchange timezone.
func (c *Collector) dayRange(date time.Time) (time.Time, time.Time) {
	from := c.startOfDay(date)
	return from, from.AddDate(0, 0, 1).Add(-time.Millisecond)
}

func (c *Collector) minuteTable(ctx context.Context, ticker string, date time.Time) (model.SessionTable, error) {
	from, to := c.dayRange(date)
	bars, err := c.Fetcher.FetchAggs(ctx, AggsRequest{
		Ticker: ticker, Multiplier: 1, Timespan: model.Minute, From: from, To: to,
	})
	if err != nil {
		return model.SessionTable{}, fmt.Errorf("fetch minute bars: %w", err)
	}
	if len(bars) == 0 {
		return model.SessionTable{}, fmt.Errorf("minute bars %s %s: %w", ticker, from.Format("2006-01-02"), ErrNoData)
	}
	return calculator.IndexByTimeOfDay(bars, c.Location), nil
}

// DailyRecord builds the full-day record for ticker on date. It returns
// ErrMarketNotClosed when the regular session has not finished.
func (c *Collector) DailyRecord(ctx context.Context, ticker string, date time.Time) (*model.DailyRecord, error) {
	table, err := c.minuteTable(ctx, ticker, date)
	if err != nil {
		return nil, err
	}
	seg := calculator.Segment(table, c.Bounds)
	if !seg.Closed(c.Bounds) {
		return nil, ErrMarketNotClosed
	}

	rec, ok := calculator.ExtractDaily(ticker, c.startOfDay(date).Format("2006-01-02"), seg, c.Bounds, c.dayVolume(ctx, ticker, date))
	if !ok {
		return nil, ErrMarketNotClosed
	}

	if d, err := c.Fetcher.FetchTickerDetails(ctx, ticker); err != nil {
		c.Logger.Warn().Err(err).Str("ticker", ticker).Msg("ticker details unavailable")
	} else {
		rec.MarketCap = null.FloatFrom(d.MarketCap)
		rec.WeightedSharesOutstanding = null.FloatFrom(d.WeightedSharesOutstanding)
	}
	return &rec, nil
}

// dayVolume returns the day-aggregate volume, or null when it cannot be fetched.
func (c *Collector) dayVolume(ctx context.Context, ticker string, date time.Time) null.Int {
	from, to := c.dayRange(date)
	bars, err := c.Fetcher.FetchAggs(ctx, AggsRequest{
		Ticker: ticker, Multiplier: 1, Timespan: model.Day, From: from, To: to, Limit: 1,
	})
	if err != nil || len(bars) == 0 {
		c.Logger.Warn().Err(err).Str("ticker", ticker).Msg("day aggregate unavailable, summing minute volume")
		return null.Int{}
	}
	return null.IntFrom(bars[0].Volume)
}

// DailyRecords builds records for several tickers on the same date. The first
// failure aborts the batch and is returned as a *TickerError.
func (c *Collector) DailyRecords(ctx context.Context, tickers []string, date time.Time) ([]model.DailyRecord, error) {
	out := make([]model.DailyRecord, 0, len(tickers))
	for _, t := range tickers {
		rec, err := c.DailyRecord(ctx, t, date)
		if err != nil {
			return nil, &TickerError{Ticker: t, Err: err}
		}
		out = append(out, *rec)
	}
	return out, nil
}

// SessionBars returns the minute bars of date whose time of day lies in [from, to].
func (c *Collector) SessionBars(ctx context.Context, ticker string, date time.Time, from, to model.TimeOfDay) ([]model.Bar, error) {
	table, err := c.minuteTable(ctx, ticker, date)
	if err != nil {
		return nil, err
	}
	slice := table.Between(from, to)
	if slice.Empty() {
		return nil, fmt.Errorf("%s between %s and %s: %w", ticker, from, to, ErrNoData)
	}
	return slice.Bars(), nil
}

// Bars fetches multiplier x timespan bars over [from, to].
func (c *Collector) Bars(ctx context.Context, ticker string, multiplier int, ts model.Timespan, from, to time.Time) ([]model.Bar, error) {
	bars, err := c.Fetcher.FetchAggs(ctx, AggsRequest{
		Ticker: ticker, Multiplier: multiplier, Timespan: ts, From: from, To: to,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s bars: %w", ts, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s %d %s bars: %w", ticker, multiplier, ts, ErrNoData)
	}
	return bars, nil
}

// GapStats scans the configured lookback of daily bars for opening gaps above
// threshold percent and summarises them. The time of the high and low of each
// gap day is looked up from minute data with bounded concurrency; a failed
// lookup is logged and only removes that day from the time averages.
func (c *Collector) GapStats(ctx context.Context, ticker string, threshold float64) (model.GapSummary, error) {
	to := c.Now().In(c.Location)
	from := c.startOfDay(to.AddDate(0, 0, -c.GapLookbackDays))

	bars, err := c.Fetcher.FetchAggs(ctx, AggsRequest{
		Ticker: ticker, Multiplier: 1, Timespan: model.Day, From: from, To: to,
	})
	if err != nil {
		return model.GapSummary{}, fmt.Errorf("fetch daily bars: %w", err)
	}
	if len(bars) == 0 {
		return model.GapSummary{}, fmt.Errorf("daily bars %s: %w", ticker, ErrNoData)
	}

	gaps := calculator.DetectGaps(calculator.ToDailyBars(bars, c.Location), threshold)
	if err := c.fillSessionTimes(ctx, ticker, gaps); err != nil {
		return model.GapSummary{}, err
	}
	return calculator.SummarizeGaps(ticker, threshold, gaps), nil
}

func (c *Collector) fillSessionTimes(ctx context.Context, ticker string, gaps []model.GapRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	limit := c.MaxConcurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := range gaps {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			date, err := time.ParseInLocation("2006-01-02", gaps[i].Date, c.Location)
			if err != nil {
				c.Logger.Warn().Err(err).Str("date", gaps[i].Date).Msg("bad gap date")
				return nil
			}
			table, err := c.minuteTable(gctx, ticker, date)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.Logger.Warn().Err(err).Str("ticker", ticker).Str("date", gaps[i].Date).Msg("high/low time lookup failed")
				return nil
			}
			ex, err := calculator.ScanExtremes(table.Between(c.Bounds.Open, c.Bounds.Close))
			if err != nil {
				return nil
			}
			gaps[i].HighTime = null.StringFrom(ex.HighTime.String())
			gaps[i].LowTime = null.StringFrom(ex.LowTime.String())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("high/low time lookup: %w", err)
	}
	return nil
}
