package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/rs/zerolog"

	"StockBot/internal/model"
)

// loggingFetcher logs every upstream call, failures at error level.
type loggingFetcher struct {
	logger zerolog.Logger
	next   Fetcher
}

// NewLoggingFetcher wraps next with request logging.
func NewLoggingFetcher(logger zerolog.Logger, next Fetcher) Fetcher {
	return &loggingFetcher{logger: logger, next: next}
}

func (f *loggingFetcher) Name() string { return f.next.Name() }

func (f *loggingFetcher) FetchAggs(ctx context.Context, req AggsRequest) (bars []model.Bar, err error) {
	defer func(begin time.Time) {
		f.event(err).
			Str("method", "FetchAggs").
			Str("ticker", req.Ticker).
			Str("timespan", string(req.Timespan)).
			Int("multiplier", req.Multiplier).
			Time("from", req.From).
			Time("to", req.To).
			Int("bars", len(bars)).
			Dur("elapsed", time.Since(begin)).
			Msg("upstream request")
	}(time.Now())
	return f.next.FetchAggs(ctx, req)
}

func (f *loggingFetcher) FetchTickerDetails(ctx context.Context, ticker string) (d *model.TickerDetails, err error) {
	defer func(begin time.Time) {
		f.event(err).
			Str("method", "FetchTickerDetails").
			Str("ticker", ticker).
			Dur("elapsed", time.Since(begin)).
			Msg("upstream request")
	}(time.Now())
	return f.next.FetchTickerDetails(ctx, ticker)
}

func (f *loggingFetcher) event(err error) *zerolog.Event {
	if err != nil {
		return f.logger.Error().Err(err)
	}
	return f.logger.Debug()
}

// instrumentingFetcher records request counts and latencies.
type instrumentingFetcher struct {
	reqCount    metrics.Counter
	reqDuration metrics.Histogram
	next        Fetcher
}

// NewInstrumentingFetcher wraps next with request metrics labelled by method and error.
func NewInstrumentingFetcher(reqCount metrics.Counter, reqDuration metrics.Histogram, next Fetcher) Fetcher {
	return &instrumentingFetcher{reqCount: reqCount, reqDuration: reqDuration, next: next}
}

func (f *instrumentingFetcher) Name() string { return f.next.Name() }

func (f *instrumentingFetcher) FetchAggs(ctx context.Context, req AggsRequest) (bars []model.Bar, err error) {
	defer func(begin time.Time) { f.record("FetchAggs", begin, err) }(time.Now())
	return f.next.FetchAggs(ctx, req)
}

func (f *instrumentingFetcher) FetchTickerDetails(ctx context.Context, ticker string) (d *model.TickerDetails, err error) {
	defer func(begin time.Time) { f.record("FetchTickerDetails", begin, err) }(time.Now())
	return f.next.FetchTickerDetails(ctx, ticker)
}

func (f *instrumentingFetcher) record(method string, begin time.Time, err error) {
	labels := []string{
		"method", method,
		"error", strconv.FormatBool(err != nil),
	}
	f.reqCount.With(labels...).Add(1)
	f.reqDuration.With(labels...).Observe(time.Since(begin).Seconds())
}
