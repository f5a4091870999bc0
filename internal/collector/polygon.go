package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	polygonrest "github.com/polygon-io/client-go/rest"
	rmodels "github.com/polygon-io/client-go/rest/models"
	"golang.org/x/time/rate"

	"StockBot/internal/model"
)

const maxAggsLimit = 50000

// PolygonFetcher implements Fetcher using the Polygon.io REST API.
type PolygonFetcher struct {
	Client  *polygonrest.Client
	Limiter *rate.Limiter
}

// NewPolygonFetcher creates a fetcher with an explicit HTTP timeout, optional
// proxy support and a requests-per-minute budget (0 disables limiting).
func NewPolygonFetcher(apiKey string, timeout time.Duration, requestsPerMinute int, proxyURL string) *PolygonFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return &PolygonFetcher{
		Client: polygonrest.NewWithClient(apiKey, &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}),
		Limiter: limiter,
	}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

func (f *PolygonFetcher) FetchAggs(ctx context.Context, req AggsRequest) ([]model.Bar, error) {
	if err := f.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	multiplier := req.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	params := &rmodels.ListAggsParams{
		Ticker:     req.Ticker,
		Timespan:   rmodels.Timespan(req.Timespan),
		Multiplier: multiplier,
		From:       rmodels.Millis(req.From),
		To:         rmodels.Millis(req.To),
	}
	lim := req.Limit
	if lim <= 0 || lim > maxAggsLimit {
		lim = maxAggsLimit
	}
	asc := rmodels.Asc
	adj := true
	params.Limit = &lim
	params.Order = &asc
	params.Adjusted = &adj

	iter := f.Client.ListAggs(ctx, params)
	var bars []model.Bar
	for iter.Next() {
		a := iter.Item()
		bars = append(bars, model.Bar{
			Timestamp: time.Time(a.Timestamp).UnixMilli(),
			Open:      a.Open,
			High:      a.High,
			Low:       a.Low,
			Close:     a.Close,
			Volume:    int64(a.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list aggs %s: %w", req.Ticker, err)
	}
	return bars, nil
}

func (f *PolygonFetcher) FetchTickerDetails(ctx context.Context, ticker string) (*model.TickerDetails, error) {
	if err := f.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	res, err := f.Client.GetTickerDetails(ctx, &rmodels.GetTickerDetailsParams{Ticker: ticker})
	if err != nil {
		return nil, fmt.Errorf("ticker details %s: %w", ticker, err)
	}
	return tickerDetailsFrom(ticker, res.Results), nil
}

// tickerDetailsFrom converts the reference data; share counts arrive as integers.
func tickerDetailsFrom(ticker string, t rmodels.Ticker) *model.TickerDetails {
	return &model.TickerDetails{
		Ticker:                    ticker,
		MarketCap:                 t.MarketCap,
		WeightedSharesOutstanding: float64(t.WeightedSharesOutstanding),
	}
}
