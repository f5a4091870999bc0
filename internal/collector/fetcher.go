package collector

import (
	"context"
	"time"

	"StockBot/internal/model"
)

// AggsRequest describes one aggregates query. From and To are inclusive.
type AggsRequest struct {
	Ticker     string
	Multiplier int
	Timespan   model.Timespan
	From       time.Time
	To         time.Time
	Limit      int
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchAggs(ctx context.Context, req AggsRequest) ([]model.Bar, error)
	FetchTickerDetails(ctx context.Context, ticker string) (*model.TickerDetails, error)
	Name() string
}
