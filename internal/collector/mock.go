package collector

import (
	"context"
	"fmt"
	"sync"

	"StockBot/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Details map[string]model.TickerDetails
	// Fail, when set, is consulted before every aggregates request.
	Fail func(req AggsRequest) error

	mu    sync.Mutex
	bars  map[string][]model.Bar
	calls []AggsRequest
}

func (m *MockFetcher) Name() string { return "mock" }

// AddBars registers bars served for ticker at the given timespan.
func (m *MockFetcher) AddBars(ticker string, ts model.Timespan, bars ...model.Bar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bars == nil {
		m.bars = make(map[string][]model.Bar)
	}
	k := mockKey(ticker, ts)
	m.bars[k] = append(m.bars[k], bars...)
}

// Calls returns a copy of the aggregates requests seen so far.
func (m *MockFetcher) Calls() []AggsRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AggsRequest(nil), m.calls...)
}

func (m *MockFetcher) FetchAggs(ctx context.Context, req AggsRequest) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls = append(m.calls, req)
	all := m.bars[mockKey(req.Ticker, req.Timespan)]
	m.mu.Unlock()

	if m.Fail != nil {
		if err := m.Fail(req); err != nil {
			return nil, err
		}
	}

	from, to := req.From.UnixMilli(), req.To.UnixMilli()
	var out []model.Bar
	for _, b := range all {
		if b.Timestamp >= from && b.Timestamp <= to {
			out = append(out, b)
		}
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	return out, nil
}

func (m *MockFetcher) FetchTickerDetails(_ context.Context, ticker string) (*model.TickerDetails, error) {
	d, ok := m.Details[ticker]
	if !ok {
		return nil, fmt.Errorf("ticker details %s: not found", ticker)
	}
	return &d, nil
}

func mockKey(ticker string, ts model.Timespan) string {
	return ticker + "/" + string(ts)
}
