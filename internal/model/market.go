package model

import (
	"fmt"
	"strings"
	"time"
)

// Bar represents a single OHLCV candlestick as returned by the upstream API.
// Timestamp is the bar start in epoch milliseconds.
type Bar struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Time returns the bar start as a time.Time in the given location.
func (b Bar) Time(loc *time.Location) time.Time {
	return time.UnixMilli(b.Timestamp).In(loc)
}

// Timespan is the bar granularity understood by the upstream aggregates endpoint.
type Timespan string

const (
	Minute Timespan = "minute"
	Hour   Timespan = "hour"
	Day    Timespan = "day"
	Week   Timespan = "week"
)

// ParseTimespan accepts the unit names used by chat commands.
func ParseTimespan(s string) (Timespan, error) {
	switch ts := Timespan(strings.ToLower(strings.TrimSpace(s))); ts {
	case Minute, Hour, Day, Week:
		return ts, nil
	default:
		return "", fmt.Errorf("unknown timespan %q (use minute, hour, day or week)", s)
	}
}

// TickerDetails holds the reference data attached to a daily record.
type TickerDetails struct {
	Ticker                    string
	MarketCap                 float64
	WeightedSharesOutstanding float64
}

// DailyBar is a day-granularity bar keyed by its exchange-local trading date.
type DailyBar struct {
	Date   string // 2006-01-02 in the exchange timezone
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
