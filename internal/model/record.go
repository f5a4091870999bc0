package model

import "github.com/guregu/null/v6"

// ExtendedSession summarises a pre-market or after-hours window.
// Every field is null when the window had no bars.
type ExtendedSession struct {
	High     null.Float
	Low      null.Float
	Volume   null.Int
	HighTime null.String
	LowTime  null.String
}

// DailyRecord is the full-day summary produced for a closed trading session.
type DailyRecord struct {
	Ticker   string
	Date     string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	HighTime string
	LowTime  string
	Volume   int64

	PreMarket  ExtendedSession
	AfterHours ExtendedSession

	MarketCap                 null.Float
	WeightedSharesOutstanding null.Float
}

// GapRecord pairs one trading day with the previous day's close.
// HighTime and LowTime are filled in later from minute data and may stay null.
type GapRecord struct {
	Date         string
	Open         float64
	High         float64
	Low          float64
	Close        float64
	PrevClose    float64
	Gap          float64
	GapPercent   float64
	HighPercent  float64
	LowPercent   float64
	ClosePercent float64
	HighTime     null.String
	LowTime      null.String
}

// Green reports whether the day closed above its open.
func (g GapRecord) Green() bool { return g.Close > g.Open }

// Red reports whether the day closed below its open.
func (g GapRecord) Red() bool { return g.Close < g.Open }

// PartitionStats describes the green or red subset of a gap summary.
type PartitionStats struct {
	Count           int
	Percent         float64
	AvgClosePercent float64
}

// GapSummary aggregates the gap days that passed the threshold.
type GapSummary struct {
	Ticker    string
	Threshold float64

	Count          int
	AvgGap         float64
	AvgGapPercent  float64
	AvgHighPercent float64
	AvgLowPercent  float64
	AvgHighTime    null.String
	AvgLowTime     null.String

	Green PartitionStats
	Red   PartitionStats

	// Dates lists at most the first ten qualifying dates; MoreDates is set
	// when the full set was longer.
	Dates     []string
	MoreDates bool
}

// Empty reports whether no day passed the threshold.
func (s GapSummary) Empty() bool { return s.Count == 0 }
