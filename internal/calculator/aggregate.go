package calculator

import (
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"StockBot/internal/model"
)

// MaxListedDates caps the dates shown in a gap summary.
const MaxListedDates = 10

// SummarizeGaps aggregates gap records. An empty input returns a summary
// whose Empty method reports true and whose averages are all zero.
func SummarizeGaps(ticker string, threshold float64, records []model.GapRecord) model.GapSummary {
	s := model.GapSummary{Ticker: ticker, Threshold: threshold, Count: len(records)}
	if len(records) == 0 {
		return s
	}

	var gap, gapPct, hiPct, loPct, greenSum, redSum float64
	var highTimes, lowTimes []model.TimeOfDay
	for _, r := range records {
		gap += r.Gap
		gapPct += r.GapPercent
		hiPct += r.HighPercent
		loPct += r.LowPercent
		switch {
		case r.Green():
			s.Green.Count++
			greenSum += r.ClosePercent
		case r.Red():
			s.Red.Count++
			redSum += r.ClosePercent
		}
		if t, ok := parseNullTime(r.HighTime); ok {
			highTimes = append(highTimes, t)
		}
		if t, ok := parseNullTime(r.LowTime); ok {
			lowTimes = append(lowTimes, t)
		}
	}

	n := float64(len(records))
	s.AvgGap = round2(gap / n)
	s.AvgGapPercent = round2(gapPct / n)
	s.AvgHighPercent = round2(hiPct / n)
	s.AvgLowPercent = round2(loPct / n)
	s.Green = partition(s.Green.Count, greenSum, n)
	s.Red = partition(s.Red.Count, redSum, n)

	if t, ok := AverageTimeOfDay(highTimes); ok {
		s.AvgHighTime = null.StringFrom(t.HHMM())
	}
	if t, ok := AverageTimeOfDay(lowTimes); ok {
		s.AvgLowTime = null.StringFrom(t.HHMM())
	}

	limit := len(records)
	if limit > MaxListedDates {
		limit = MaxListedDates
		s.MoreDates = true
	}
	s.Dates = make([]string, limit)
	for i := 0; i < limit; i++ {
		s.Dates[i] = records[i].Date
	}
	return s
}

// AverageTimeOfDay is the plain arithmetic mean of seconds since midnight,
// truncated to whole seconds. It does not handle wrap-around past midnight;
// session times never cross it.
func AverageTimeOfDay(times []model.TimeOfDay) (model.TimeOfDay, bool) {
	if len(times) == 0 {
		return 0, false
	}
	var sum int
	for _, t := range times {
		sum += int(t)
	}
	return model.TimeOfDay(sum / len(times)), true
}

func partition(count int, closeSum, total float64) model.PartitionStats {
	p := model.PartitionStats{Count: count, Percent: round2(float64(count) / total * 100)}
	if count > 0 {
		p.AvgClosePercent = round2(closeSum / float64(count))
	}
	return p
}

func parseNullTime(s null.String) (model.TimeOfDay, bool) {
	if !s.Valid {
		return 0, false
	}
	t, err := model.ParseTimeOfDay(s.String)
	if err != nil {
		return 0, false
	}
	return t, true
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
