package calculator

import (
	"time"

	"StockBot/internal/model"
)

// ToDailyBars labels day-granularity bars with their trading date in loc.
func ToDailyBars(bars []model.Bar, loc *time.Location) []model.DailyBar {
	out := make([]model.DailyBar, 0, len(bars))
	for _, b := range bars {
		out = append(out, model.DailyBar{
			Date:   b.Time(loc).Format("2006-01-02"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	return out
}

// DetectGaps pairs each day with the previous close and keeps the days whose
// gap percent is strictly greater than threshold. The first day has no
// predecessor and is dropped. Days whose previous close is not positive are
// skipped.
func DetectGaps(days []model.DailyBar, threshold float64) []model.GapRecord {
	var out []model.GapRecord
	for i := 1; i < len(days); i++ {
		prev, d := days[i-1].Close, days[i]
		if prev <= 0 || d.Open <= 0 {
			continue
		}
		gap := d.Open - prev
		gapPct := gap * 100 / prev
		if !(gapPct > threshold) {
			continue
		}
		out = append(out, model.GapRecord{
			Date:         d.Date,
			Open:         d.Open,
			High:         d.High,
			Low:          d.Low,
			Close:        d.Close,
			PrevClose:    prev,
			Gap:          gap,
			GapPercent:   gapPct,
			HighPercent:  (d.High - d.Open) * 100 / d.Open,
			LowPercent:   (d.Low - d.Open) * 100 / d.Open,
			ClosePercent: (d.Close - d.Open) * 100 / d.Open,
		})
	}
	return out
}
