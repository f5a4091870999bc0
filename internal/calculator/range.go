package calculator

import (
	"errors"

	"StockBot/internal/model"
)

// Extremes is the outcome of scanning a session table for its high and low.
type Extremes struct {
	High     float64
	Low      float64
	HighTime model.TimeOfDay
	LowTime  model.TimeOfDay
	Volume   int64
}

// ScanExtremes returns the max high and min low of the table together with the
// key of the first row that reached each. Ties resolve to the earliest row.
func ScanExtremes(table model.SessionTable) (Extremes, error) {
	if table.Empty() {
		return Extremes{}, errors.New("no bars provided")
	}
	first := table.Rows[0]
	ex := Extremes{
		High:     first.Bar.High,
		Low:      first.Bar.Low,
		HighTime: first.Key,
		LowTime:  first.Key,
	}
	for _, r := range table.Rows {
		if r.Bar.High > ex.High {
			ex.High = r.Bar.High
			ex.HighTime = r.Key
		}
		if r.Bar.Low < ex.Low {
			ex.Low = r.Bar.Low
			ex.LowTime = r.Key
		}
		ex.Volume += r.Bar.Volume
	}
	return ex, nil
}
