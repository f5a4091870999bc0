package calculator

import (
	"github.com/guregu/null/v6"

	"StockBot/internal/model"
)

// ExtractDaily reduces a segmented day to a DailyRecord. ok is false when the
// regular session has not closed; no partial record is produced in that case.
// dayVolume is the day-aggregate volume; when null the regular-session minute
// volumes are summed instead.
func ExtractDaily(ticker, date string, seg Segments, b SessionBounds, dayVolume null.Int) (rec model.DailyRecord, ok bool) {
	if !seg.Closed(b) {
		return model.DailyRecord{}, false
	}
	ex, err := ScanExtremes(seg.Regular)
	if err != nil {
		return model.DailyRecord{}, false
	}
	rows := seg.Regular.Rows
	rec = model.DailyRecord{
		Ticker:     ticker,
		Date:       date,
		Open:       rows[0].Bar.Open,
		High:       ex.High,
		Low:        ex.Low,
		Close:      rows[len(rows)-1].Bar.Close,
		HighTime:   ex.HighTime.String(),
		LowTime:    ex.LowTime.String(),
		Volume:     ex.Volume,
		PreMarket:  ExtractExtended(seg.PreMarket),
		AfterHours: ExtractExtended(seg.AfterHours),
	}
	if dayVolume.Valid {
		rec.Volume = dayVolume.Int64
	}
	return rec, true
}

// ExtractExtended summarises an extended-hours window, leaving every field
// null when the window is empty.
func ExtractExtended(table model.SessionTable) model.ExtendedSession {
	ex, err := ScanExtremes(table)
	if err != nil {
		return model.ExtendedSession{}
	}
	return model.ExtendedSession{
		High:     null.FloatFrom(ex.High),
		Low:      null.FloatFrom(ex.Low),
		Volume:   null.IntFrom(ex.Volume),
		HighTime: null.StringFrom(ex.HighTime.String()),
		LowTime:  null.StringFrom(ex.LowTime.String()),
	}
}
