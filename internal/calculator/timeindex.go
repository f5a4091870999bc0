package calculator

import (
	"sort"
	"time"

	"StockBot/internal/model"
)

// IndexByTimeOfDay converts epoch-millisecond bars into a session table keyed
// by wall-clock time in loc. Daylight-saving offsets come from loc, so a bar
// on a transition day lands on the correct side of the change.
// Empty input yields an empty table.
func IndexByTimeOfDay(bars []model.Bar, loc *time.Location) model.SessionTable {
	if len(bars) == 0 {
		return model.SessionTable{}
	}
	rows := make([]model.SessionRow, len(bars))
	for i, b := range bars {
		t := b.Time(loc)
		rows[i] = model.SessionRow{Key: model.TimeOfDayOf(t), Time: t, Bar: b}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Bar.Timestamp < rows[j].Bar.Timestamp
	})
	return model.SessionTable{Rows: rows}
}
