package calculator

import "StockBot/internal/model"

// SessionBounds holds the regular-session boundaries. Close is the key of the
// last minute bar of the session (15:59:00 for US equities), not the bell.
type SessionBounds struct {
	Open  model.TimeOfDay
	Close model.TimeOfDay
}

// DefaultSessionBounds returns the US equity regular session, 09:30:00 to 15:59:00.
func DefaultSessionBounds() SessionBounds {
	return SessionBounds{
		Open:  model.NewTimeOfDay(9, 30, 0),
		Close: model.NewTimeOfDay(15, 59, 0),
	}
}

// Segments are the three disjoint windows of one trading day.
type Segments struct {
	PreMarket  model.SessionTable
	Regular    model.SessionTable
	AfterHours model.SessionTable
}

// Segment splits a day into pre-market (key < open), regular
// (open <= key <= close) and after-hours (key > close). Any part may be empty.
func Segment(table model.SessionTable, b SessionBounds) Segments {
	var seg Segments
	for _, r := range table.Rows {
		switch {
		case r.Key < b.Open:
			seg.PreMarket.Rows = append(seg.PreMarket.Rows, r)
		case r.Key <= b.Close:
			seg.Regular.Rows = append(seg.Regular.Rows, r)
		default:
			seg.AfterHours.Rows = append(seg.AfterHours.Rows, r)
		}
	}
	return seg
}

// Closed reports whether the regular session reached its closing bar.
// A day that is still trading, or was cut short, is not closed.
func (s Segments) Closed(b SessionBounds) bool {
	last, ok := s.Regular.Last()
	return ok && last.Key == b.Close
}
