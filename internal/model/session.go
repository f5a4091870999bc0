package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed as seconds since local midnight.
type TimeOfDay int

// TimeOfDayOf returns the wall-clock time of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(h*3600 + m*60 + s)
}

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(h, m, s int) TimeOfDay {
	return TimeOfDay(h*3600 + m*60 + s)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM or HH:MM:SS", s)
	}
	limits := []int{23, 59, 59}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time %q, expected HH:MM or HH:MM:SS", s)
		}
		vals[i] = n
	}
	return NewTimeOfDay(vals[0], vals[1], vals[2]), nil
}

// Clock returns the hour, minute and second components.
func (t TimeOfDay) Clock() (h, m, s int) {
	v := int(t)
	return v / 3600, (v % 3600) / 60, v % 60
}

// String formats as HH:MM:SS.
func (t TimeOfDay) String() string {
	h, m, s := t.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// HHMM formats as HH:MM, dropping seconds.
func (t TimeOfDay) HHMM() string {
	h, m, _ := t.Clock()
	return fmt.Sprintf("%02d:%02d", h, m)
}

// SessionRow is one bar keyed by its exchange-local time of day.
type SessionRow struct {
	Key  TimeOfDay
	Time time.Time
	Bar  Bar
}

// SessionTable is an ascending sequence of bars for one ticker and day.
type SessionTable struct {
	Rows []SessionRow
}

func (s SessionTable) Len() int    { return len(s.Rows) }
func (s SessionTable) Empty() bool { return len(s.Rows) == 0 }

// Last returns the final row, if any.
func (s SessionTable) Last() (SessionRow, bool) {
	if len(s.Rows) == 0 {
		return SessionRow{}, false
	}
	return s.Rows[len(s.Rows)-1], true
}

// Between returns the rows with from <= key <= to.
func (s SessionTable) Between(from, to TimeOfDay) SessionTable {
	return s.Filter(func(k TimeOfDay) bool { return k >= from && k <= to })
}

// Filter returns the rows whose key satisfies keep, preserving order.
func (s SessionTable) Filter(keep func(TimeOfDay) bool) SessionTable {
	var out []SessionRow
	for _, r := range s.Rows {
		if keep(r.Key) {
			out = append(out, r)
		}
	}
	return SessionTable{Rows: out}
}

// Bars returns the underlying bars in table order.
func (s SessionTable) Bars() []Bar {
	bars := make([]Bar, len(s.Rows))
	for i, r := range s.Rows {
		bars[i] = r.Bar
	}
	return bars
}
