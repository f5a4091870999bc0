package notifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"

	"StockBot/internal/model"
)

const rule = "----------------------------------------"

// FormatGapHeader formats the acknowledgement line of a gap stats reply.
func FormatGapHeader(ticker string, percent float64) string {
	return fmt.Sprintf("Ticker: %s | Percent: %s", ticker, num(percent))
}

// FormatGapStats formats a gap summary as a ruled text block.
func FormatGapStats(s model.GapSummary) string {
	if s.Empty() {
		return fmt.Sprintf("No gaps above %s%% for %s", num(s.Threshold), s.Ticker)
	}

	dates := strings.Join(s.Dates, ", ")
	if s.MoreDates {
		dates = fmt.Sprintf("(first %d): %s", len(s.Dates), dates)
	}

	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "*%s*:  %s\n%s\n", label, value, rule)
	}
	b.WriteString(rule + "\n")
	line("Dates", dates)
	line("Count", strconv.Itoa(s.Count))
	line("Avg. Gap", fmt.Sprintf("$%s / %s%%", num(s.AvgGap), num(s.AvgGapPercent)))
	line("Close > Open 🟢", fmt.Sprintf("%d / %s%%", s.Green.Count, num(s.Green.Percent)))
	line("Close < Open 🔴", fmt.Sprintf("%d / %s%%", s.Red.Count, num(s.Red.Percent)))
	line("Avg. HOD", orNA(s.AvgHighTime))
	line("Avg. LOD", orNA(s.AvgLowTime))
	line("Avg. High/Low", fmt.Sprintf("%s%% / %s%%", num(s.AvgHighPercent), num(s.AvgLowPercent)))
	line("Avg. 🟢 Performance", fmt.Sprintf("%+.2f%%", s.Green.AvgClosePercent))
	line("Avg. 🔴 Performance", fmt.Sprintf("%+.2f%%", s.Red.AvgClosePercent))
	return b.String()
}

// FormatDailyReport summarises closed-session records, one ticker per line.
func FormatDailyReport(date string, records []model.DailyRecord, skipped []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Daily report** | %s\n", date)
	for _, r := range records {
		change := 0.0
		if r.Open > 0 {
			change = (r.Close - r.Open) / r.Open * 100
		}
		fmt.Fprintf(&b, "`%-6s` O %.2f  H %.2f (%s)  L %.2f (%s)  C %.2f  %+.2f%%  Vol %s\n",
			r.Ticker, r.Open, r.High, hhmm(r.HighTime), r.Low, hhmm(r.LowTime), r.Close, change, volume(r.Volume))
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "Skipped: %s\n", strings.Join(skipped, ", "))
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNA(s null.String) string {
	if !s.Valid {
		return "n/a"
	}
	return s.String
}

func hhmm(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}

func volume(v int64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", float64(v)/1e9)
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(v)/1e6)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", float64(v)/1e3)
	default:
		return strconv.FormatInt(v, 10)
	}
}
