package notifier

import (
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"

	"StockBot/internal/model"
)

func TestFormatGapStats(t *testing.T) {
	s := model.GapSummary{
		Ticker: "AAPL", Threshold: 5,
		Count: 12, AvgGap: 1.25, AvgGapPercent: 6.5,
		AvgHighPercent: 3.1, AvgLowPercent: -2.4,
		AvgHighTime: null.StringFrom("10:05"),
		Green:       model.PartitionStats{Count: 8, Percent: 66.67, AvgClosePercent: 3.5},
		Red:         model.PartitionStats{Count: 4, Percent: 33.33, AvgClosePercent: -2},
		Dates:       []string{"2024-01-01", "2024-01-02"},
		MoreDates:   true,
	}

	out := FormatGapStats(s)

	assert.Contains(t, out, "*Dates*:  (first 2): 2024-01-01, 2024-01-02")
	assert.Contains(t, out, "*Count*:  12")
	assert.Contains(t, out, "*Avg. Gap*:  $1.25 / 6.5%")
	assert.Contains(t, out, "*Close > Open 🟢*:  8 / 66.67%")
	assert.Contains(t, out, "*Close < Open 🔴*:  4 / 33.33%")
	assert.Contains(t, out, "*Avg. HOD*:  10:05")
	assert.Contains(t, out, "*Avg. LOD*:  n/a")
	assert.Contains(t, out, "*Avg. High/Low*:  3.1% / -2.4%")
	assert.Contains(t, out, "*Avg. 🟢 Performance*:  +3.50%")
	assert.Contains(t, out, "*Avg. 🔴 Performance*:  -2.00%")
	assert.True(t, strings.HasPrefix(out, rule))
}

func TestFormatGapStats_NoTruncationLabel(t *testing.T) {
	out := FormatGapStats(model.GapSummary{Ticker: "X", Count: 1, Dates: []string{"2024-01-01"}})
	assert.Contains(t, out, "*Dates*:  2024-01-01\n")
}

func TestFormatGapStats_Empty(t *testing.T) {
	out := FormatGapStats(model.GapSummary{Ticker: "AAPL", Threshold: 12.5})
	assert.Equal(t, "No gaps above 12.5% for AAPL", out)
}

func TestFormatGapHeader(t *testing.T) {
	assert.Equal(t, "Ticker: AAPL | Percent: 5", FormatGapHeader("AAPL", 5))
}

func TestFormatDailyReport(t *testing.T) {
	out := FormatDailyReport("2024-07-01", []model.DailyRecord{{
		Ticker: "AAPL", Open: 100, High: 105, Low: 99, Close: 102,
		HighTime: "10:15:00", LowTime: "09:31:00", Volume: 60_402_929,
	}}, []string{"MSFT"})

	assert.Contains(t, out, "2024-07-01")
	assert.Contains(t, out, "H 105.00 (10:15)")
	assert.Contains(t, out, "+2.00%")
	assert.Contains(t, out, "Vol 60.4M")
	assert.Contains(t, out, "Skipped: MSFT")
}

func TestCommandOption(t *testing.T) {
	c := Command{Options: map[string]string{"ticker": "  aapl msft "}}
	assert.Equal(t, "aapl msft", c.Option("ticker"))
	assert.Equal(t, "", c.Option("date"))
}

func TestAllowed(t *testing.T) {
	d := &DiscordNotifier{GuildIDs: []string{"1", "2"}}
	assert.True(t, d.Allowed("2"))
	assert.False(t, d.Allowed("3"))
	assert.True(t, (&DiscordNotifier{}).Allowed("anything"))
}

func TestSlashCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range SlashCommands() {
		names[c.Name] = true
		seenOptional := false
		for _, o := range c.Options {
			if !o.Required {
				seenOptional = true
			} else {
				assert.False(t, seenOptional, "%s: required option %s after optional", c.Name, o.Name)
			}
		}
	}
	for _, n := range []string{CmdStockData, CmdTimerangeChart, CmdDailyChart, CmdChart, CmdGapStats} {
		assert.True(t, names[n], n)
	}
}
