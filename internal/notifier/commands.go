package notifier

import "github.com/bwmarrin/discordgo"

// Slash command names.
const (
	CmdStockData      = "stock_data"
	CmdTimerangeChart = "timerange_candle_stick_chart"
	CmdDailyChart     = "daily_candle_stick_chart"
	CmdChart          = "chart"
	CmdGapStats       = "gap_stats"
)

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

// SlashCommands describes every command the bot registers.
func SlashCommands() []*discordgo.ApplicationCommand {
	tickers := stringOption("ticker", "Stock symbols (separate with space)", true)
	date := stringOption("date", "YYYY-MM-DD (default: today)", false)
	return []*discordgo.ApplicationCommand{
		{
			Name:        CmdStockData,
			Description: "Get stock data in a spreadsheet",
			Options:     []*discordgo.ApplicationCommandOption{tickers, date},
		},
		{
			Name:        CmdTimerangeChart,
			Description: "Get candle stick chart for a time range",
			Options: []*discordgo.ApplicationCommandOption{
				tickers,
				stringOption("time1", "Start time (HH:MM)", true),
				stringOption("time2", "End time (HH:MM)", true),
				date,
			},
		},
		{
			Name:        CmdDailyChart,
			Description: "Get daily candle stick chart",
			Options:     []*discordgo.ApplicationCommandOption{tickers, date},
		},
		{
			Name:        CmdChart,
			Description: "Candle stick chart with time intervals",
			Options: []*discordgo.ApplicationCommandOption{
				tickers,
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "timeframe",
					Description: "Bar timespan",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "minute", Value: "minute"},
						{Name: "hour", Value: "hour"},
						{Name: "day", Value: "day"},
						{Name: "week", Value: "week"},
					},
				},
				stringOption("unit", "Number of timespans per bar", true),
				date,
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "more_data",
					Description: "Extend the lookback window",
				},
			},
		},
		{
			Name:        CmdGapStats,
			Description: "Get gap stats above a certain percentage",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("ticker", "Stock symbol", true),
				stringOption("percent", "Gap percent threshold", true),
			},
		},
	}
}
