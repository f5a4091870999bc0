package export

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"

	"StockBot/internal/model"
)

// JSONExporter writes an indented JSON array; unavailable values are null.
type JSONExporter struct{}

func (JSONExporter) Extension() string   { return "json" }
func (JSONExporter) ContentType() string { return "application/json" }

type jsonSession struct {
	High     null.Float  `json:"high"`
	Low      null.Float  `json:"low"`
	HighTime null.String `json:"high_time"`
	LowTime  null.String `json:"low_time"`
	Volume   null.Int    `json:"volume"`
}

type jsonRecord struct {
	Ticker            string      `json:"ticker"`
	Date              string      `json:"date"`
	Open              float64     `json:"open"`
	Close             float64     `json:"close"`
	High              float64     `json:"high"`
	Low               float64     `json:"low"`
	HighTime          string      `json:"high_time"`
	LowTime           string      `json:"low_time"`
	Volume            int64       `json:"volume"`
	PreMarket         jsonSession `json:"pre_market"`
	AfterHours        jsonSession `json:"after_hours"`
	MarketCap         null.Float  `json:"market_cap"`
	SharesOutstanding null.Float  `json:"shares_outstanding"`
}

func toJSONSession(s model.ExtendedSession) jsonSession {
	return jsonSession{High: s.High, Low: s.Low, HighTime: s.HighTime, LowTime: s.LowTime, Volume: s.Volume}
}

func (JSONExporter) Write(records []model.DailyRecord, path string) error {
	out := make([]jsonRecord, len(records))
	for i, r := range records {
		out[i] = jsonRecord{
			Ticker: r.Ticker, Date: r.Date,
			Open: r.Open, Close: r.Close, High: r.High, Low: r.Low,
			HighTime: r.HighTime, LowTime: r.LowTime, Volume: r.Volume,
			PreMarket:         toJSONSession(r.PreMarket),
			AfterHours:        toJSONSession(r.AfterHours),
			MarketCap:         r.MarketCap,
			SharesOutstanding: r.WeightedSharesOutstanding,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
