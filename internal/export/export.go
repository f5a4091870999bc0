// Package export writes daily records to spreadsheet-style files.
package export

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v6"

	"StockBot/internal/model"
)

// Exporter writes a batch of daily records to path.
type Exporter interface {
	Write(records []model.DailyRecord, path string) error
	Extension() string
	ContentType() string
}

// New returns the exporter for format (xlsx, csv, json, parquet).
func New(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "xlsx":
		return XLSXExporter{}, nil
	case "csv":
		return CSVExporter{}, nil
	case "json":
		return JSONExporter{}, nil
	case "parquet":
		return ParquetExporter{}, nil
	default:
		return nil, fmt.Errorf("export: unsupported format %q (use xlsx, csv, json or parquet)", format)
	}
}

// Columns is the header row shared by the tabular formats.
var Columns = []string{
	"ticker", "date", "open", "close", "high", "low", "high time", "low time", "volume",
	"pm high", "pm low", "pm high time", "pm low time", "pm volume",
	"ah high", "ah low", "ah high time", "ah low time", "ah volume",
	"market cap", "shares outstanding",
}

// cells flattens a record in Columns order. Null fields become nil.
func cells(r model.DailyRecord) []interface{} {
	return []interface{}{
		r.Ticker, r.Date, r.Open, r.Close, r.High, r.Low, r.HighTime, r.LowTime, r.Volume,
		nf(r.PreMarket.High), nf(r.PreMarket.Low), ns(r.PreMarket.HighTime), ns(r.PreMarket.LowTime), ni(r.PreMarket.Volume),
		nf(r.AfterHours.High), nf(r.AfterHours.Low), ns(r.AfterHours.HighTime), ns(r.AfterHours.LowTime), ni(r.AfterHours.Volume),
		nf(r.MarketCap), nf(r.WeightedSharesOutstanding),
	}
}

func nf(v null.Float) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func ni(v null.Int) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Int64
}

func ns(v null.String) interface{} {
	if !v.Valid {
		return nil
	}
	return v.String
}
