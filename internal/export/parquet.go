package export

import (
	"github.com/parquet-go/parquet-go"

	"StockBot/internal/model"
)

// ParquetExporter writes a Parquet file with optional columns for nullable fields.
type ParquetExporter struct{}

func (ParquetExporter) Extension() string   { return "parquet" }
func (ParquetExporter) ContentType() string { return "application/vnd.apache.parquet" }

type parquetRow struct {
	Ticker            string   `parquet:"ticker"`
	Date              string   `parquet:"date"`
	Open              float64  `parquet:"open"`
	Close             float64  `parquet:"close"`
	High              float64  `parquet:"high"`
	Low               float64  `parquet:"low"`
	HighTime          string   `parquet:"high_time"`
	LowTime           string   `parquet:"low_time"`
	Volume            int64    `parquet:"volume"`
	PMHigh            *float64 `parquet:"pm_high,optional"`
	PMLow             *float64 `parquet:"pm_low,optional"`
	PMHighTime        *string  `parquet:"pm_high_time,optional"`
	PMLowTime         *string  `parquet:"pm_low_time,optional"`
	PMVolume          *int64   `parquet:"pm_volume,optional"`
	AHHigh            *float64 `parquet:"ah_high,optional"`
	AHLow             *float64 `parquet:"ah_low,optional"`
	AHHighTime        *string  `parquet:"ah_high_time,optional"`
	AHLowTime         *string  `parquet:"ah_low_time,optional"`
	AHVolume          *int64   `parquet:"ah_volume,optional"`
	MarketCap         *float64 `parquet:"market_cap,optional"`
	SharesOutstanding *float64 `parquet:"shares_outstanding,optional"`
}

func (ParquetExporter) Write(records []model.DailyRecord, path string) error {
	rows := make([]parquetRow, len(records))
	for i, r := range records {
		rows[i] = parquetRow{
			Ticker: r.Ticker, Date: r.Date,
			Open: r.Open, Close: r.Close, High: r.High, Low: r.Low,
			HighTime: r.HighTime, LowTime: r.LowTime, Volume: r.Volume,
			PMHigh: r.PreMarket.High.Ptr(), PMLow: r.PreMarket.Low.Ptr(),
			PMHighTime: r.PreMarket.HighTime.Ptr(), PMLowTime: r.PreMarket.LowTime.Ptr(),
			PMVolume: r.PreMarket.Volume.Ptr(),
			AHHigh:   r.AfterHours.High.Ptr(), AHLow: r.AfterHours.Low.Ptr(),
			AHHighTime: r.AfterHours.HighTime.Ptr(), AHLowTime: r.AfterHours.LowTime.Ptr(),
			AHVolume:          r.AfterHours.Volume.Ptr(),
			MarketCap:         r.MarketCap.Ptr(),
			SharesOutstanding: r.WeightedSharesOutstanding.Ptr(),
		}
	}
	return parquet.WriteFile(path, rows)
}
