package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Discord struct {
		Token           string   `yaml:"token" envconfig:"DISCORD_TOKEN" validate:"required"`
		GuildIDs        []string `yaml:"guild_ids" envconfig:"DISCORD_GUILD_IDS"`
		ReportChannelID string   `yaml:"report_channel_id" envconfig:"DISCORD_REPORT_CHANNEL_ID"`
	} `yaml:"discord"`
	Polygon struct {
		APIKey            string        `yaml:"api_key" envconfig:"POLYGON_API_KEY" validate:"required"`
		Timeout           time.Duration `yaml:"timeout" envconfig:"POLYGON_TIMEOUT" validate:"gt=0"`
		RequestsPerMinute int           `yaml:"requests_per_minute" envconfig:"POLYGON_REQUESTS_PER_MINUTE" validate:"gte=0"`
		MaxConcurrency    int           `yaml:"max_concurrency" envconfig:"POLYGON_MAX_CONCURRENCY" validate:"gte=1,lte=64"`
	} `yaml:"polygon"`
	Market struct {
		Timezone          string `yaml:"timezone" envconfig:"MARKET_TIMEZONE" validate:"required"`
		RegularOpen       string `yaml:"regular_open" validate:"required"`
		RegularClose      string `yaml:"regular_close" validate:"required"`
		MaxDaysHistorical *int   `yaml:"max_days_historical" envconfig:"MAX_DAYS_HISTORICAL" validate:"required,gte=0"` // 0 allows only today
		GapLookbackDays   int    `yaml:"gap_lookback_days" envconfig:"GAP_LOOKBACK_DAYS" validate:"gte=1"`
	} `yaml:"market"`
	Output struct {
		Dir          string        `yaml:"dir" envconfig:"OUTPUT_DIR" validate:"required"`
		ExportFormat string        `yaml:"export_format" envconfig:"EXPORT_FORMAT" validate:"oneof=xlsx csv json parquet"`
		ChartFormat  string        `yaml:"chart_format" envconfig:"CHART_FORMAT" validate:"oneof=png jpg"`
		RetainFor    time.Duration `yaml:"retain_for" validate:"gt=0"`
	} `yaml:"output"`
	Schedule struct {
		DailyReportCron string   `yaml:"daily_report_cron" envconfig:"CRON_DAILY_REPORT"`
		CleanupCron     string   `yaml:"cleanup_cron"`
		Watchlist       []string `yaml:"watchlist" envconfig:"WATCHLIST"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database"`
	Metrics struct {
		Addr      string `yaml:"addr" envconfig:"METRICS_ADDR"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level" envconfig:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" envconfig:"LOG_FORMAT" validate:"oneof=console json"`
	} `yaml:"log"`
	CommandTimeout time.Duration `yaml:"command_timeout" envconfig:"COMMAND_TIMEOUT" validate:"gt=0"`
	Proxy          string        `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Polygon.Timeout == 0 {
		c.Polygon.Timeout = 30 * time.Second
	}
	if c.Polygon.MaxConcurrency == 0 {
		c.Polygon.MaxConcurrency = 4
	}
	if c.Market.Timezone == "" {
		c.Market.Timezone = "America/New_York"
	}
	if c.Market.RegularOpen == "" {
		c.Market.RegularOpen = "09:30:00"
	}
	if c.Market.RegularClose == "" {
		c.Market.RegularClose = "15:59:00"
	}
	if c.Market.MaxDaysHistorical == nil {
		days := 7
		c.Market.MaxDaysHistorical = &days
	}
	if c.Market.GapLookbackDays == 0 {
		c.Market.GapLookbackDays = 5000
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "data/out"
	}
	if c.Output.ExportFormat == "" {
		c.Output.ExportFormat = "xlsx"
	}
	c.Output.ExportFormat = strings.ToLower(c.Output.ExportFormat)
	if c.Output.ChartFormat == "" {
		c.Output.ChartFormat = "png"
	}
	c.Output.ChartFormat = strings.ToLower(c.Output.ChartFormat)
	if c.Output.RetainFor == 0 {
		c.Output.RetainFor = time.Hour
	}
	if c.Schedule.DailyReportCron == "" {
		c.Schedule.DailyReportCron = "0 5 16 * * 1-5"
	}
	if c.Schedule.CleanupCron == "" {
		c.Schedule.CleanupCron = "0 */15 * * * *"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "stockbot"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = 2 * time.Minute
	}
}

// Validate checks that all required fields are set and well formed.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}
	return nil
}

// Location loads the exchange timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Market.Timezone)
}
