package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
discord:
  token: yaml-token
  guild_ids: ["111", "222"]
polygon:
  api_key: yaml-key
  timeout: 10s
market:
  max_days_historical: 3
output:
  export_format: CSV
schedule:
  watchlist: [AAPL, MSFT]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "yaml-token", cfg.Discord.Token)
	assert.Equal(t, []string{"111", "222"}, cfg.Discord.GuildIDs)
	assert.Equal(t, 10*time.Second, cfg.Polygon.Timeout)
	assert.Equal(t, 3, *cfg.Market.MaxDaysHistorical)
	assert.Equal(t, "csv", cfg.Output.ExportFormat)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Schedule.Watchlist)

	assert.Equal(t, "America/New_York", cfg.Market.Timezone)
	assert.Equal(t, "09:30:00", cfg.Market.RegularOpen)
	assert.Equal(t, "15:59:00", cfg.Market.RegularClose)
	assert.Equal(t, 5000, cfg.Market.GapLookbackDays)
	assert.Equal(t, 4, cfg.Polygon.MaxConcurrency)
	assert.Equal(t, "0 5 16 * * 1-5", cfg.Schedule.DailyReportCron)
	assert.Equal(t, 2*time.Minute, cfg.CommandTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("POLYGON_API_KEY", "env-key")
	t.Setenv("DISCORD_GUILD_IDS", "9,8")
	t.Setenv("MAX_DAYS_HISTORICAL", "5")
	t.Setenv("COMMAND_TIMEOUT", "45s")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Discord.Token)
	assert.Equal(t, "env-key", cfg.Polygon.APIKey)
	assert.Equal(t, []string{"9", "8"}, cfg.Discord.GuildIDs)
	assert.Equal(t, 5, *cfg.Market.MaxDaysHistorical)
	assert.Equal(t, 45*time.Second, cfg.CommandTimeout)
	// Untouched by the environment.
	assert.Equal(t, 10*time.Second, cfg.Polygon.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "xlsx", cfg.Output.ExportFormat)
	require.NotNil(t, cfg.Market.MaxDaysHistorical)
	assert.Equal(t, 7, *cfg.Market.MaxDaysHistorical)
}

func TestLoad_ZeroLookbackKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "market:\n  max_days_historical: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Market.MaxDaysHistorical)
	assert.Equal(t, 0, *cfg.Market.MaxDaysHistorical)

	t.Setenv("MAX_DAYS_HISTORICAL", "0")
	cfg, err = Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 0, *cfg.Market.MaxDaysHistorical)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "discord: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Discord.Token = "" }},
		{"missing api key", func(c *Config) { c.Polygon.APIKey = "" }},
		{"bad export format", func(c *Config) { c.Output.ExportFormat = "pdf" }},
		{"bad chart format", func(c *Config) { c.Output.ChartFormat = "gif" }},
		{"bad timezone", func(c *Config) { c.Market.Timezone = "Mars/Olympus" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"negative lookback", func(c *Config) { n := -1; c.Market.MaxDaysHistorical = &n }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, sampleYAML))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
