package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10000.00, cfg.Data.StartingBalance)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, "memory", cfg.Store.Candles)
	assert.Len(t, cfg.Symbols, 8)

	match, err := cfg.Schedule.ParseMatchInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Second, match)

	feed, err := cfg.Schedule.ParseFeedInterval()
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, feed)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing csv path", func(c *Config) { c.Data.CSVPath = "" }, "csv_path"},
		{"zero balance", func(c *Config) { c.Data.StartingBalance = 0 }, "starting_balance"},
		{"bad store type", func(c *Config) { c.Store.Type = "postgres" }, "store.type"},
		{"sqlite without path", func(c *Config) { c.Store.DBPath = "" }, "db_path"},
		{"bad candle store", func(c *Config) { c.Store.Candles = "mongo" }, "store.candles"},
		{"redis without addr", func(c *Config) {
			c.Store.Candles = "redis"
			c.Store.Redis.Addr = ""
		}, "redis.addr"},
		{"bad match interval", func(c *Config) { c.Schedule.MatchInterval = "soon" }, "match_interval"},
		{"bad feed interval", func(c *Config) { c.Schedule.FeedInterval = "" }, "feed_interval"},
		{"account without username", func(c *Config) {
			c.Accounts = []AccountSeed{{ID: "a1"}}
		}, "accounts[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	content := `
accounts:
  - id: acct-1
    username: alice
data:
  csv_path: ./data.csv
  starting_balance: 5000
store:
  type: memory
  candles: memory
schedule:
  match_interval: 2s
  feed_interval: 30s
symbols: [AAPL, MSFT]
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Accounts[0].Username)
	assert.Equal(t, 5000.0, cfg.Data.StartingBalance)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Symbols)
}

func TestLoadFromFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Data.StartingBalance = 2500
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, loaded.Data.StartingBalance)
	assert.Equal(t, cfg.Symbols, loaded.Symbols)
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  csv_path: ''\n"), 0644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSaveRoundTripYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := Default()
	cfg.Store.Type = "memory"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", loaded.Store.Type)
	assert.Equal(t, cfg.Schedule, loaded.Schedule)
}
