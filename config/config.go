package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete simulator configuration.
type Config struct {
	Accounts []AccountSeed  `json:"accounts" yaml:"accounts"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Schedule ScheduleConfig `json:"schedule" yaml:"schedule"`
	Symbols  []string       `json:"symbols" yaml:"symbols"`
}

// AccountSeed creates an account at startup if it does not exist yet.
type AccountSeed struct {
	ID       string `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
}

type DataConfig struct {
	CSVPath         string  `json:"csv_path" yaml:"csv_path"`
	StartingBalance float64 `json:"starting_balance" yaml:"starting_balance"`
}

// StoreConfig selects the persistence backends. Type covers accounts,
// holdings, limit orders and the transaction log; Candles selects the
// price history backend.
type StoreConfig struct {
	Type    string      `json:"type" yaml:"type"`       // "memory" or "sqlite"
	DBPath  string      `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	Candles string      `json:"candles" yaml:"candles"` // "memory" or "redis"
	Redis   RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db" yaml:"db"`
}

type ScheduleConfig struct {
	MatchInterval string `json:"match_interval" yaml:"match_interval"` // e.g. "1s"
	FeedInterval  string `json:"feed_interval" yaml:"feed_interval"`   // e.g. "40s"
}

func (s ScheduleConfig) ParseMatchInterval() (time.Duration, error) {
	return time.ParseDuration(s.MatchInterval)
}

func (s ScheduleConfig) ParseFeedInterval() (time.Duration, error) {
	return time.ParseDuration(s.FeedInterval)
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, choosing the format by file
// extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Data.CSVPath == "" {
		return fmt.Errorf("data.csv_path is required")
	}
	if c.Data.StartingBalance <= 0 {
		return fmt.Errorf("data.starting_balance must be positive")
	}
	if c.Store.Type != "memory" && c.Store.Type != "sqlite" {
		return fmt.Errorf("store.type must be 'memory' or 'sqlite'")
	}
	if c.Store.Type == "sqlite" && c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path required for sqlite store")
	}
	if c.Store.Candles != "memory" && c.Store.Candles != "redis" {
		return fmt.Errorf("store.candles must be 'memory' or 'redis'")
	}
	if c.Store.Candles == "redis" && c.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr required for redis candle store")
	}
	if _, err := c.Schedule.ParseMatchInterval(); err != nil {
		return fmt.Errorf("schedule.match_interval: %w", err)
	}
	if _, err := c.Schedule.ParseFeedInterval(); err != nil {
		return fmt.Errorf("schedule.feed_interval: %w", err)
	}
	for i, a := range c.Accounts {
		if a.ID == "" || a.Username == "" {
			return fmt.Errorf("accounts[%d]: id and username are required", i)
		}
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Accounts: []AccountSeed{
			{ID: "acct-1", Username: "demo"},
		},
		Data: DataConfig{
			CSVPath:         "./multi_stock_data.csv",
			StartingBalance: 10000.00,
		},
		Store: StoreConfig{
			Type:    "sqlite",
			DBPath:  "./stocksim.db",
			Candles: "memory",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Schedule: ScheduleConfig{
			MatchInterval: "1s",
			FeedInterval:  "40s",
		},
		Symbols: []string{"MSFT", "AAPL", "GOOGL", "AMZN", "TSLA", "NVDA", "NFLX", "META"},
	}
}
