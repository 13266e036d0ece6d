package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/backtester/asset"
	"github.com/rustyeddy/backtester/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config represents a complete backtest run
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Assets   []AssetConfig  `json:"assets" yaml:"assets"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Log      logging.Config `json:"log" yaml:"log"`

	// baseDir resolves relative data paths. Set by LoadFromFile.
	baseDir string
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Name           string  `json:"name" yaml:"name"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
}

// StrategyConfig selects a registered strategy and its parameters
type StrategyConfig struct {
	Name   string             `json:"name" yaml:"name"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// AssetConfig describes one instrument and where its data lives
type AssetConfig struct {
	Ticker string      `json:"ticker" yaml:"ticker"`
	Quotes string      `json:"quotes" yaml:"quotes"` // CSV with date, close, exec...
	Costs  CostsConfig `json:"costs" yaml:"costs"`

	// Margin is a notional fraction (<= 1) or dollars per unit. Unset means
	// a cash asset; an explicit 0 holds positions without any margin.
	Margin     *float64 `json:"margin,omitempty" yaml:"margin,omitempty"`
	MarginFile string   `json:"margin_file,omitempty" yaml:"margin_file,omitempty"`

	// PointValue defaults to 1.
	PointValue     float64 `json:"point_value,omitempty" yaml:"point_value,omitempty"`
	PointValueFile string  `json:"point_value_file,omitempty" yaml:"point_value_file,omitempty"`
}

// CostsConfig selects a cost model
type CostsConfig struct {
	Type  string  `json:"type" yaml:"type"` // none, percent, dollar or dynamic
	Value float64 `json:"value,omitempty" yaml:"value,omitempty"`
	File  string  `json:"file,omitempty" yaml:"file,omitempty"` // dynamic only
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type    string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath  string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrgPath string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	cfg.baseDir = filepath.Dir(path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
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

// Validate checks if the configuration is valid. Data files are not opened.
func (c *Config) Validate() error {
	if c.Account.InitialCapital < 0 {
		return fmt.Errorf("account.initial_capital must not be negative")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if len(c.Assets) == 0 {
		return fmt.Errorf("at least one asset is required")
	}

	seen := make(map[string]bool, len(c.Assets))
	for i, a := range c.Assets {
		if a.Ticker == "" {
			return fmt.Errorf("assets[%d].ticker is required", i)
		}
		if seen[a.Ticker] {
			return fmt.Errorf("duplicate asset ticker: %s", a.Ticker)
		}
		seen[a.Ticker] = true

		if a.Quotes == "" {
			return fmt.Errorf("asset %s: quotes file is required", a.Ticker)
		}
		switch a.Costs.Type {
		case "", "none":
		case "percent", "dollar":
			if a.Costs.Value < 0 {
				return fmt.Errorf("asset %s: costs.value must not be negative", a.Ticker)
			}
		case "dynamic":
			if a.Costs.File == "" {
				return fmt.Errorf("asset %s: costs.file required for dynamic costs", a.Ticker)
			}
		default:
			return fmt.Errorf("asset %s: unknown costs.type %q", a.Ticker, a.Costs.Type)
		}
		if a.Margin != nil && (math.IsNaN(*a.Margin) || *a.Margin < 0) {
			return fmt.Errorf("asset %s: margin must not be negative", a.Ticker)
		}
		if a.Margin != nil && a.MarginFile != "" {
			return fmt.Errorf("asset %s: margin and margin_file are exclusive", a.Ticker)
		}
		if a.PointValue < 0 {
			return fmt.Errorf("asset %s: point_value must not be negative", a.Ticker)
		}
		if a.PointValue > 0 && a.PointValueFile != "" {
			return fmt.Errorf("asset %s: point_value and point_value_file are exclusive", a.Ticker)
		}
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// BuildAssets loads the data files of every configured asset, in
// configuration order. Relative paths are resolved against the directory
// of the loaded config file.
func (c *Config) BuildAssets() ([]*asset.Asset, error) {
	out := make([]*asset.Asset, 0, len(c.Assets))
	for _, ac := range c.Assets {
		a, err := c.buildAsset(ac)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", ac.Ticker, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (c *Config) buildAsset(ac AssetConfig) (*asset.Asset, error) {
	quotes, err := asset.LoadQuotes(c.path(ac.Quotes))
	if err != nil {
		return nil, err
	}
	cfg := asset.Config{Ticker: ac.Ticker, Quotes: quotes}

	switch ac.Costs.Type {
	case "percent":
		cfg.Costs = asset.Percent(ac.Costs.Value)
	case "dollar":
		cfg.Costs = asset.Dollar(ac.Costs.Value)
	case "dynamic":
		table, err := asset.LoadCostTable(c.path(ac.Costs.File))
		if err != nil {
			return nil, err
		}
		cfg.Costs = asset.Dynamic(table)
	}

	switch {
	case ac.MarginFile != "":
		s, err := asset.LoadSeries(c.path(ac.MarginFile), "margin")
		if err != nil {
			return nil, err
		}
		cfg.Margin = asset.MarginSeriesOf(s)
	case ac.Margin != nil:
		cfg.Margin = asset.FixedMarginOf(*ac.Margin)
	}

	switch {
	case ac.PointValueFile != "":
		s, err := asset.LoadSeries(c.path(ac.PointValueFile), "point_value")
		if err != nil {
			return nil, err
		}
		cfg.PointValue = asset.PointValueSeriesOf(s)
	case ac.PointValue > 0:
		cfg.PointValue = asset.FixedPointValue(ac.PointValue)
	}

	return asset.New(cfg)
}

func (c *Config) path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Name:           "main",
			InitialCapital: 100000,
		},
		Strategy: StrategyConfig{
			Name:   "ma_cross",
			Params: map[string]float64{"fast": 10, "slow": 30, "units": 100},
		},
		Assets: []AssetConfig{
			{
				Ticker: "SPY",
				Quotes: "data/SPY.csv",
				Costs:  CostsConfig{Type: "percent", Value: 0.0005},
			},
		},
		Journal: JournalConfig{
			Type: "csv",
			Dir:  "./journal",
		},
		Log: logging.DefaultConfig(),
	}
}
