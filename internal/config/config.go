package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

// Config is the planner server configuration read from planner.yaml.
type Config struct {
	Addr string `yaml:"addr"`
	// RatesPath points at a rates.yaml override file. Relative paths are
	// resolved against the directory of planner.yaml. Empty uses built-in tables.
	RatesPath string `yaml:"rates_path"`

	Limits   LimitsConfig   `yaml:"limits"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Journal  JournalConfig  `yaml:"journal"`
	Index    IndexConfig    `yaml:"index"`
	API      APIConfig      `yaml:"api"`
	WS       WSConfig       `yaml:"ws"`
}

type LimitsConfig struct {
	MaxRows int `yaml:"max_rows"`
	MaxCols int `yaml:"max_cols"`
}

type DefaultsConfig struct {
	Tiers          rates.Selection `yaml:"tiers"`
	NeighbourBonus float64         `yaml:"neighbour_bonus"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// IndexConfig enables the SQLite action index. It is fed from the same
// stream as the journal.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type APIConfig struct {
	CacheEntries int64 `yaml:"cache_entries"`
}

type WSConfig struct {
	OutQueue int `yaml:"out_queue"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("planner.yaml: %w", err)
	}
	if cfg.RatesPath != "" && !filepath.IsAbs(cfg.RatesPath) {
		cfg.RatesPath = filepath.Join(filepath.Dir(path), cfg.RatesPath)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("planner.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	lim := plan.DefaultLimits()
	return Config{
		Addr:     ":8080",
		Limits:   LimitsConfig{MaxRows: lim.MaxRows, MaxCols: lim.MaxCols},
		Defaults: DefaultsConfig{NeighbourBonus: rates.DefaultNeighbourBonus},
		Journal:  JournalConfig{Dir: "./data/journal"},
		Index:    IndexConfig{Path: "./data/index.db"},
		API:      APIConfig{CacheEntries: 4096},
		WS:       WSConfig{OutQueue: 16},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.Addr = strings.TrimSpace(c.Addr)
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	c.Journal.Dir = strings.TrimSpace(c.Journal.Dir)
	if c.Journal.Enabled && c.Journal.Dir == "" {
		c.Journal.Dir = "./data/journal"
	}
	c.Index.Path = strings.TrimSpace(c.Index.Path)
	if c.Index.Enabled && c.Index.Path == "" {
		c.Index.Path = "./data/index.db"
	}
	if c.API.CacheEntries <= 0 {
		c.API.CacheEntries = 4096
	}
	if c.WS.OutQueue <= 0 {
		c.WS.OutQueue = 16
	}
}

func (c Config) Validate() error {
	c.Normalize()
	if c.Limits.MaxRows < 0 || c.Limits.MaxRows > 256 {
		return fmt.Errorf("limits.max_rows must be in [0, 256]")
	}
	// The default layout is 3 wide, so a cap below that could never be honoured.
	if c.Limits.MaxCols != 0 && (c.Limits.MaxCols < 3 || c.Limits.MaxCols > 64) {
		return fmt.Errorf("limits.max_cols must be 0 or in [3, 64]")
	}
	if c.Limits.MaxRows != 0 && c.Limits.MaxRows < 3 {
		return fmt.Errorf("limits.max_rows must be 0 or >= 3")
	}
	b := c.Defaults.NeighbourBonus
	if math.IsNaN(b) || math.IsInf(b, 0) || b < 0 {
		return fmt.Errorf("defaults.neighbour_bonus must be >= 0")
	}
	if c.WS.OutQueue > 1024 {
		return fmt.Errorf("ws.out_queue must be <= 1024")
	}
	return nil
}

func (c Config) PlanLimits() plan.Limits {
	return plan.Limits{MaxRows: c.Limits.MaxRows, MaxCols: c.Limits.MaxCols}
}

// Catalog loads the configured rate catalog, or the built-in one when no
// override file is set.
func (c Config) Catalog() (*rates.Catalog, error) {
	if c.RatesPath == "" {
		return rates.DefaultCatalog(), nil
	}
	return rates.LoadCatalog(c.RatesPath)
}
