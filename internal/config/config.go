package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"fleet-ops-report/internal/generator"
	"fleet-ops-report/internal/models"
)

// EnvPrefix scopes environment overrides: FLEET_SERVER__ADDR sets server.addr.
const EnvPrefix = "FLEET_"

type Config struct {
	Generator GeneratorConfig `json:"generator"`
	Cache     CacheConfig     `json:"cache"`
	Server    ServerConfig    `json:"server"`
	Log       LogConfig       `json:"log"`
	DB        DBConfig        `json:"db"`
}

// GeneratorConfig holds the synthetic source parameters.
type GeneratorConfig struct {
	Count     int `json:"count"`
	FleetSize int `json:"fleet_size"`
	// Seed makes generation reproducible; nil draws a fresh seed per load.
	Seed      *uint64 `json:"seed"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	FuelPrice float64 `json:"fuel_price"`
}

func (c *GeneratorConfig) SetDefaults() {
	if c.Count == 0 {
		c.Count = generator.DefaultCount
	}
	if c.FleetSize == 0 {
		c.FleetSize = generator.DefaultFleetSize
	}
	if c.Start == "" {
		c.Start = generator.DefaultWindow.Start.Format(models.DateLayout)
	}
	if c.End == "" {
		c.End = generator.DefaultWindow.End.Format(models.DateLayout)
	}
	if c.FuelPrice == 0 {
		c.FuelPrice = generator.DefaultFuelPrice
	}
}

func (c GeneratorConfig) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("generator.count must be >= 0")
	}
	if c.FleetSize < 1 || c.FleetSize > generator.MaxFleetSize {
		return fmt.Errorf("generator.fleet_size must be between 1 and %d", generator.MaxFleetSize)
	}
	if c.FuelPrice < 0 {
		return fmt.Errorf("generator.fuel_price must be >= 0")
	}
	if _, err := c.Window(); err != nil {
		return fmt.Errorf("generator window: %w", err)
	}
	return nil
}

// Window returns the campaign window as a validated date range.
func (c GeneratorConfig) Window() (models.DateRange, error) {
	return models.ParseDateRange([]string{c.Start, c.End})
}

// CacheConfig bounds the source cache. MaxEntries 0 means unbounded and
// TTLSeconds 0 disables age-based eviction.
type CacheConfig struct {
	MaxEntries int `json:"max_entries"`
	TTLSeconds int `json:"ttl_seconds"`
}

func (c *CacheConfig) SetDefaults() {
	if c.MaxEntries == 0 {
		c.MaxEntries = 32
	}
}

func (c CacheConfig) Validate() error {
	if c.MaxEntries < 0 || c.TTLSeconds < 0 {
		return fmt.Errorf("cache limits cannot be negative")
	}
	return nil
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type ServerConfig struct {
	Addr                string `json:"addr"`
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = 10
	}
	if c.WriteTimeoutSeconds == 0 {
		c.WriteTimeoutSeconds = 30
	}
}

type LogConfig struct {
	Level string `json:"level"`
}

func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %s", c.Level)
}

// DBConfig points at an optional SQLite event feed.
type DBConfig struct {
	Path string `json:"path"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (cfg *Config) setDefaults() {
	cfg.Generator.SetDefaults()
	cfg.Cache.SetDefaults()
	cfg.Server.SetDefaults()
	cfg.Log.SetDefaults()
}

// Load reads path (YAML or JSON, optional when empty) and applies
// environment overrides, defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Generator.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cache.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Log.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
