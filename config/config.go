/*
Package config loads server configuration and seed fixtures from YAML.

PURPOSE:
  Command-line flags cover the basics (port, database path); the YAML
  file carries everything that is data rather than a switch: sweep
  tuning, the low-stock threshold, and an optional seed block that
  provisions locations, variants, and opening stock on startup.

EXAMPLE:
  port: 8080
  db: ./data/stock.db
  sweep:
    interval: 1m
    hold_ttl: 30m
  low_stock_threshold: 5
  seed:
    locations:
      - code: WH-EAST
        name: East Warehouse
    variants:
      - sku: TEE-RED-M
        name: Red Tee (M)
        price: "19.90"
    stock:
      - sku: TEE-RED-M
        location: WH-EAST
        quantity: 100

SEE ALSO:
  - cmd/server/main.go: Flag handling and seed application
*/
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIG
// =============================================================================

type Config struct {
	Port              int         `yaml:"port"`
	DB                string      `yaml:"db"`
	Sweep             SweepConfig `yaml:"sweep"`
	LowStockThreshold int         `yaml:"low_stock_threshold"`
	Seed              *Seed       `yaml:"seed,omitempty"`
}

type SweepConfig struct {
	Interval time.Duration `yaml:"interval"`
	HoldTTL  time.Duration `yaml:"hold_ttl"`
}

// Seed describes reference data and opening stock applied on startup.
// Seeding is idempotent at the caller's discretion: existing SKUs and
// location codes are skipped, opening stock is only applied to
// freshly created records.
type Seed struct {
	Locations []SeedLocation `yaml:"locations"`
	Variants  []SeedVariant  `yaml:"variants"`
	Stock     []SeedStock    `yaml:"stock"`
}

type SeedLocation struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type SeedVariant struct {
	SKU   string `yaml:"sku"`
	Name  string `yaml:"name"`
	Price string `yaml:"price,omitempty"` // decimal string; empty = no override
}

type SeedStock struct {
	SKU      string `yaml:"sku"`
	Location string `yaml:"location"` // location code
	Quantity int    `yaml:"quantity"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Port: 8080,
		DB:   "stock.db",
		Sweep: SweepConfig{
			Interval: 1 * time.Minute,
			HoldTTL:  30 * time.Minute,
		},
		LowStockThreshold: 5,
	}
}

// Load reads a YAML config file, filling unset fields from Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Port <= 0 {
		cfg.Port = 8080
	}
	if cfg.DB == "" {
		cfg.DB = "stock.db"
	}
	if cfg.Sweep.Interval <= 0 {
		cfg.Sweep.Interval = 1 * time.Minute
	}
	if cfg.Sweep.HoldTTL <= 0 {
		cfg.Sweep.HoldTTL = 30 * time.Minute
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 5
	}
	return cfg, nil
}
