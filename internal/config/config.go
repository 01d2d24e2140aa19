package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Tax struct {
		TargetYear       int     `yaml:"target_year"`
		CarriedCosts     float64 `yaml:"carried_costs"`
		ExtraStablecoins string  `yaml:"extra_stablecoins"` // comma-separated
	} `yaml:"tax"`
	Input struct {
		Path      string `yaml:"path"`
		Separator string `yaml:"separator"` // empty = autodetect
	} `yaml:"input"`
	Output struct {
		Path string `yaml:"path"`
	} `yaml:"output"`
	Sources struct {
		NBPBaseURL    string `yaml:"nbp_base_url"`
		KlinesBaseURL string `yaml:"klines_base_url"`
	} `yaml:"sources"`
	Cache struct {
		SQLitePath string `yaml:"sqlite_path"` // empty = in-memory only
	} `yaml:"cache"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is fine; defaults still apply.
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

	// Environment variable overrides
	if v := os.Getenv("PIT38_TARGET_YEAR"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			cfg.Tax.TargetYear = year
		}
	}
	if v := os.Getenv("PIT38_CARRIED_COSTS"); v != "" {
		if costs, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tax.CarriedCosts = costs
		}
	}
	if v := os.Getenv("PIT38_EXTRA_STABLECOINS"); v != "" {
		cfg.Tax.ExtraStablecoins = v
	}
	if v := os.Getenv("NBP_BASE_URL"); v != "" {
		cfg.Sources.NBPBaseURL = v
	}
	if v := os.Getenv("KLINES_BASE_URL"); v != "" {
		cfg.Sources.KlinesBaseURL = v
	}
	if v := os.Getenv("PIT38_CACHE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}

	// Defaults
	if cfg.Tax.TargetYear == 0 {
		cfg.Tax.TargetYear = time.Now().Year() - 1
	}

	return cfg, nil
}

// Validate checks that the configuration is usable for a run.
func (c *Config) Validate() error {
	if c.Tax.TargetYear < 2009 {
		return fmt.Errorf("tax.target_year must be a plausible tax year, got %d", c.Tax.TargetYear)
	}
	if c.Tax.CarriedCosts < 0 {
		return fmt.Errorf("tax.carried_costs must be non-negative")
	}
	if len(c.Input.Separator) > 1 {
		return fmt.Errorf("input.separator must be a single character")
	}
	return nil
}

// ExtraStablecoinList splits the comma-separated stablecoin symbols.
func (c *Config) ExtraStablecoinList() []string {
	var out []string
	for _, s := range strings.Split(c.Tax.ExtraStablecoins, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SeparatorRune returns the configured delimiter, 0 meaning autodetect.
func (c *Config) SeparatorRune() rune {
	if c.Input.Separator == "" {
		return 0
	}
	return rune(c.Input.Separator[0])
}
