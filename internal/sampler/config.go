package sampler

import (
	"fmt"
	"os"
	"strconv"
)

// Supported selection strategies.
const (
	StrategyTopPercent = "top_percent"
	StrategyThreshold  = "threshold"
	StrategyPercentile = "percentile"
)

// Config selects and parameterizes the hard-example sampler.
type Config struct {
	Strategy    string  `toml:"strategy"`
	TopKPercent float64 `toml:"top_k_percent"`
	Threshold   float64 `toml:"threshold"`
	Percentile  float64 `toml:"percentile"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Strategy    string
	TopKPercent string
	Threshold   string
	Percentile  string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	_, err := New(c)
	return err
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Strategy != "" {
		c.Strategy = overlay.Strategy
	}
	if overlay.TopKPercent != 0 {
		c.TopKPercent = overlay.TopKPercent
	}
	if overlay.Threshold != 0 {
		c.Threshold = overlay.Threshold
	}
	if overlay.Percentile != 0 {
		c.Percentile = overlay.Percentile
	}
}

func (c *Config) loadDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyTopPercent
	}
	if c.TopKPercent == 0 {
		c.TopKPercent = 0.1
	}
	if c.Percentile == 0 {
		c.Percentile = 90
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Strategy != "" {
		if v := os.Getenv(env.Strategy); v != "" {
			c.Strategy = v
		}
	}
	parse := func(name string, dst *float64) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	parse(env.TopKPercent, &c.TopKPercent)
	parse(env.Threshold, &c.Threshold)
	parse(env.Percentile, &c.Percentile)
}

// New builds the sampler selected by cfg.
func New(cfg *Config) (Sampler, error) {
	switch cfg.Strategy {
	case StrategyTopPercent:
		return NewTopPercent(cfg.TopKPercent)
	case StrategyThreshold:
		return NewThreshold(cfg.Threshold)
	case StrategyPercentile:
		return NewPercentile(cfg.Percentile)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, cfg.Strategy)
	}
}
