package uncertainty

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JaimeStill/advsynth/internal/model"
)

// Supported audit strategies.
const (
	StrategySoftmax   = "softmax"
	StrategyMCDropout = "mc_dropout"
	StrategyEnsemble  = "ensemble"
)

// Config selects and parameterizes the audit strategy.
type Config struct {
	Strategy      string   `toml:"strategy"`
	MCSamples     int      `toml:"mc_samples"`
	ModelPath     string   `toml:"model_path"`
	EnsemblePaths []string `toml:"ensemble_paths"`
	Seed          uint64   `toml:"seed"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Strategy      string
	MCSamples     string
	ModelPath     string
	EnsemblePaths string
	Seed          string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Strategy != "" {
		c.Strategy = overlay.Strategy
	}
	if overlay.MCSamples != 0 {
		c.MCSamples = overlay.MCSamples
	}
	if overlay.ModelPath != "" {
		c.ModelPath = overlay.ModelPath
	}
	if overlay.EnsemblePaths != nil {
		c.EnsemblePaths = overlay.EnsemblePaths
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
}

func (c *Config) loadDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategySoftmax
	}
	if c.MCSamples == 0 {
		c.MCSamples = 20
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := os.Getenv(env.Strategy); env.Strategy != "" && v != "" {
		c.Strategy = v
	}
	if v := os.Getenv(env.MCSamples); env.MCSamples != "" && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MCSamples = n
		}
	}
	if v := os.Getenv(env.ModelPath); env.ModelPath != "" && v != "" {
		c.ModelPath = v
	}
	if v := os.Getenv(env.EnsemblePaths); env.EnsemblePaths != "" && v != "" {
		c.EnsemblePaths = strings.Split(v, ",")
	}
	if v := os.Getenv(env.Seed); env.Seed != "" && v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
}

func (c *Config) validate() error {
	switch c.Strategy {
	case StrategySoftmax:
	case StrategyMCDropout:
		if c.MCSamples < 1 {
			return fmt.Errorf("mc_samples must be >= 1, got %d", c.MCSamples)
		}
		if c.ModelPath == "" {
			return fmt.Errorf("model_path required for %s", c.Strategy)
		}
	case StrategyEnsemble:
		if len(c.EnsemblePaths) == 0 {
			return fmt.Errorf("ensemble_paths required for %s", c.Strategy)
		}
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	return nil
}

// New builds the estimator selected by cfg, loading any model files it names.
func New(cfg *Config) (Estimator, error) {
	switch cfg.Strategy {
	case StrategySoftmax:
		return SoftmaxEstimator{}, nil
	case StrategyMCDropout:
		m, err := model.Load(cfg.ModelPath, cfg.Seed)
		if err != nil {
			return nil, err
		}
		return NewMCDropout(m, cfg.MCSamples)
	case StrategyEnsemble:
		members := make([]model.Model, 0, len(cfg.EnsemblePaths))
		for i, path := range cfg.EnsemblePaths {
			m, err := model.Load(strings.TrimSpace(path), cfg.Seed+uint64(i))
			if err != nil {
				return nil, err
			}
			members = append(members, m)
		}
		return NewEnsemble(members...)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, cfg.Strategy)
	}
}
