package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config controls where artifacts are written and how uploads fan out.
type Config struct {
	KeyPrefix      string `toml:"key_prefix"`
	PersistWorkers int    `toml:"persist_workers"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	KeyPrefix      string
	PersistWorkers string
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
	if overlay.KeyPrefix != "" {
		c.KeyPrefix = overlay.KeyPrefix
	}
	if overlay.PersistWorkers != 0 {
		c.PersistWorkers = overlay.PersistWorkers
	}
}

func (c *Config) loadDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "synthetic"
	}
	if c.PersistWorkers == 0 {
		c.PersistWorkers = 4
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.KeyPrefix != "" {
		if v := os.Getenv(env.KeyPrefix); v != "" {
			c.KeyPrefix = v
		}
	}
	if env.PersistWorkers != "" {
		if v := os.Getenv(env.PersistWorkers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.PersistWorkers = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.PersistWorkers < 1 {
		return fmt.Errorf("persist_workers must be >= 1, got %d", c.PersistWorkers)
	}
	if strings.HasPrefix(c.KeyPrefix, "/") || strings.Contains(c.KeyPrefix, "..") {
		return fmt.Errorf("invalid key_prefix %q", c.KeyPrefix)
	}
	return nil
}
