package prompts

import (
	"fmt"
	"os"
	"strconv"
)

// Config controls how many adversarial variants are generated per hard example.
type Config struct {
	VariantsPerImage int    `toml:"variants_per_image"`
	Seed             uint64 `toml:"seed"`
	RejectDuplicates bool   `toml:"reject_duplicates"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	VariantsPerImage string
	Seed             string
	RejectDuplicates string
}

// Policy returns the duplicate policy. Phrases repeat past the catalog size
// unless RejectDuplicates is set.
func (c *Config) Policy() DuplicatePolicy {
	if c.RejectDuplicates {
		return DuplicatesReject
	}
	return DuplicatesAllow
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
	if overlay.VariantsPerImage != 0 {
		c.VariantsPerImage = overlay.VariantsPerImage
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.RejectDuplicates {
		c.RejectDuplicates = true
	}
}

func (c *Config) loadDefaults() {
	if c.VariantsPerImage == 0 {
		c.VariantsPerImage = 3
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.VariantsPerImage != "" {
		if v := os.Getenv(env.VariantsPerImage); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.VariantsPerImage = n
			}
		}
	}
	if env.Seed != "" {
		if v := os.Getenv(env.Seed); v != "" {
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				c.Seed = n
			}
		}
	}
	if env.RejectDuplicates != "" {
		if v := os.Getenv(env.RejectDuplicates); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.RejectDuplicates = b
			}
		}
	}
}

func (c *Config) validate() error {
	if c.VariantsPerImage < 1 {
		return fmt.Errorf("variants_per_image must be >= 1, got %d", c.VariantsPerImage)
	}
	if c.VariantsPerImage > len(Phrases()) && c.RejectDuplicates {
		return fmt.Errorf("variants_per_image %d exceeds %d distinct phrases with reject_duplicates set", c.VariantsPerImage, len(Phrases()))
	}
	return nil
}
