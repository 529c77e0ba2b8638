package generator

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported backends.
const (
	BackendDiffusers = "diffusers"
	BackendOpenAI    = "openai"
	BackendImagen    = "imagen"
)

var defaultModelIDs = map[string]string{
	BackendDiffusers: "runwayml/stable-diffusion-v1-5",
	BackendOpenAI:    "dall-e-3",
	BackendImagen:    "imagen-3.0-generate-002",
}

// Config selects a generation backend and its default sampling parameters.
type Config struct {
	Backend        string   `toml:"backend"`
	ID             string   `toml:"id"`
	Steps          int      `toml:"steps"`
	GuidanceScale  float64  `toml:"guidance_scale"`
	NegativePrompt string   `toml:"negative_prompt"`
	Width          int      `toml:"width"`
	Height         int      `toml:"height"`
	Device         string   `toml:"device"`
	Devices        []string `toml:"devices"`
	BaseURL        string   `toml:"base_url"`
	Token          string   `toml:"token"`
	Timeout        string   `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend       string
	ID            string
	Steps         string
	GuidanceScale string
	Device        string
	Devices       string
	BaseURL       string
	Token         string
	Timeout       string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Options returns the per-call options derived from the configured defaults.
func (c *Config) Options() Options {
	return Options{
		GuidanceScale:  c.GuidanceScale,
		NegativePrompt: c.NegativePrompt,
		Width:          c.Width,
		Height:         c.Height,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.ID != "" {
		c.ID = overlay.ID
	}
	if overlay.Steps != 0 {
		c.Steps = overlay.Steps
	}
	if overlay.GuidanceScale != 0 {
		c.GuidanceScale = overlay.GuidanceScale
	}
	if overlay.NegativePrompt != "" {
		c.NegativePrompt = overlay.NegativePrompt
	}
	if overlay.Width != 0 {
		c.Width = overlay.Width
	}
	if overlay.Height != 0 {
		c.Height = overlay.Height
	}
	if overlay.Device != "" {
		c.Device = overlay.Device
	}
	if overlay.Devices != nil {
		c.Devices = overlay.Devices
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendDiffusers
	}
	if c.ID == "" {
		c.ID = defaultModelIDs[c.Backend]
	}
	if c.Steps == 0 {
		c.Steps = 20
	}
	if c.GuidanceScale == 0 {
		c.GuidanceScale = 7.5
	}
	if c.Width == 0 {
		c.Width = 512
	}
	if c.Height == 0 {
		c.Height = 512
	}
	if c.Device == "" {
		c.Device = DeviceAuto
	}
	if c.BaseURL == "" && c.Backend == BackendDiffusers {
		c.BaseURL = "http://localhost:7860"
	}
	if c.Timeout == "" {
		c.Timeout = "5m"
	}
}

// loadEnv runs before defaults so a backend override also picks that backend's default model.
func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Backend, &c.Backend)
	set(env.ID, &c.ID)
	set(env.Device, &c.Device)
	set(env.BaseURL, &c.BaseURL)
	set(env.Token, &c.Token)
	set(env.Timeout, &c.Timeout)

	if env.Steps != "" {
		if v := os.Getenv(env.Steps); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Steps = n
			}
		}
	}
	if env.GuidanceScale != "" {
		if v := os.Getenv(env.GuidanceScale); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.GuidanceScale = f
			}
		}
	}
	if env.Devices != "" {
		if v := os.Getenv(env.Devices); v != "" {
			c.Devices = strings.Split(v, ",")
		}
	}
}

func (c *Config) validate() error {
	if _, ok := defaultModelIDs[c.Backend]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.Steps < 1 {
		return fmt.Errorf("steps must be >= 1, got %d", c.Steps)
	}
	if c.GuidanceScale < 0 {
		return fmt.Errorf("guidance_scale must be >= 0, got %v", c.GuidanceScale)
	}
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("invalid image size %dx%d", c.Width, c.Height)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.Backend != BackendDiffusers && c.Token == "" {
		return fmt.Errorf("token required for %s backend", c.Backend)
	}
	return nil
}
