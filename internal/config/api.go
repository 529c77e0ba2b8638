package config

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/JaimeStill/advsynth/pkg/middleware"
	"github.com/JaimeStill/advsynth/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ADVSYNTH_CORS_ENABLED",
	Origins:          "ADVSYNTH_CORS_ORIGINS",
	AllowedMethods:   "ADVSYNTH_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ADVSYNTH_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ADVSYNTH_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ADVSYNTH_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "ADVSYNTH_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ADVSYNTH_PAGINATION_MAX_PAGE_SIZE",
}

var authEnv = &middleware.AuthEnv{
	Issuer:   "ADVSYNTH_AUTH_ISSUER",
	Audience: "ADVSYNTH_AUTH_AUDIENCE",
}

// APIConfig holds API routing, request limits, CORS, pagination, and auth settings.
type APIConfig struct {
	BasePath       string                `toml:"base_path"`
	MaxRequestSize string                `toml:"max_request_size"`
	CORS           middleware.CORSConfig `toml:"cors"`
	Pagination     pagination.Config     `toml:"pagination"`
	Auth           middleware.AuthConfig `toml:"auth"`
}

// MaxRequestSizeBytes returns MaxRequestSize in bytes. Finalize guarantees it parses.
func (c *APIConfig) MaxRequestSizeBytes() int64 {
	size, err := humanize.ParseBytes(c.MaxRequestSize)
	if err != nil {
		return 8 << 20
	}
	return int64(size)
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxRequestSize != "" {
		c.MaxRequestSize = overlay.MaxRequestSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.Auth.Merge(&overlay.Auth)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxRequestSize == "" {
		c.MaxRequestSize = "8MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("ADVSYNTH_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("ADVSYNTH_API_MAX_REQUEST_SIZE"); v != "" {
		c.MaxRequestSize = v
	}
}

func (c *APIConfig) validate() error {
	size, err := humanize.ParseBytes(c.MaxRequestSize)
	if err != nil {
		return fmt.Errorf("invalid max_request_size: %w", err)
	}
	if size == 0 {
		return fmt.Errorf("max_request_size must be positive")
	}
	return nil
}
