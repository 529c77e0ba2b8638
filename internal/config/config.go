// Package config loads the advsynth configuration: a base TOML file, an optional
// environment overlay, and ADVSYNTH_* environment variable overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/advsynth/internal/generator"
	"github.com/JaimeStill/advsynth/internal/pipeline"
	"github.com/JaimeStill/advsynth/internal/prompts"
	"github.com/JaimeStill/advsynth/internal/sampler"
	"github.com/JaimeStill/advsynth/internal/uncertainty"
	"github.com/JaimeStill/advsynth/pkg/database"
	"github.com/JaimeStill/advsynth/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAdvsynthEnv             = "ADVSYNTH_ENV"
	EnvAdvsynthLogLevel        = "ADVSYNTH_LOG_LEVEL"
	EnvAdvsynthShutdownTimeout = "ADVSYNTH_SHUTDOWN_TIMEOUT"
	EnvAdvsynthVersion         = "ADVSYNTH_VERSION"
)

var databaseEnv = &database.Env{
	Enabled:         "ADVSYNTH_DB_ENABLED",
	Host:            "ADVSYNTH_DB_HOST",
	Port:            "ADVSYNTH_DB_PORT",
	Name:            "ADVSYNTH_DB_NAME",
	User:            "ADVSYNTH_DB_USER",
	Password:        "ADVSYNTH_DB_PASSWORD",
	SSLMode:         "ADVSYNTH_DB_SSL_MODE",
	MaxOpenConns:    "ADVSYNTH_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ADVSYNTH_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ADVSYNTH_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ADVSYNTH_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "ADVSYNTH_STORAGE_PROVIDER",
	Root:             "ADVSYNTH_STORAGE_ROOT",
	ContainerName:    "ADVSYNTH_STORAGE_CONTAINER_NAME",
	ConnectionString: "ADVSYNTH_STORAGE_CONNECTION_STRING",
	AccountURL:       "ADVSYNTH_STORAGE_ACCOUNT_URL",
	Bucket:           "ADVSYNTH_STORAGE_BUCKET",
	CredentialsFile:  "ADVSYNTH_STORAGE_CREDENTIALS_FILE",
}

var selectionEnv = &sampler.Env{
	Strategy:    "ADVSYNTH_SELECTION_STRATEGY",
	TopKPercent: "ADVSYNTH_SELECTION_TOP_K_PERCENT",
	Threshold:   "ADVSYNTH_SELECTION_THRESHOLD",
	Percentile:  "ADVSYNTH_SELECTION_PERCENTILE",
}

var auditEnv = &uncertainty.Env{
	Strategy:      "ADVSYNTH_AUDIT_STRATEGY",
	MCSamples:     "ADVSYNTH_AUDIT_MC_SAMPLES",
	ModelPath:     "ADVSYNTH_AUDIT_MODEL_PATH",
	EnsemblePaths: "ADVSYNTH_AUDIT_ENSEMBLE_PATHS",
	Seed:          "ADVSYNTH_AUDIT_SEED",
}

var modelEnv = &generator.Env{
	Backend:       "ADVSYNTH_MODEL_BACKEND",
	ID:            "ADVSYNTH_MODEL_ID",
	Steps:         "ADVSYNTH_MODEL_STEPS",
	GuidanceScale: "ADVSYNTH_MODEL_GUIDANCE_SCALE",
	Device:        "ADVSYNTH_MODEL_DEVICE",
	Devices:       "ADVSYNTH_MODEL_DEVICES",
	BaseURL:       "ADVSYNTH_MODEL_BASE_URL",
	Token:         "ADVSYNTH_MODEL_TOKEN",
	Timeout:       "ADVSYNTH_MODEL_TIMEOUT",
}

var generationEnv = &prompts.Env{
	VariantsPerImage: "ADVSYNTH_GENERATION_VARIANTS_PER_IMAGE",
	Seed:             "ADVSYNTH_GENERATION_SEED",
	RejectDuplicates: "ADVSYNTH_GENERATION_REJECT_DUPLICATES",
}

var pipelineEnv = &pipeline.Env{
	KeyPrefix:      "ADVSYNTH_PIPELINE_KEY_PREFIX",
	PersistWorkers: "ADVSYNTH_PIPELINE_PERSIST_WORKERS",
}

// Config is the root configuration for advsynth.
type Config struct {
	Server     ServerConfig       `toml:"server"`
	Database   database.Config    `toml:"database"`
	Storage    storage.Config     `toml:"storage"`
	API        APIConfig          `toml:"api"`
	Selection  sampler.Config     `toml:"selection"`
	Audit      uncertainty.Config `toml:"audit"`
	Model      generator.Config   `toml:"model"`
	Generation prompts.Config     `toml:"generation"`
	Pipeline   pipeline.Config    `toml:"pipeline"`

	LogLevel        string `toml:"log_level"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	Version         string `toml:"version"`
}

// Env returns the ADVSYNTH_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAdvsynthEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(c.LogLevel))
	return lvl
}

// Load reads the config file at path (BaseConfigFile when empty), applies any
// environment overlay, and finalizes all values. A missing file at the default
// path is not an error: defaults and environment variables provide everything.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		path = BaseConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if explicit {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if overlay := overlayPath(); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Selection.Merge(&overlay.Selection)
	c.Audit.Merge(&overlay.Audit)
	c.Model.Merge(&overlay.Model)
	c.Generation.Merge(&overlay.Generation)
	c.Pipeline.Merge(&overlay.Pipeline)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Selection.Finalize(selectionEnv); err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	if err := c.Audit.Finalize(auditEnv); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if err := c.Model.Finalize(modelEnv); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.Generation.Finalize(generationEnv); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if err := c.Pipeline.Finalize(pipelineEnv); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAdvsynthLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvAdvsynthShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAdvsynthVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAdvsynthEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
