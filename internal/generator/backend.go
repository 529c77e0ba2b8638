package generator

import (
	"fmt"
	"log/slog"
)

// New creates the backend selected by cfg.Backend. Nothing is loaded until
// Load or the first Generate call.
func New(cfg *Config, logger *slog.Logger) (Backend, error) {
	logger = logger.With("system", "generator", "backend", cfg.Backend, "model", cfg.ID)

	switch cfg.Backend {
	case BackendDiffusers:
		return newDiffusers(cfg, logger), nil
	case BackendOpenAI:
		return newOpenAI(cfg, logger), nil
	case BackendImagen:
		return newImagen(cfg, logger, connectImagen), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
