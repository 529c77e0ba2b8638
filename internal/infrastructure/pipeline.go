package infrastructure

import (
	"context"
	"fmt"

	"github.com/JaimeStill/advsynth/internal/config"
	"github.com/JaimeStill/advsynth/internal/generator"
	"github.com/JaimeStill/advsynth/internal/pipeline"
	"github.com/JaimeStill/advsynth/internal/prompts"
	"github.com/JaimeStill/advsynth/internal/runs"
	"github.com/JaimeStill/advsynth/internal/sampler"
	"github.com/JaimeStill/advsynth/internal/uncertainty"
)

// Runs returns the run registry, or nil when the database is disabled.
func (i *Infrastructure) Runs(cfg *config.Config) runs.System {
	if i.Database == nil {
		return nil
	}
	return runs.New(i.Database.Connection(), i.Storage, i.Logger, cfg.API.Pagination)
}

// Pipeline assembles the orchestrator from the audit, selection, generation, and
// model sections of cfg. A nil recorder discards run events.
func (i *Infrastructure) Pipeline(cfg *config.Config, rec pipeline.Recorder) (*pipeline.Orchestrator, generator.Backend, error) {
	est, err := uncertainty.New(&cfg.Audit)
	if err != nil {
		return nil, nil, fmt.Errorf("estimator: %w", err)
	}

	smp, err := sampler.New(&cfg.Selection)
	if err != nil {
		return nil, nil, fmt.Errorf("sampler: %w", err)
	}

	backend, err := generator.New(&cfg.Model, i.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("backend: %w", err)
	}

	metrics, err := pipeline.NewMetrics(i.Registry)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}

	if rec == nil {
		rec = pipeline.NopRecorder{}
	}

	orch, err := pipeline.New(
		pipeline.Settings{
			Variants:       cfg.Generation.VariantsPerImage,
			Steps:          cfg.Model.Steps,
			Options:        cfg.Model.Options(),
			KeyPrefix:      cfg.Pipeline.KeyPrefix,
			PersistWorkers: cfg.Pipeline.PersistWorkers,
		},
		pipeline.Runtime{
			Estimator: est,
			Sampler:   smp,
			Prompts:   prompts.NewEngine(cfg.Generation.Seed, cfg.Generation.Policy()),
			Backend:   backend,
			Storage:   i.Storage,
			Recorder:  rec,
			Metrics:   metrics,
			Logger:    i.Logger,
		},
	)
	if err != nil {
		return nil, nil, err
	}

	return orch, backend, nil
}

// Warmup registers a startup hook that loads the backend ahead of the first run.
// A failed warmup is logged and retried lazily by the next generation call.
func (i *Infrastructure) Warmup(backend generator.Backend) {
	i.Lifecycle.OnStartup("generator", func(ctx context.Context) error {
		if err := backend.Load(ctx); err != nil {
			i.Logger.Warn("generator warmup failed", "error", err)
		}
		return nil
	})
}
