package pipeline

import (
	"log/slog"

	"github.com/JaimeStill/advsynth/internal/generator"
	"github.com/JaimeStill/advsynth/internal/prompts"
	"github.com/JaimeStill/advsynth/internal/sampler"
	"github.com/JaimeStill/advsynth/internal/uncertainty"
	"github.com/JaimeStill/advsynth/pkg/storage"
)

// PromptSource produces adversarial prompts for a class label.
type PromptSource interface {
	Check(n int) error
	Generate(class string, n int) (prompts.Set, error)
}

// Runtime bundles the collaborators each stage requires.
// Recorder and Metrics are optional.
type Runtime struct {
	Estimator uncertainty.Estimator
	Sampler   sampler.Sampler
	Prompts   PromptSource
	Backend   generator.Backend
	Storage   storage.System
	Recorder  Recorder
	Metrics   *Metrics
	Logger    *slog.Logger
}

// Settings are the per-run generation parameters.
type Settings struct {
	Variants       int
	Steps          int
	Options        generator.Options
	KeyPrefix      string
	PersistWorkers int
}
