// Package pipeline audits a batch for predictive uncertainty, mines its
// hardest examples, and persists adversarial synthetic variants of them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/JaimeStill/advsynth/internal/sampler"
)

// Stage names a step of a run.
type Stage string

const (
	StageAudit    Stage = "audit"
	StageMine     Stage = "mine"
	StageGenerate Stage = "generate"
	StagePersist  Stage = "persist"
)

// Batch is one unit of work: a label per example and the matching rows of
// estimator input (logits or features, depending on the audit strategy).
type Batch struct {
	Labels []string
	Inputs *mat.Dense
}

// Len reports the number of examples in the batch.
func (b Batch) Len() int {
	return len(b.Labels)
}

func (b Batch) validate() error {
	rows := 0
	if b.Inputs != nil && !b.Inputs.IsEmpty() {
		rows, _ = b.Inputs.Dims()
	}
	if rows != len(b.Labels) {
		return fmt.Errorf("%w: %d labels for %d input rows", ErrInvalidBatch, len(b.Labels), rows)
	}
	for i, l := range b.Labels {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("%w: label %d is empty", ErrInvalidBatch, i)
		}
	}
	return nil
}

// Artifact is a persisted synthetic image.
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Label       string    `json:"label"`
	SampleIndex int       `json:"sample_index"`
	Variant     int       `json:"variant"`
	Score       float64   `json:"score"`
	Prompt      string    `json:"prompt"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
}

// Result describes a finished or partially finished run.
type Result struct {
	RunID       uuid.UUID         `json:"run_id"`
	Status      string            `json:"status"`
	Scores      []float64         `json:"scores"`
	MeanEntropy float64           `json:"mean_entropy"`
	Selection   sampler.Selection `json:"selection"`
	Artifacts   []Artifact        `json:"artifacts"`
}

// Orchestrator runs batches through audit, mine, generate, and persist.
// Runs are serialized.
type Orchestrator struct {
	rt       Runtime
	settings Settings
	mu       sync.Mutex
}

// New validates the runtime and settings and returns an orchestrator.
func New(settings Settings, rt Runtime) (*Orchestrator, error) {
	var errs []error

	if rt.Estimator == nil {
		errs = append(errs, errors.New("estimator required"))
	}
	if rt.Sampler == nil {
		errs = append(errs, errors.New("sampler required"))
	}
	if rt.Prompts == nil {
		errs = append(errs, errors.New("prompt source required"))
	} else if err := rt.Prompts.Check(settings.Variants); err != nil {
		errs = append(errs, err)
	}
	if rt.Backend == nil {
		errs = append(errs, errors.New("generation backend required"))
	}
	if rt.Storage == nil {
		errs = append(errs, errors.New("storage required"))
	}
	if rt.Logger == nil {
		errs = append(errs, errors.New("logger required"))
	}
	if settings.Steps < 1 {
		errs = append(errs, fmt.Errorf("steps must be >= 1, got %d", settings.Steps))
	}
	if settings.Options.GuidanceScale < 0 {
		errs = append(errs, fmt.Errorf("guidance scale must be >= 0, got %v", settings.Options.GuidanceScale))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, errors.Join(errs...))
	}

	if rt.Recorder == nil {
		rt.Recorder = NopRecorder{}
	}
	if settings.PersistWorkers < 1 {
		settings.PersistWorkers = 1
	}
	rt.Logger = rt.Logger.With("system", "pipeline")

	return &Orchestrator{rt: rt, settings: settings}, nil
}

// Run processes one batch. On a mid-batch failure the returned Result holds
// the artifacts persisted before the failure alongside the error.
func (o *Orchestrator) Run(ctx context.Context, batch Batch) (*Result, error) {
	if err := batch.validate(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	res := &Result{
		RunID:     uuid.New(),
		Status:    StatusRunning,
		Scores:    []float64{},
		Selection: sampler.Selection{Indices: []int{}, Values: []float64{}},
		Artifacts: []Artifact{},
	}
	logger := o.rt.Logger.With("run_id", res.RunID)

	info := RunInfo{ID: res.RunID, BatchSize: batch.Len(), StartedAt: time.Now().UTC()}
	if err := o.rt.Recorder.Start(ctx, info); err != nil {
		return nil, fmt.Errorf("%w: register run: %w", ErrPersist, err)
	}

	logger.InfoContext(ctx, "run started", "batch_size", batch.Len())

	err := o.execute(ctx, logger, batch, res)
	o.finish(ctx, logger, res, err)

	return res, err
}

func (o *Orchestrator) execute(ctx context.Context, logger *slog.Logger, batch Batch, res *Result) error {
	scores, err := o.audit(ctx, logger, batch, res)
	if err != nil {
		return err
	}

	sel, err := o.mine(ctx, logger, scores, res)
	if err != nil {
		return err
	}

	if sel.Len() == 0 {
		logger.InfoContext(ctx, "no hard examples selected")
		res.Status = StatusEmpty
		return nil
	}

	for rank, idx := range sel.Indices {
		artifacts, err := o.augment(ctx, logger, res.RunID, batch.Labels[idx], idx, sel.Values[rank])
		if err != nil {
			return err
		}
		res.Artifacts = append(res.Artifacts, artifacts...)
	}

	res.Status = StatusCompleted
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, logger *slog.Logger, res *Result, runErr error) {
	summary := Summary{
		Status:      res.Status,
		Selected:    res.Selection.Len(),
		Generated:   len(res.Artifacts),
		MeanEntropy: res.MeanEntropy,
		CompletedAt: time.Now().UTC(),
	}

	if runErr != nil {
		res.Status = StatusFailed
		summary.Status = StatusFailed
		summary.Error = runErr.Error()
		logger.ErrorContext(ctx, "run failed", "error", runErr, "persisted", len(res.Artifacts))
	} else {
		logger.InfoContext(ctx, "run complete",
			"status", res.Status,
			"selected", summary.Selected,
			"generated", summary.Generated,
		)
	}

	o.rt.Metrics.observeRun(summary.Status)

	// The run record is closed even when ctx was cancelled mid-run.
	if err := o.rt.Recorder.Finish(context.WithoutCancel(ctx), res.RunID, summary); err != nil {
		logger.ErrorContext(ctx, "record run completion failed", "error", err)
	}
}
