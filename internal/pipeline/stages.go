package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/advsynth/internal/generator"
	"github.com/JaimeStill/advsynth/internal/sampler"
	"github.com/JaimeStill/advsynth/internal/uncertainty"
)

func (o *Orchestrator) audit(ctx context.Context, logger *slog.Logger, batch Batch, res *Result) ([]float64, error) {
	defer o.rt.Metrics.observeStage(StageAudit, time.Now())

	_, scores, err := o.rt.Estimator.Estimate(ctx, batch.Inputs)
	if err != nil {
		if errors.Is(err, uncertainty.ErrShape) || errors.Is(err, uncertainty.ErrNonFinite) {
			return nil, fmt.Errorf("%w: audit: %w", ErrInvalidBatch, err)
		}
		return nil, fmt.Errorf("audit: %w", err)
	}
	if len(scores) != batch.Len() {
		return nil, fmt.Errorf("%w: estimator returned %d scores for %d examples", ErrInvalidBatch, len(scores), batch.Len())
	}

	res.Scores = scores
	if len(scores) > 0 {
		res.MeanEntropy, _ = stats.Mean(scores)
	}
	o.rt.Metrics.observeScores(scores)

	logger.InfoContext(ctx, "audit complete", "examples", len(scores), "mean_entropy", res.MeanEntropy)
	return scores, nil
}

func (o *Orchestrator) mine(ctx context.Context, logger *slog.Logger, scores []float64, res *Result) (sampler.Selection, error) {
	defer o.rt.Metrics.observeStage(StageMine, time.Now())

	sel, err := o.rt.Sampler.SelectBatch(scores)
	if err != nil {
		return sampler.Selection{}, fmt.Errorf("%w: mine: %w", ErrInvalidBatch, err)
	}

	res.Selection = sel
	o.rt.Metrics.observeSelected(sel.Len())

	logger.InfoContext(ctx, "mining complete", "selected", sel.Len(), "indices", sel.Indices)
	return sel, nil
}

// augment generates and persists the variants of one hard example.
func (o *Orchestrator) augment(
	ctx context.Context,
	logger *slog.Logger,
	runID uuid.UUID,
	label string,
	index int,
	score float64,
) ([]Artifact, error) {
	logger = logger.With("label", label, "index", index)

	set, err := o.rt.Prompts.Generate(label, o.settings.Variants)
	if err != nil {
		return nil, fmt.Errorf("%w: prompts for example %d: %w", ErrInvalidBatch, index, err)
	}
	if set.WithReplacement {
		logger.WarnContext(ctx, "prompts sampled with replacement", "variants", len(set.Prompts))
	}

	images, err := o.generate(ctx, set.Prompts)
	if err != nil {
		return nil, fmt.Errorf("example %d: %w", index, err)
	}

	artifacts := make([]Artifact, len(images))
	for i, img := range images {
		artifacts[i] = Artifact{
			ID:          uuid.New(),
			RunID:       runID,
			Label:       label,
			SampleIndex: index,
			Variant:     i,
			Score:       score,
			Prompt:      set.Prompts[i],
			Key:         ObjectKey(o.settings.KeyPrefix, runID, label, index, i, img.Ext()),
			ContentType: img.ContentType,
			Size:        int64(len(img.Data)),
			Width:       img.Width,
			Height:      img.Height,
		}
	}

	if err := o.persist(ctx, artifacts, images); err != nil {
		return nil, fmt.Errorf("example %d: %w", index, err)
	}

	var total uint64
	for _, a := range artifacts {
		total += uint64(a.Size)
	}
	logger.InfoContext(ctx, "example augmented", "artifacts", len(artifacts), "bytes", humanize.Bytes(total))
	return artifacts, nil
}

func (o *Orchestrator) generate(ctx context.Context, prompts []string) ([]generator.Image, error) {
	defer o.rt.Metrics.observeStage(StageGenerate, time.Now())

	images, err := o.rt.Backend.Generate(ctx, prompts, o.settings.Steps, o.settings.Options)
	if err != nil {
		if errors.Is(err, generator.ErrModelLoad) {
			return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if len(images) != len(prompts) {
		return nil, fmt.Errorf("%w: backend returned %d images for %d prompts", ErrGeneration, len(images), len(prompts))
	}
	return images, nil
}

// persist uploads one example's images concurrently, then records them as one
// unit. A failed upload or record removes the objects written for the example.
func (o *Orchestrator) persist(ctx context.Context, artifacts []Artifact, images []generator.Image) error {
	defer o.rt.Metrics.observeStage(StagePersist, time.Now())

	uploaded := make([]bool, len(artifacts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.PersistWorkers)

	for i := range artifacts {
		g.Go(func() error {
			a := artifacts[i]
			if err := o.rt.Storage.Upload(gctx, a.Key, bytes.NewReader(images[i].Data), a.ContentType); err != nil {
				return fmt.Errorf("upload %s: %w", a.Key, err)
			}
			uploaded[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.rollback(ctx, artifacts, uploaded)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	if err := o.rt.Recorder.Record(ctx, artifacts); err != nil {
		for i := range uploaded {
			uploaded[i] = true
		}
		o.rollback(ctx, artifacts, uploaded)
		return fmt.Errorf("%w: record: %w", ErrPersist, err)
	}

	o.rt.Metrics.observeGenerated(len(artifacts))
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, artifacts []Artifact, uploaded []bool) {
	ctx = context.WithoutCancel(ctx)
	for i, ok := range uploaded {
		if !ok {
			continue
		}
		if err := o.rt.Storage.Delete(ctx, artifacts[i].Key); err != nil {
			o.rt.Logger.WarnContext(ctx, "rollback delete failed", "key", artifacts[i].Key, "error", err)
		}
	}
}
