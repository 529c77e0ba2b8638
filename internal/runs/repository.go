package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/advsynth/internal/pipeline"
	"github.com/JaimeStill/advsynth/pkg/pagination"
	"github.com/JaimeStill/advsynth/pkg/query"
	"github.com/JaimeStill/advsynth/pkg/repository"
	"github.com/JaimeStill/advsynth/pkg/storage"
)

var runErrors = repository.ErrorMap{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
}

var artifactErrors = repository.ErrorMap{
	NotFound:      ErrArtifactNotFound,
	Duplicate:     ErrDuplicate,
	MissingParent: ErrNotFound,
}

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a run registry implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (r *repo) Handler(exec Executor) *Handler {
	return NewHandler(r, exec, r.logger, r.pagination)
}

func (r *repo) Start(ctx context.Context, info pipeline.RunInfo) error {
	q := `
		INSERT INTO runs(id, status, batch_size, started_at)
		VALUES ($1, $2, $3, $4)`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, q, info.ID, pipeline.StatusRunning, info.BatchSize, info.StartedAt)
		return struct{}{}, err
	})
	if err != nil {
		return runErrors.Map(err)
	}

	r.logger.Info("run registered", "id", info.ID, "batch_size", info.BatchSize)
	return nil
}

func (r *repo) Record(ctx context.Context, artifacts []pipeline.Artifact) error {
	q := `
		INSERT INTO artifacts(
			id, run_id, label, sample_index, variant, score, prompt,
			storage_key, content_type, size_bytes, width, height
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for _, a := range artifacts {
			args := []any{
				a.ID, a.RunID, a.Label, a.SampleIndex, a.Variant, a.Score, a.Prompt,
				a.Key, a.ContentType, a.Size, a.Width, a.Height,
			}
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return artifactErrors.Map(err)
	}
	return nil
}

func (r *repo) Finish(ctx context.Context, runID uuid.UUID, s pipeline.Summary) error {
	q := `
		UPDATE runs
		SET status = $1, selected = $2, generated = $3, mean_entropy = $4,
			error = $5, completed_at = $6
		WHERE id = $7`

	var runErr *string
	if s.Error != "" {
		runErr = &s.Error
	}

	err := repository.ExecExpectOne(
		ctx, r.db, q,
		s.Status, s.Selected, s.Generated, s.MeanEntropy, runErr, s.CompletedAt, runID,
	)
	if err != nil {
		return runErrors.Map(err)
	}

	r.logger.Info("run finished", "id", runID, "status", s.Status, "generated", s.Generated)
	return nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := filters.Apply(query.NewBuilder(runProjection, defaultRunSort))

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(runProjection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, runErrors.Map(err)
	}
	return &run, nil
}

func (r *repo) Artifacts(ctx context.Context, runID uuid.UUID) ([]Artifact, error) {
	if _, err := r.Find(ctx, runID); err != nil {
		return nil, err
	}

	q, args := query.NewBuilder(artifactProjection, artifactSort...).
		WhereEquals("RunID", runID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanArtifact)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	return items, nil
}

func (r *repo) FindArtifact(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	q, args := query.NewBuilder(artifactProjection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanArtifact)
	if err != nil {
		return nil, artifactErrors.Map(err)
	}
	return &a, nil
}

func (r *repo) OpenArtifact(ctx context.Context, id uuid.UUID) (*Artifact, io.ReadCloser, error) {
	a, err := r.FindArtifact(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := r.storage.Download(ctx, a.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s missing from storage", ErrArtifactNotFound, a.StorageKey)
		}
		return nil, nil, fmt.Errorf("download artifact: %w", err)
	}
	return a, rc, nil
}
