package runs

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/advsynth/internal/pipeline"
	"github.com/JaimeStill/advsynth/pkg/pagination"
)

// System defines the public contract for the run registry. It records
// pipeline runs as a pipeline.Recorder and serves them back for queries.
type System interface {
	pipeline.Recorder

	// Handler returns the HTTP handler; exec runs submitted batches.
	Handler(exec Executor) *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Run], error)
	Find(ctx context.Context, id uuid.UUID) (*Run, error)
	Artifacts(ctx context.Context, runID uuid.UUID) ([]Artifact, error)
	FindArtifact(ctx context.Context, id uuid.UUID) (*Artifact, error)
	// OpenArtifact streams an artifact's stored content. The caller closes the reader.
	OpenArtifact(ctx context.Context, id uuid.UUID) (*Artifact, io.ReadCloser, error)
}

// Executor runs a batch through the pipeline.
type Executor interface {
	Run(ctx context.Context, batch pipeline.Batch) (*pipeline.Result, error)
}
