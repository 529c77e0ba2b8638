package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run outcomes reported to a Recorder.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusEmpty     = "empty"
	StatusFailed    = "failed"
)

// RunInfo describes a run as it starts.
type RunInfo struct {
	ID        uuid.UUID
	BatchSize int
	StartedAt time.Time
}

// Summary describes a run as it ends.
type Summary struct {
	Status      string
	Selected    int
	Generated   int
	MeanEntropy float64
	Error       string
	CompletedAt time.Time
}

// Recorder receives run lifecycle events so runs and artifacts can be registered externally.
// Record receives every artifact of one example and must store all of them or none.
type Recorder interface {
	Start(ctx context.Context, info RunInfo) error
	Record(ctx context.Context, artifacts []Artifact) error
	Finish(ctx context.Context, runID uuid.UUID, summary Summary) error
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) Start(context.Context, RunInfo) error { return nil }
func (NopRecorder) Record(context.Context, []Artifact) error { return nil }
func (NopRecorder) Finish(context.Context, uuid.UUID, Summary) error { return nil }
