// Package runs implements the run registry: every pipeline run and the
// synthetic artifacts it persisted, backed by PostgreSQL and artifact storage.
package runs

import (
	"time"

	"github.com/google/uuid"
)

// Run is a registered pipeline run.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Status      string     `json:"status"`
	BatchSize   int        `json:"batch_size"`
	Selected    int        `json:"selected"`
	Generated   int        `json:"generated"`
	MeanEntropy float64    `json:"mean_entropy"`
	Error       *string    `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Artifact is a registered synthetic image and its storage reference.
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Label       string    `json:"label"`
	SampleIndex int       `json:"sample_index"`
	Variant     int       `json:"variant"`
	Score       float64   `json:"score"`
	Prompt      string    `json:"prompt"`
	StorageKey  string    `json:"storage_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   time.Time `json:"created_at"`
}
