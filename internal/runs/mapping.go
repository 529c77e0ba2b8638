package runs

import (
	"net/url"

	"github.com/JaimeStill/advsynth/pkg/query"
	"github.com/JaimeStill/advsynth/pkg/repository"
)

var runProjection = query.
	NewProjectionMap("public", "runs", "r").
	Project("id", "ID").
	Project("status", "Status").
	Project("batch_size", "BatchSize").
	Project("selected", "Selected").
	Project("generated", "Generated").
	Project("mean_entropy", "MeanEntropy").
	Project("error", "Error").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt")

var artifactProjection = query.
	NewProjectionMap("public", "artifacts", "a").
	Project("id", "ID").
	Project("run_id", "RunID").
	Project("label", "Label").
	Project("sample_index", "SampleIndex").
	Project("variant", "Variant").
	Project("score", "Score").
	Project("prompt", "Prompt").
	Project("storage_key", "StorageKey").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("width", "Width").
	Project("height", "Height").
	Project("created_at", "CreatedAt")

var defaultRunSort = query.SortField{Field: "StartedAt", Descending: true}

var artifactSort = []query.SortField{
	{Field: "Score", Descending: true},
	{Field: "SampleIndex"},
	{Field: "Variant"},
}

// Filters contains optional filtering criteria for run queries.
// Nil fields are ignored.
type Filters struct {
	Status *string `json:"status,omitempty"`
	Sort   string  `json:"sort,omitempty"`
}

// Apply adds filter conditions and ordering to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("Status", f.Status)
	if fields := query.ParseSortFields(f.Sort); len(fields) > 0 {
		b.OrderByFields(fields)
	}
	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	f.Sort = values.Get("sort")
	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.ID,
		&r.Status,
		&r.BatchSize,
		&r.Selected,
		&r.Generated,
		&r.MeanEntropy,
		&r.Error,
		&r.StartedAt,
		&r.CompletedAt,
	)
	return r, err
}

func scanArtifact(s repository.Scanner) (Artifact, error) {
	var a Artifact
	err := s.Scan(
		&a.ID,
		&a.RunID,
		&a.Label,
		&a.SampleIndex,
		&a.Variant,
		&a.Score,
		&a.Prompt,
		&a.StorageKey,
		&a.ContentType,
		&a.SizeBytes,
		&a.Width,
		&a.Height,
		&a.CreatedAt,
	)
	return a, err
}
