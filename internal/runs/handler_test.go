package runs_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/advsynth/internal/pipeline"
	"github.com/JaimeStill/advsynth/internal/runs"
	"github.com/JaimeStill/advsynth/pkg/pagination"
	"github.com/JaimeStill/advsynth/pkg/query"
	"github.com/JaimeStill/advsynth/pkg/routes"
)

type fakeSystem struct {
	pipeline.NopRecorder
	runs      map[uuid.UUID]runs.Run
	artifacts map[uuid.UUID]runs.Artifact
	content   map[uuid.UUID]string
}

func (f *fakeSystem) Handler(exec runs.Executor) *runs.Handler {
	return runs.NewHandler(f, exec, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 10, MaxPageSize: 50})
}

func (f *fakeSystem) List(_ context.Context, page pagination.PageRequest, _ runs.Filters) (*pagination.PageResult[runs.Run], error) {
	items := make([]runs.Run, 0, len(f.runs))
	for _, r := range f.runs {
		items = append(items, r)
	}
	res := pagination.NewPageResult(items, len(items), page.Page, page.PageSize)
	return &res, nil
}

func (f *fakeSystem) Find(_ context.Context, id uuid.UUID) (*runs.Run, error) {
	r, ok := f.runs[id]
	if !ok {
		return nil, runs.ErrNotFound
	}
	return &r, nil
}

func (f *fakeSystem) Artifacts(_ context.Context, runID uuid.UUID) ([]runs.Artifact, error) {
	if _, ok := f.runs[runID]; !ok {
		return nil, runs.ErrNotFound
	}
	var items []runs.Artifact
	for _, a := range f.artifacts {
		if a.RunID == runID {
			items = append(items, a)
		}
	}
	return items, nil
}

func (f *fakeSystem) FindArtifact(_ context.Context, id uuid.UUID) (*runs.Artifact, error) {
	a, ok := f.artifacts[id]
	if !ok {
		return nil, runs.ErrArtifactNotFound
	}
	return &a, nil
}

func (f *fakeSystem) OpenArtifact(ctx context.Context, id uuid.UUID) (*runs.Artifact, io.ReadCloser, error) {
	a, err := f.FindArtifact(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return a, io.NopCloser(strings.NewReader(f.content[id])), nil
}

type fakeExecutor struct {
	batches []pipeline.Batch
	result  *pipeline.Result
	err     error
}

func (e *fakeExecutor) Run(_ context.Context, b pipeline.Batch) (*pipeline.Result, error) {
	e.batches = append(e.batches, b)
	return e.result, e.err
}

func newServer(t *testing.T, sys *fakeSystem, exec *fakeExecutor) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler(exec).Routes()...)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateRequestBatch(t *testing.T) {
	tests := []struct {
		name    string
		req     runs.CreateRequest
		wantErr bool
	}{
		{"valid", runs.CreateRequest{Labels: []string{"cat", "dog"}, Logits: [][]float64{{1, 2}, {3, 4}}}, false},
		{"no labels", runs.CreateRequest{Logits: [][]float64{{1}}}, true},
		{"blank label", runs.CreateRequest{Labels: []string{""}, Logits: [][]float64{{1}}}, true},
		{"count mismatch", runs.CreateRequest{Labels: []string{"cat"}, Logits: [][]float64{{1}, {2}}}, true},
		{"ragged", runs.CreateRequest{Labels: []string{"a", "b"}, Logits: [][]float64{{1, 2}, {3}}}, true},
		{"empty row", runs.CreateRequest{Labels: []string{"a"}, Logits: [][]float64{{}}}, true},
		{"nan logit", runs.CreateRequest{Labels: []string{"a"}, Logits: [][]float64{{1, math.NaN()}}}, true},
		{"infinite logit", runs.CreateRequest{Labels: []string{"a"}, Logits: [][]float64{{math.Inf(-1)}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := tt.req.Batch()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, runs.ErrInvalidRequest) {
					t.Errorf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if r, c := batch.Inputs.Dims(); r != 2 || c != 2 || batch.Len() != 2 {
				t.Errorf("batch dims: %dx%d, len %d", r, c, batch.Len())
			}
		})
	}
}

func TestCreate(t *testing.T) {
	runID := uuid.New()
	exec := &fakeExecutor{result: &pipeline.Result{RunID: runID, Status: pipeline.StatusCompleted}}
	srv := newServer(t, &fakeSystem{}, exec)

	body := `{"labels": ["cat", "dog"], "logits": [[1, 2, 3], [0.1, 0.1, 0.1]]}`
	resp, err := http.Post(srv.URL+"/runs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", resp.StatusCode)
	}

	var res pipeline.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.RunID != runID || len(exec.batches) != 1 {
		t.Errorf("run id %s, batches %d", res.RunID, len(exec.batches))
	}
}

func TestCreateInvalidBody(t *testing.T) {
	exec := &fakeExecutor{}
	srv := newServer(t, &fakeSystem{}, exec)

	for _, body := range []string{`{`, `{"labels": ["cat"], "logits": []}`} {
		resp, err := http.Post(srv.URL+"/runs", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status %d, want 400", body, resp.StatusCode)
		}
	}
	if len(exec.batches) != 0 {
		t.Error("invalid request reached the pipeline")
	}
}

func TestCreatePartialFailure(t *testing.T) {
	exec := &fakeExecutor{
		result: &pipeline.Result{RunID: uuid.New(), Status: pipeline.StatusFailed, Artifacts: []pipeline.Artifact{{Key: "k"}}},
		err:    fmt.Errorf("%w: sidecar down", pipeline.ErrGeneration),
	}
	srv := newServer(t, &fakeSystem{}, exec)

	resp, err := http.Post(srv.URL+"/runs", "application/json", strings.NewReader(`{"labels": ["cat"], "logits": [[1, 1]]}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", resp.StatusCode)
	}

	var failed runs.FailedRun
	if err := json.NewDecoder(resp.Body).Decode(&failed); err != nil {
		t.Fatal(err)
	}
	if failed.Error == "" || failed.Result == nil || len(failed.Result.Artifacts) != 1 {
		t.Errorf("unexpected body: %+v", failed)
	}
}

func TestFindAndContent(t *testing.T) {
	runID := uuid.New()
	artID := uuid.New()
	sys := &fakeSystem{
		runs:      map[uuid.UUID]runs.Run{runID: {ID: runID, Status: pipeline.StatusCompleted}},
		artifacts: map[uuid.UUID]runs.Artifact{artID: {ID: artID, RunID: runID, ContentType: "image/png", SizeBytes: 4}},
		content:   map[uuid.UUID]string{artID: "\x89PNG"},
	}
	srv := newServer(t, sys, &fakeExecutor{})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"run", "/runs/" + runID.String(), http.StatusOK},
		{"run artifacts", "/runs/" + runID.String() + "/artifacts", http.StatusOK},
		{"missing run", "/runs/" + uuid.NewString(), http.StatusNotFound},
		{"bad id", "/runs/not-a-uuid", http.StatusBadRequest},
		{"artifact", "/artifacts/" + artID.String(), http.StatusOK},
		{"missing artifact", "/artifacts/" + uuid.NewString() + "/content", http.StatusNotFound},
		{"list", "/runs?page=1&page_size=5", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}

	resp, err := http.Get(srv.URL + "/artifacts/" + artID.String() + "/content")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if string(data) != "\x89PNG" || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("content: %q %s", data, resp.Header.Get("Content-Type"))
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values, _ := url.ParseQuery("status=failed&sort=-Generated")
	f := runs.FiltersFromQuery(values)

	if f.Status == nil || *f.Status != "failed" {
		t.Errorf("status: got %v", f.Status)
	}

	sql, args := f.Apply(query.NewBuilder(query.NewProjectionMap("public", "runs", "r").
		Project("status", "Status").
		Project("generated", "Generated"))).Build()

	want := "SELECT r.status, r.generated FROM public.runs r WHERE r.status = $1 ORDER BY r.generated DESC"
	if sql != want || len(args) != 1 {
		t.Errorf("sql:\n got %s %v\nwant %s", sql, args, want)
	}
}
