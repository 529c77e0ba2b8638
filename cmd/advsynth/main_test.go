package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/JaimeStill/advsynth/internal/pipeline"
	"github.com/JaimeStill/advsynth/internal/prompts"
)

const batchJSON = `{
  "labels": ["cat", "dog", "car", "tree"],
  "logits": [[4, 0, 0], [1, 1, 1], [0, 5, 0], [2, 2, 0]]
}`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ADVSYNTH_STORAGE_ROOT", filepath.Join(dir, "artifacts"))
	if err := os.WriteFile(filepath.Join(dir, "batch.json"), []byte(batchJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.Execute()
	return out.String(), err
}

func TestPromptsCommand(t *testing.T) {
	setup(t)

	out, err := execute(t, "", "prompts", "--class", "cat", "-n", "4")
	if err != nil {
		t.Fatalf("prompts failed: %v", err)
	}

	var set prompts.Set
	if err := json.Unmarshal([]byte(out), &set); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(set.Prompts) != 4 {
		t.Fatalf("prompts: got %d, want 4", len(set.Prompts))
	}
	for _, p := range set.Prompts {
		if !strings.Contains(p, "cat") {
			t.Errorf("prompt missing class: %q", p)
		}
	}

	again, err := execute(t, "", "prompts", "--class", "cat", "-n", "4")
	if err != nil {
		t.Fatal(err)
	}
	if again != out {
		t.Error("prompts should be deterministic for a fixed seed")
	}
}

func TestPromptsCommandBeyondCatalog(t *testing.T) {
	setup(t)

	out, err := execute(t, "", "prompts", "--class", "cat", "-n", "20")
	if err != nil {
		t.Fatalf("prompts failed: %v", err)
	}

	var set prompts.Set
	if err := json.Unmarshal([]byte(out), &set); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(set.Prompts) != 20 || !set.WithReplacement {
		t.Errorf("got %d prompts, replacement=%v", len(set.Prompts), set.WithReplacement)
	}

	t.Setenv("ADVSYNTH_GENERATION_REJECT_DUPLICATES", "true")
	if _, err := execute(t, "", "prompts", "--class", "cat", "-n", "20"); err == nil {
		t.Error("expected error with duplicates rejected")
	}
}

func TestPromptsCommandErrors(t *testing.T) {
	setup(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing class", []string{"prompts"}},
		{"blank class", []string{"prompts", "--class", " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, "", tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAuditCommand(t *testing.T) {
	setup(t)
	t.Setenv("ADVSYNTH_SELECTION_TOP_K_PERCENT", "0.5")

	out, err := execute(t, "", "audit", "--batch", "batch.json")
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}

	var report auditReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(report.Scores) != 4 {
		t.Fatalf("scores: got %d, want 4", len(report.Scores))
	}
	// uniform logits carry the most entropy, then the 2-2-0 row
	if got := report.Selection.Indices; len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("selection: got %v, want [1 3]", got)
	}
	if report.MeanEntropy <= 0 {
		t.Errorf("mean entropy: got %v", report.MeanEntropy)
	}
}

func TestAuditCommandStdin(t *testing.T) {
	setup(t)

	if _, err := execute(t, batchJSON, "audit", "--batch", "-"); err != nil {
		t.Fatalf("audit from stdin failed: %v", err)
	}
	if _, err := execute(t, `{"labels": ["a"], "logits": [[1], [2]]}`, "audit", "--batch", "-"); err == nil {
		t.Error("expected error for mismatched batch")
	}
}

func TestRunCommand(t *testing.T) {
	dir := setup(t)

	var generates atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /load", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /generate", func(w http.ResponseWriter, r *http.Request) {
		generates.Add(1)
		var buf bytes.Buffer
		png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))
		json.NewEncoder(w).Encode(map[string]any{
			"images": []string{base64.StdEncoding.EncodeToString(buf.Bytes())},
		})
	})
	sidecar := httptest.NewServer(mux)
	t.Cleanup(sidecar.Close)

	t.Setenv("ADVSYNTH_MODEL_BASE_URL", sidecar.URL)
	t.Setenv("ADVSYNTH_MODEL_DEVICE", "cpu")

	out, err := execute(t, "", "run", "--batch", "batch.json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}

	if res.Status != pipeline.StatusCompleted {
		t.Errorf("status: got %s", res.Status)
	}
	if res.Selection.Len() != 1 || res.Selection.Indices[0] != 1 {
		t.Errorf("selection: got %v, want [1]", res.Selection.Indices)
	}
	if len(res.Artifacts) != 3 || generates.Load() != 3 {
		t.Fatalf("artifacts: got %d, generate calls %d", len(res.Artifacts), generates.Load())
	}

	for _, a := range res.Artifacts {
		if a.Label != "dog" {
			t.Errorf("artifact label: got %s, want dog", a.Label)
		}
		if _, err := os.Stat(filepath.Join(dir, "artifacts", filepath.FromSlash(a.Key))); err != nil {
			t.Errorf("artifact %s not persisted: %v", a.Key, err)
		}
	}
}
