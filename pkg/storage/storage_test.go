package storage_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/advsynth/pkg/storage"
)

func newFilesystem(t *testing.T) (storage.System, string) {
	t.Helper()

	root := t.TempDir()
	cfg := &storage.Config{Provider: storage.ProviderFilesystem, Root: root}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	sys, err := storage.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return sys, root
}

func TestFilesystemRoundTrip(t *testing.T) {
	sys, root := newFilesystem(t)
	ctx := context.Background()

	data := []byte("\x89PNG fake image bytes")
	key := "run-1/cat_adv_3_0.png"

	if err := sys.Upload(ctx, key, bytes.NewReader(data), "image/png"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "run-1", "cat_adv_3_0.png")); err != nil {
		t.Fatalf("artifact not written under root: %v", err)
	}

	exists, err := sys.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v; want true, nil", exists, err)
	}

	rc, err := sys.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()

	if !bytes.Equal(got, data) {
		t.Errorf("Download() = %q, want %q", got, data)
	}

	if err := sys.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	exists, err = sys.Exists(ctx, key)
	if err != nil || exists {
		t.Errorf("Exists() after delete = %v, %v; want false, nil", exists, err)
	}
}

func TestFilesystemNotFound(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	if _, err := sys.Download(ctx, "missing.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}
	if err := sys.Delete(ctx, "missing.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestFilesystemOverwrite(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		if err := sys.Upload(ctx, "a.png", bytes.NewReader([]byte(body)), "image/png"); err != nil {
			t.Fatalf("Upload(%q) error = %v", body, err)
		}
	}

	rc, err := sys.Download(ctx, "a.png")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer rc.Close()

	got, _ := io.ReadAll(rc)
	if string(got) != "second" {
		t.Errorf("Download() = %q, want second", got)
	}
}

func TestKeyValidation(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"empty", "", storage.ErrEmptyKey},
		{"parent traversal", "../escape.png", storage.ErrInvalidKey},
		{"nested traversal", "runs/../../escape.png", storage.ErrInvalidKey},
		{"absolute", "/etc/passwd", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sys.Upload(ctx, tt.key, bytes.NewReader(nil), "image/png")
			if !errors.Is(err, tt.want) {
				t.Errorf("Upload(%q) error = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}

func TestDotsInNameAllowed(t *testing.T) {
	sys, _ := newFilesystem(t)

	if err := sys.Upload(context.Background(), "v1..2/x.png", bytes.NewReader([]byte("x")), "image/png"); err != nil {
		t.Errorf("Upload() error = %v, want nil for non-traversal dots", err)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ErrNotFound maps to 404", storage.ErrNotFound, http.StatusNotFound},
		{"ErrEmptyKey maps to 400", storage.ErrEmptyKey, http.StatusBadRequest},
		{"ErrInvalidKey maps to 400", storage.ErrInvalidKey, http.StatusBadRequest},
		{"wrapped ErrNotFound maps to 404", fmt.Errorf("operation failed: %w", storage.ErrNotFound), http.StatusNotFound},
		{"unknown error maps to 500", fmt.Errorf("unexpected failure"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewUnknownProvider(t *testing.T) {
	cfg := &storage.Config{Provider: "tape"}
	if _, err := storage.New(context.Background(), cfg, slog.Default()); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
