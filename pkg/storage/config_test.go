package storage_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/advsynth/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != storage.ProviderFilesystem {
		t.Errorf("provider: got %s, want filesystem", cfg.Provider)
	}
	if cfg.Root != "artifacts" {
		t.Errorf("root: got %s, want artifacts", cfg.Root)
	}
	if cfg.ContainerName != "artifacts" {
		t.Errorf("container_name: got %s, want artifacts", cfg.ContainerName)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PROVIDER", "azure")
	t.Setenv("TEST_CONTAINER", "synthetic")
	t.Setenv("TEST_CONN", "override-connection")

	env := &storage.Env{
		Provider:         "TEST_PROVIDER",
		ContainerName:    "TEST_CONTAINER",
		ConnectionString: "TEST_CONN",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != storage.ProviderAzure {
		t.Errorf("provider: got %s, want azure", cfg.Provider)
	}
	if cfg.ContainerName != "synthetic" {
		t.Errorf("container_name: got %s, want synthetic", cfg.ContainerName)
	}
	if cfg.ConnectionString != "override-connection" {
		t.Errorf("connection_string: got %s, want override-connection", cfg.ConnectionString)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{
			name:    "azure without credentials",
			cfg:     storage.Config{Provider: storage.ProviderAzure},
			wantErr: "connection_string or account_url required",
		},
		{
			name: "azure with account url",
			cfg:  storage.Config{Provider: storage.ProviderAzure, AccountURL: "https://acct.blob.core.windows.net"},
		},
		{
			name:    "gcs without bucket",
			cfg:     storage.Config{Provider: storage.ProviderGCS},
			wantErr: "bucket required",
		},
		{
			name:    "unknown provider",
			cfg:     storage.Config{Provider: "tape"},
			wantErr: "unknown provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{Provider: "filesystem", Root: "out", Bucket: "keep"}
	base.Merge(&storage.Config{Provider: "gcs", Root: ""})

	if base.Provider != "gcs" {
		t.Errorf("provider: got %s, want gcs", base.Provider)
	}
	if base.Root != "out" {
		t.Errorf("root: got %s, want out", base.Root)
	}
	if base.Bucket != "keep" {
		t.Errorf("bucket: got %s, want keep", base.Bucket)
	}
}
