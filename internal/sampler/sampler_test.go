package sampler_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/advsynth/internal/sampler"
)

func TestTopPercent(t *testing.T) {
	tests := []struct {
		name        string
		p           float64
		scores      []float64
		wantIndices []int
		wantValues  []float64
	}{
		{
			name:        "thirty percent of ten",
			p:           0.3,
			scores:      []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			wantIndices: []int{9, 8, 7},
			wantValues:  []float64{10, 9, 8},
		},
		{
			name:        "minimum one",
			p:           0.1,
			scores:      []float64{0.2, 0.9, 0.4},
			wantIndices: []int{1},
			wantValues:  []float64{0.9},
		},
		{
			name:        "whole batch",
			p:           1,
			scores:      []float64{0.3, 0.1, 0.2},
			wantIndices: []int{0, 2, 1},
			wantValues:  []float64{0.3, 0.2, 0.1},
		},
		{
			name:        "ties by ascending index",
			p:           0.5,
			scores:      []float64{0.5, 0.7, 0.5, 0.7},
			wantIndices: []int{1, 3},
			wantValues:  []float64{0.7, 0.7},
		},
		{
			name:        "empty batch",
			p:           0.5,
			scores:      []float64{},
			wantIndices: []int{},
			wantValues:  []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := sampler.NewTopPercent(tt.p)
			if err != nil {
				t.Fatalf("new: %v", err)
			}

			sel, err := s.SelectBatch(tt.scores)
			if err != nil {
				t.Fatalf("select: %v", err)
			}

			if diff := cmp.Diff(tt.wantIndices, sel.Indices); diff != "" {
				t.Errorf("indices (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantValues, sel.Values); diff != "" {
				t.Errorf("values (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTopPercentSize(t *testing.T) {
	s, _ := sampler.NewTopPercent(0.25)

	for n := 1; n <= 40; n++ {
		scores := make([]float64, n)
		for i := range scores {
			scores[i] = float64((i * 7) % 11)
		}

		sel, err := s.SelectBatch(scores)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}

		want := max(1, int(math.Floor(float64(n)*0.25)))
		if sel.Len() != want || len(sel.Values) != want {
			t.Errorf("n=%d: got %d selected, want %d", n, sel.Len(), want)
		}
		for i := 1; i < len(sel.Values); i++ {
			if sel.Values[i] > sel.Values[i-1] {
				t.Errorf("n=%d: values not descending: %v", n, sel.Values)
				break
			}
		}
	}
}

func TestNewTopPercentInvalid(t *testing.T) {
	for _, p := range []float64{0, -0.1, 1.01, math.NaN()} {
		if _, err := sampler.NewTopPercent(p); !errors.Is(err, sampler.ErrInvalidConfiguration) {
			t.Errorf("p=%v: expected ErrInvalidConfiguration, got %v", p, err)
		}
	}
}

func TestNonFiniteScores(t *testing.T) {
	top, _ := sampler.NewTopPercent(0.5)
	thr, _ := sampler.NewThreshold(0.1)
	pct, _ := sampler.NewPercentile(50)

	for _, s := range []sampler.Sampler{top, thr, pct} {
		if _, err := s.SelectBatch([]float64{0.1, math.Inf(1)}); !errors.Is(err, sampler.ErrNonFinite) {
			t.Errorf("%T: expected ErrNonFinite, got %v", s, err)
		}
	}
}

func TestThreshold(t *testing.T) {
	s, err := sampler.NewThreshold(0.5)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	sel, _ := s.SelectBatch([]float64{0.2, 0.6, 0.5, 0.9})
	if diff := cmp.Diff([]int{3, 1, 2}, sel.Indices); diff != "" {
		t.Errorf("indices (-want +got):\n%s", diff)
	}

	none, _ := s.SelectBatch([]float64{0.1, 0.2})
	if none.Len() != 0 {
		t.Errorf("expected empty selection, got %v", none.Indices)
	}
}

func TestPercentile(t *testing.T) {
	s, err := sampler.NewPercentile(80)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	sel, err := s.SelectBatch([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Len() == 0 || sel.Indices[0] != 9 {
		t.Errorf("expected the top score first, got %v", sel.Indices)
	}
	for _, v := range sel.Values {
		if v < 8 {
			t.Errorf("value %v below the 80th percentile", v)
		}
	}
}

func TestConfig(t *testing.T) {
	t.Setenv("TEST_SELECTION_STRATEGY", "threshold")
	t.Setenv("TEST_SELECTION_THRESHOLD", "0.75")

	cfg := sampler.Config{}
	err := cfg.Finalize(&sampler.Env{
		Strategy:  "TEST_SELECTION_STRATEGY",
		Threshold: "TEST_SELECTION_THRESHOLD",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.Strategy != sampler.StrategyThreshold || cfg.Threshold != 0.75 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.TopKPercent != 0.1 {
		t.Errorf("top_k_percent default: got %v, want 0.1", cfg.TopKPercent)
	}

	bad := sampler.Config{TopKPercent: 1.5}
	if err := bad.Finalize(nil); !errors.Is(err, sampler.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestPercentileLowRankSelectsAll(t *testing.T) {
	s, _ := sampler.NewPercentile(5)

	sel, err := s.SelectBatch([]float64{0.4, 0.1, 0.3})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Len() != 3 {
		t.Errorf("expected whole batch, got %v", sel.Indices)
	}
}
