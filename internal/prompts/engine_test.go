package prompts_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/advsynth/internal/prompts"
)

func TestCatalog(t *testing.T) {
	all := prompts.Phrases()
	if len(all) != 13 {
		t.Fatalf("phrase count: got %d, want 13", len(all))
	}

	seen := make(map[string]prompts.Category)
	for _, c := range prompts.Categories() {
		for _, p := range prompts.PhrasesFor(c) {
			if prev, ok := seen[p]; ok {
				t.Errorf("phrase %q in both %s and %s", p, prev, c)
			}
			seen[p] = c
		}
	}
}

func TestGenerate(t *testing.T) {
	e := prompts.NewEngine(42, prompts.DuplicatesReject)

	for n := 1; n <= 13; n++ {
		set, err := e.Generate("cat", n)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(set.Prompts) != n {
			t.Errorf("n=%d: got %d prompts", n, len(set.Prompts))
		}
		if set.WithReplacement {
			t.Errorf("n=%d: unexpected replacement", n)
		}

		unique := make(map[string]bool)
		for _, p := range set.Prompts {
			if p == "" || !strings.Contains(p, "cat") {
				t.Errorf("n=%d: bad prompt %q", n, p)
			}
			if !strings.HasPrefix(p, "a photo of a cat ") || !strings.HasSuffix(p, ", highly detailed, realistic") {
				t.Errorf("n=%d: prompt does not follow template: %q", n, p)
			}
			unique[p] = true
		}
		if len(unique) != n {
			t.Errorf("n=%d: got %d distinct prompts", n, len(unique))
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := prompts.NewEngine(42, prompts.DuplicatesReject)
	b := prompts.NewEngine(42, prompts.DuplicatesReject)

	for _, class := range []string{"cat", "truck", "cat"} {
		sa, _ := a.Generate(class, 5)
		sb, _ := b.Generate(class, 5)
		if diff := cmp.Diff(sa, sb); diff != "" {
			t.Errorf("class %s (-a +b):\n%s", class, diff)
		}
	}
}

func TestGenerateDuplicatePolicy(t *testing.T) {
	var zero prompts.DuplicatePolicy
	if zero != prompts.DuplicatesAllow {
		t.Errorf("zero policy: got %v, want DuplicatesAllow", zero)
	}

	reject := prompts.NewEngine(1, prompts.DuplicatesReject)
	if _, err := reject.Generate("dog", 14); !errors.Is(err, prompts.ErrInsufficientPhrases) {
		t.Errorf("expected ErrInsufficientPhrases, got %v", err)
	}

	tests := []struct {
		name   string
		engine *prompts.Engine
	}{
		{"explicit allow", prompts.NewEngine(1, prompts.DuplicatesAllow)},
		{"default config", prompts.NewEngine(1, (&prompts.Config{}).Policy())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := tt.engine.Generate("dog", 20)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if len(set.Prompts) != 20 || !set.WithReplacement {
				t.Errorf("got %d prompts, replacement=%v", len(set.Prompts), set.WithReplacement)
			}
		})
	}
}

func TestGenerateInvalid(t *testing.T) {
	e := prompts.NewEngine(1, prompts.DuplicatesReject)

	if _, err := e.Generate("cat", 0); !errors.Is(err, prompts.ErrInvalidVariants) {
		t.Errorf("n=0: expected ErrInvalidVariants, got %v", err)
	}
	if _, err := e.Generate("  ", 3); !errors.Is(err, prompts.ErrEmptyClass) {
		t.Errorf("blank class: expected ErrEmptyClass, got %v", err)
	}
}

func TestConfig(t *testing.T) {
	t.Setenv("TEST_VARIANTS", "20")

	cfg := prompts.Config{}
	err := cfg.Finalize(&prompts.Env{VariantsPerImage: "TEST_VARIANTS", RejectDuplicates: "TEST_REJECT_DUPLICATES"})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.VariantsPerImage != 20 || cfg.Policy() != prompts.DuplicatesAllow || cfg.Seed != 42 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	t.Setenv("TEST_REJECT_DUPLICATES", "true")
	strict := prompts.Config{VariantsPerImage: 14}
	err = strict.Finalize(&prompts.Env{RejectDuplicates: "TEST_REJECT_DUPLICATES"})
	if err == nil {
		t.Error("expected error for 14 variants with reject_duplicates")
	}
	if strict.Policy() != prompts.DuplicatesReject {
		t.Errorf("policy: got %v, want DuplicatesReject", strict.Policy())
	}
}
