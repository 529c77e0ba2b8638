// Package prompts generates adversarial text-to-image prompts that place a
// class in degraded photographic conditions.
package prompts

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

// DuplicatePolicy decides what happens when more variants are requested than
// there are distinct phrases.
type DuplicatePolicy int

const (
	// DuplicatesAllow samples phrases with replacement and marks the set WithReplacement.
	DuplicatesAllow DuplicatePolicy = iota
	// DuplicatesReject fails the request with ErrInsufficientPhrases.
	DuplicatesReject
)

// Set is the result of one Generate call.
type Set struct {
	Class   string   `json:"class"`
	Prompts []string `json:"prompts"`
	// WithReplacement reports that phrases were sampled with replacement and may repeat.
	WithReplacement bool `json:"with_replacement"`
}

// Engine samples phrases from a fixed catalog using a seeded generator.
// Output is deterministic for a given seed and call sequence.
type Engine struct {
	mu      sync.Mutex
	rng     *rand.Rand
	policy  DuplicatePolicy
	phrases []string
}

// NewEngine creates an engine seeded with seed.
func NewEngine(seed uint64, policy DuplicatePolicy) *Engine {
	return &Engine{
		rng:     rand.New(rand.NewPCG(seed, seed)),
		policy:  policy,
		phrases: Phrases(),
	}
}

// Check reports whether n variants can be generated under the engine's policy
// without drawing from its random sequence.
func (e *Engine) Check(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidVariants, n)
	}
	if n > len(e.phrases) && e.policy == DuplicatesReject {
		return fmt.Errorf("%w: requested %d, catalog holds %d", ErrInsufficientPhrases, n, len(e.phrases))
	}
	return nil
}

// Generate returns n prompts for class.
func (e *Engine) Generate(class string, n int) (Set, error) {
	class = strings.TrimSpace(class)
	if class == "" {
		return Set{}, ErrEmptyClass
	}
	if err := e.Check(n); err != nil {
		return Set{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	set := Set{Class: class, Prompts: make([]string, n)}

	if n <= len(e.phrases) {
		for i, idx := range e.rng.Perm(len(e.phrases))[:n] {
			set.Prompts[i] = render(class, e.phrases[idx])
		}
		return set, nil
	}

	set.WithReplacement = true
	for i := range set.Prompts {
		set.Prompts[i] = render(class, e.phrases[e.rng.IntN(len(e.phrases))])
	}
	return set, nil
}

func render(class, phrase string) string {
	return fmt.Sprintf(Template, class, phrase)
}
