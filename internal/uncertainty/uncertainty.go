// Package uncertainty estimates per-example predictive uncertainty as the
// Shannon entropy of a class-probability distribution.
package uncertainty

import (
	"context"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/JaimeStill/advsynth/internal/model"
)

// Estimator produces the N×C mean prediction distribution and an N-length
// entropy score for a batch.
type Estimator interface {
	Estimate(ctx context.Context, x *mat.Dense) (*mat.Dense, []float64, error)
}

// SoftmaxEstimator treats its input as raw logits and scores one deterministic softmax pass.
type SoftmaxEstimator struct{}

func (SoftmaxEstimator) Estimate(ctx context.Context, x *mat.Dense) (*mat.Dense, []float64, error) {
	if x == nil || x.IsEmpty() {
		return nil, []float64{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	probs, err := softmaxRows(x)
	if err != nil {
		return nil, nil, err
	}

	scores, err := RowEntropy(probs)
	if err != nil {
		return nil, nil, err
	}
	return probs, scores, nil
}

// MCDropout estimates uncertainty by averaging several stochastic forward
// passes with only the dropout layers of the model active.
type MCDropout struct {
	model   model.Model
	samples int
	mu      sync.Mutex
}

// NewMCDropout wraps m for Monte-Carlo dropout sampling with the given number of passes.
func NewMCDropout(m model.Model, samples int) (*MCDropout, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidConfiguration)
	}
	if samples < 1 {
		return nil, fmt.Errorf("%w: mc samples must be >= 1, got %d", ErrInvalidConfiguration, samples)
	}
	return &MCDropout{model: m, samples: samples}, nil
}

func (e *MCDropout) Estimate(ctx context.Context, x *mat.Dense) (*mat.Dense, []float64, error) {
	if x == nil || x.IsEmpty() {
		return nil, []float64{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.model.Eval()
	setStochastic(e.model, true)
	defer setStochastic(e.model, false)

	var mean *mat.Dense
	for s := range e.samples {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		logits, err := e.model.Forward(x)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: pass %d: %w", ErrShape, s, err)
		}

		probs, err := softmaxRows(logits)
		if err != nil {
			return nil, nil, fmt.Errorf("pass %d: %w", s, err)
		}

		if mean == nil {
			mean = probs
		} else {
			mean.Add(mean, probs)
		}
	}
	mean.Scale(1/float64(e.samples), mean)

	scores, err := RowEntropy(mean)
	if err != nil {
		return nil, nil, err
	}
	return mean, scores, nil
}

// Ensemble averages the softmax outputs of deterministic member models.
type Ensemble struct {
	members []model.Model
}

// NewEnsemble creates an ensemble estimator over at least one member.
func NewEnsemble(members ...model.Model) (*Ensemble, error) {
	if len(members) < 1 {
		return nil, fmt.Errorf("%w: ensemble requires at least one member", ErrInvalidConfiguration)
	}
	for i, m := range members {
		if m == nil {
			return nil, fmt.Errorf("%w: ensemble member %d is nil", ErrInvalidConfiguration, i)
		}
	}
	return &Ensemble{members: members}, nil
}

func (e *Ensemble) Estimate(ctx context.Context, x *mat.Dense) (*mat.Dense, []float64, error) {
	if x == nil || x.IsEmpty() {
		return nil, []float64{}, nil
	}

	var mean *mat.Dense
	for i, m := range e.members {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		m.Eval()
		logits, err := m.Forward(x)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: member %d: %w", ErrShape, i, err)
		}

		probs, err := softmaxRows(logits)
		if err != nil {
			return nil, nil, fmt.Errorf("member %d: %w", i, err)
		}

		if mean == nil {
			mean = probs
			continue
		}
		mr, mc := mean.Dims()
		if pr, pc := probs.Dims(); mr != pr || mc != pc {
			return nil, nil, fmt.Errorf("%w: member %d output differs from member 0", ErrShape, i)
		}
		mean.Add(mean, probs)
	}
	mean.Scale(1/float64(len(e.members)), mean)

	scores, err := RowEntropy(mean)
	if err != nil {
		return nil, nil, err
	}
	return mean, scores, nil
}

func setStochastic(m model.Model, active bool) {
	for _, l := range m.Layers() {
		if st, ok := l.(model.Stochastic); ok {
			st.SetActive(active)
		}
	}
}
