// Package model provides a small feed-forward classifier head whose dropout
// layers can be re-activated at inference time for Monte-Carlo uncertainty sampling.
package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrShape indicates an input whose dimensions do not match a layer.
var ErrShape = errors.New("shape mismatch")

// Layer transforms a batch of row vectors.
type Layer interface {
	Forward(x *mat.Dense) (*mat.Dense, error)
}

// Stochastic is a layer with randomized behavior that is normally disabled at inference.
type Stochastic interface {
	Layer
	SetActive(active bool)
	Active() bool
}

// Model is a network that can be switched into inference mode.
type Model interface {
	Forward(x *mat.Dense) (*mat.Dense, error)
	// Eval disables every stochastic layer.
	Eval()
	Layers() []Layer
}

// Sequential applies layers in order.
type Sequential struct {
	layers []Layer
}

// NewSequential creates a model from the given layers.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

func (s *Sequential) Layers() []Layer {
	return s.layers
}

func (s *Sequential) Eval() {
	for _, l := range s.layers {
		if st, ok := l.(Stochastic); ok {
			st.SetActive(false)
		}
	}
}

// Train enables every stochastic layer.
func (s *Sequential) Train() {
	for _, l := range s.layers {
		if st, ok := l.(Stochastic); ok {
			st.SetActive(true)
		}
	}
}

func (s *Sequential) Forward(x *mat.Dense) (*mat.Dense, error) {
	out := x
	for i, l := range s.layers {
		next, err := l.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		out = next
	}
	return out, nil
}

// OutputDim reports the width of the final linear layer, or 0 when there is none.
func (s *Sequential) OutputDim() int {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if lin, ok := s.layers[i].(*Linear); ok {
			out, _ := lin.weights.Dims()
			return out
		}
	}
	return 0
}
