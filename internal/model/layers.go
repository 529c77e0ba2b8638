package model

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Linear computes y = x·Wᵀ + b with W of shape out×in.
type Linear struct {
	weights *mat.Dense
	bias    []float64
}

// NewLinear creates a linear layer with weights drawn from N(0, 1/in) and zero bias.
func NewLinear(in, out int, src rand.Source) *Linear {
	dist := distuv.Normal{Mu: 0, Sigma: 1 / math.Sqrt(float64(in)), Src: src}

	data := make([]float64, out*in)
	for i := range data {
		data[i] = dist.Rand()
	}

	return &Linear{
		weights: mat.NewDense(out, in, data),
		bias:    make([]float64, out),
	}
}

// NewLinearFrom creates a linear layer from explicit weights (out rows of in columns) and bias.
func NewLinearFrom(weights [][]float64, bias []float64) (*Linear, error) {
	out := len(weights)
	if out == 0 || len(weights[0]) == 0 {
		return nil, fmt.Errorf("%w: empty weights", ErrShape)
	}
	in := len(weights[0])

	data := make([]float64, 0, out*in)
	for i, row := range weights {
		if len(row) != in {
			return nil, fmt.Errorf("%w: weight row %d has %d columns, want %d", ErrShape, i, len(row), in)
		}
		data = append(data, row...)
	}

	if bias == nil {
		bias = make([]float64, out)
	}
	if len(bias) != out {
		return nil, fmt.Errorf("%w: bias has %d entries, want %d", ErrShape, len(bias), out)
	}

	return &Linear{
		weights: mat.NewDense(out, in, data),
		bias:    append([]float64(nil), bias...),
	}, nil
}

func (l *Linear) Forward(x *mat.Dense) (*mat.Dense, error) {
	n, c := x.Dims()
	out, in := l.weights.Dims()
	if c != in {
		return nil, fmt.Errorf("%w: linear expects %d features, got %d", ErrShape, in, c)
	}

	y := mat.NewDense(n, out, nil)
	y.Mul(x, l.weights.T())
	for i := range n {
		row := y.RawRowView(i)
		for j := range row {
			row[j] += l.bias[j]
		}
	}
	return y, nil
}

// ReLU zeroes negative activations.
type ReLU struct{}

func (ReLU) Forward(x *mat.Dense) (*mat.Dense, error) {
	var y mat.Dense
	y.Apply(func(_, _ int, v float64) float64 {
		return max(v, 0)
	}, x)
	return &y, nil
}

// Dropout zeroes each activation with probability P while active and scales
// survivors by 1/(1-P). Inactive dropout is the identity.
type Dropout struct {
	P float64

	mu     sync.Mutex
	active bool
	mask   distuv.Bernoulli
}

// NewDropout creates an inactive dropout layer drawing masks from src.
func NewDropout(p float64, src rand.Source) (*Dropout, error) {
	if p < 0 || p >= 1 || math.IsNaN(p) {
		return nil, fmt.Errorf("dropout probability must be in [0, 1), got %v", p)
	}
	return &Dropout{
		P:    p,
		mask: distuv.Bernoulli{P: 1 - p, Src: src},
	}, nil
}

func (d *Dropout) SetActive(active bool) {
	d.mu.Lock()
	d.active = active
	d.mu.Unlock()
}

func (d *Dropout) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *Dropout) Forward(x *mat.Dense) (*mat.Dense, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active || d.P == 0 {
		return x, nil
	}

	scale := 1 / (1 - d.P)
	var y mat.Dense
	y.Apply(func(_, _ int, v float64) float64 {
		return v * d.mask.Rand() * scale
	}, x)
	return &y, nil
}
