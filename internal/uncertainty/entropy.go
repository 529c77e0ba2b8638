package uncertainty

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Epsilon guards log(0) in the entropy sum.
const Epsilon = 1e-12

// Softmax returns the normalized exponentials of logits.
func Softmax(logits []float64) ([]float64, error) {
	if err := checkFinite(logits); err != nil {
		return nil, err
	}

	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out, nil
	}

	lse := floats.LogSumExp(logits)
	for i, v := range logits {
		out[i] = math.Exp(v - lse)
	}
	return out, nil
}

// Entropy computes -Σ p·log(p + ε), clamped at zero.
func Entropy(p []float64) (float64, error) {
	if err := checkFinite(p); err != nil {
		return 0, err
	}

	var h float64
	for _, v := range p {
		h -= v * math.Log(v+Epsilon)
	}
	return max(h, 0), nil
}

// RowEntropy scores every row of a probability matrix.
func RowEntropy(probs *mat.Dense) ([]float64, error) {
	if probs == nil || probs.IsEmpty() {
		return []float64{}, nil
	}

	n, _ := probs.Dims()
	scores := make([]float64, n)
	for i := range n {
		h, err := Entropy(probs.RawRowView(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		scores[i] = h
	}
	return scores, nil
}

func softmaxRows(logits *mat.Dense) (*mat.Dense, error) {
	n, c := logits.Dims()
	out := mat.NewDense(n, c, nil)
	for i := range n {
		row, err := Softmax(logits.RawRowView(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out.SetRow(i, row)
	}
	return out, nil
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at position %d: %v", ErrNonFinite, i, v)
		}
	}
	return nil
}
