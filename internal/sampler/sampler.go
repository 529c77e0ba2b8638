// Package sampler selects the hardest examples of a batch from their uncertainty scores.
package sampler

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	ErrInvalidConfiguration = errors.New("invalid sampler configuration")
	ErrNonFinite            = errors.New("non-finite score")
)

// Selection holds the chosen batch indices and their scores, ranked by
// descending score with ties in ascending index order.
type Selection struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Len reports the number of selected examples.
func (s Selection) Len() int {
	return len(s.Indices)
}

// Sampler chooses a subset of a batch from its scores.
type Sampler interface {
	SelectBatch(scores []float64) (Selection, error)
}

// TopPercent selects the top p fraction of a batch, always at least one example
// when the batch is non-empty.
type TopPercent struct {
	p float64
}

// NewTopPercent creates a miner for the given fraction, which must be in (0, 1].
func NewTopPercent(p float64) (*TopPercent, error) {
	if math.IsNaN(p) || p <= 0 || p > 1 {
		return nil, fmt.Errorf("%w: top percent must be in (0, 1], got %v", ErrInvalidConfiguration, p)
	}
	return &TopPercent{p: p}, nil
}

func (s *TopPercent) SelectBatch(scores []float64) (Selection, error) {
	if err := checkFinite(scores); err != nil {
		return Selection{}, err
	}

	n := len(scores)
	if n == 0 {
		return empty(), nil
	}

	k := min(max(1, int(math.Floor(float64(n)*s.p))), n)
	return take(rank(scores), scores, k), nil
}

// Threshold selects every example scoring at least Min. The selection may be empty.
type Threshold struct {
	min float64
}

// NewThreshold creates a sampler with a finite, non-negative minimum score.
func NewThreshold(minScore float64) (*Threshold, error) {
	if math.IsNaN(minScore) || math.IsInf(minScore, 0) || minScore < 0 {
		return nil, fmt.Errorf("%w: threshold must be finite and >= 0, got %v", ErrInvalidConfiguration, minScore)
	}
	return &Threshold{min: minScore}, nil
}

func (s *Threshold) SelectBatch(scores []float64) (Selection, error) {
	if err := checkFinite(scores); err != nil {
		return Selection{}, err
	}
	return cutoff(scores, s.min), nil
}

func checkFinite(scores []float64) error {
	for i, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at index %d: %v", ErrNonFinite, i, v)
		}
	}
	return nil
}

// rank orders batch indices by descending score; SortStableFunc keeps equal
// scores in ascending index order.
func rank(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
	return idx
}

func take(order []int, scores []float64, k int) Selection {
	sel := Selection{
		Indices: make([]int, k),
		Values:  make([]float64, k),
	}
	for i, idx := range order[:k] {
		sel.Indices[i] = idx
		sel.Values[i] = scores[idx]
	}
	return sel
}

func cutoff(scores []float64, minScore float64) Selection {
	order := rank(scores)
	k := 0
	for k < len(order) && scores[order[k]] >= minScore {
		k++
	}
	if k == 0 {
		return empty()
	}
	return take(order, scores, k)
}

func empty() Selection {
	return Selection{Indices: []int{}, Values: []float64{}}
}
