package sampler

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Percentile selects every example scoring at or above the q-th percentile of its batch.
type Percentile struct {
	q float64
}

// NewPercentile creates a sampler for q in (0, 100].
func NewPercentile(q float64) (*Percentile, error) {
	if math.IsNaN(q) || q <= 0 || q > 100 {
		return nil, fmt.Errorf("%w: percentile must be in (0, 100], got %v", ErrInvalidConfiguration, q)
	}
	return &Percentile{q: q}, nil
}

func (s *Percentile) SelectBatch(scores []float64) (Selection, error) {
	if err := checkFinite(scores); err != nil {
		return Selection{}, err
	}
	if len(scores) == 0 {
		return empty(), nil
	}

	// stats.Percentile rejects ranks below the first element; those select the whole batch.
	compute := stats.Percentile
	if s.q/100*float64(len(scores)) < 1 {
		compute = func(data stats.Float64Data, _ float64) (float64, error) {
			return stats.Min(data)
		}
	}

	bound, err := compute(scores, s.q)
	if err != nil {
		return Selection{}, fmt.Errorf("percentile %v: %w", s.q, err)
	}
	return cutoff(scores, bound), nil
}
