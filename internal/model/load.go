package model

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
)

// Definition is the on-disk JSON form of a Sequential model.
type Definition struct {
	Layers []LayerDefinition `json:"layers"`
}

// LayerDefinition describes one layer. Weights and Bias apply to "linear",
// P applies to "dropout".
type LayerDefinition struct {
	Type    string      `json:"type"`
	Weights [][]float64 `json:"weights,omitempty"`
	Bias    []float64   `json:"bias,omitempty"`
	P       float64     `json:"p,omitempty"`
}

// NewSource returns the deterministic random source used for dropout masks and weight init.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// Load reads a model definition from path. Dropout layers draw their masks from
// a source seeded with seed and start inactive.
func Load(path string, seed uint64) (*Sequential, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", path, err)
	}
	defer f.Close()

	m, err := Decode(f, seed)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return m, nil
}

// Decode reads a model definition from r.
func Decode(r io.Reader, seed uint64) (*Sequential, error) {
	var def Definition
	if err := json.NewDecoder(r).Decode(&def); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return Build(def, seed)
}

// Build constructs a Sequential from a definition and validates that
// consecutive linear layers agree on their dimensions.
func Build(def Definition, seed uint64) (*Sequential, error) {
	if len(def.Layers) == 0 {
		return nil, fmt.Errorf("%w: model has no layers", ErrShape)
	}

	src := NewSource(seed)
	layers := make([]Layer, 0, len(def.Layers))
	width := 0

	for i, ld := range def.Layers {
		switch ld.Type {
		case "linear":
			lin, err := NewLinearFrom(ld.Weights, ld.Bias)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
			out, in := lin.weights.Dims()
			if width != 0 && width != in {
				return nil, fmt.Errorf("%w: layer %d expects %d inputs, previous layer produces %d", ErrShape, i, in, width)
			}
			width = out
			layers = append(layers, lin)
		case "relu":
			layers = append(layers, ReLU{})
		case "dropout":
			d, err := NewDropout(ld.P, src)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
			layers = append(layers, d)
		default:
			return nil, fmt.Errorf("layer %d: unknown layer type %q", i, ld.Type)
		}
	}

	return NewSequential(layers...), nil
}
