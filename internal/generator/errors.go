package generator

import "errors"

var (
	ErrModelLoad      = errors.New("model load failed")
	ErrGeneration     = errors.New("image generation failed")
	ErrUnknownBackend = errors.New("unknown generation backend")
)
