package pipeline

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidConfiguration = errors.New("invalid pipeline configuration")
	ErrInvalidBatch         = errors.New("invalid batch")
	ErrGeneration           = errors.New("generation failed")
	ErrModelLoad            = errors.New("model load failed")
	ErrPersist              = errors.New("persist failed")
)

// MapHTTPStatus maps pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidBatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrModelLoad), errors.Is(err, ErrGeneration):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
