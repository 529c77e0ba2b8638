package runs

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/advsynth/internal/pipeline"
)

// Domain errors for run registry operations.
var (
	ErrNotFound         = errors.New("run not found")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrDuplicate        = errors.New("run already exists")
	ErrInvalidRequest   = errors.New("invalid run request")
)

// MapHTTPStatus maps registry and pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	}
	return pipeline.MapHTTPStatus(err)
}
