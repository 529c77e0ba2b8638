package prompts

import (
	"errors"
	"net/http"
)

// Domain errors for prompt generation.
var (
	ErrInvalidVariants     = errors.New("variant count must be at least 1")
	ErrEmptyClass          = errors.New("class label is empty")
	ErrInsufficientPhrases = errors.New("not enough distinct phrases for the requested variants")
)

// MapHTTPStatus maps prompt errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidVariants),
		errors.Is(err, ErrEmptyClass),
		errors.Is(err, ErrInsufficientPhrases):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
