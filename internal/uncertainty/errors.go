package uncertainty

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid estimator configuration")
	ErrNonFinite            = errors.New("non-finite value")
	ErrShape                = errors.New("shape mismatch")
)
