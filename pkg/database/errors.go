package database

import "errors"

var (
	// ErrNotReady indicates the startup ping to the run registry database failed.
	ErrNotReady = errors.New("database not ready")
	// ErrDisabled indicates a component needing the run registry was built with database.enabled unset.
	ErrDisabled = errors.New("database disabled")
)
