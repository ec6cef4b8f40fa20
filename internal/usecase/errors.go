package usecase

import "github.com/cockroachdb/errors"

// Infrastructure and request errors. Rejected war actions are reported with
// territory.ActionError instead and never wrap these.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrConflict              = errors.New("resource conflict")
)
