package domain

import "errors"

// Error taxonomy shared by repositories, services and handlers.
// Repositories translate storage errors into these sentinels; handlers
// translate them into HTTP statuses. Anything not matching one of these
// is treated as a transient store failure and surfaces as a 5xx (the
// client retries) or, inside the notification queue, is retried
// internally and never surfaces at all.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)
