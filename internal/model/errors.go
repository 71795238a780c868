package model

import "errors"

// Sentinel errors shared by the service packages. Handlers map them to
// HTTP status codes; services wrap them with context via fmt.Errorf and %w.
var (
	// ErrNotFound signals a lookup by id that matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness violation, e.g. a duplicate
	// (user, course) enrollment.
	ErrConflict = errors.New("already exists")

	// ErrForbidden signals an ownership check failure.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState signals an operation on an entity whose lifecycle
	// state does not allow it, e.g. approving an already-approved version.
	ErrInvalidState = errors.New("invalid state")
)
