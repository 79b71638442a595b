package shared

import "errors"

// Store-level error taxonomy. Repositories translate database failures into
// these sentinels so services and handlers never inspect driver errors.
var (
	// ErrNotFound indicates the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation indicates a unique-key or foreign-key conflict on a write.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrRestrictedDelete indicates a delete blocked by a dependent row.
	ErrRestrictedDelete = errors.New("delete restricted by dependent rows")
	// ErrValidation indicates caller input failed a required-field or type check.
	ErrValidation = errors.New("validation failed")
	// ErrPartialFailure indicates a multi-step write was interrupted mid-sequence.
	ErrPartialFailure = errors.New("partial failure")
	// ErrUnauthorized indicates the caller is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
