package domain

import "errors"

var (
	// ErrNotFound is returned when a requested task does not exist
	ErrNotFound = errors.New("task not found")

	// ErrDuplicateTitle is returned when another task already uses the same
	// normalized title
	ErrDuplicateTitle = errors.New("task with this title already exists")

	// ErrValidation is returned when input violates a business rule
	ErrValidation = errors.New("invalid task data")

	// ErrBulkLimitExceeded is returned when a bulk operation receives more
	// IDs than its configured cap
	ErrBulkLimitExceeded = errors.New("bulk operation limit exceeded")

	// ErrInternal is the generic sentinel for unexpected failures that must
	// be surfaced to clients without detail
	ErrInternal = errors.New("internal server error")
)
