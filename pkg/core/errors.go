package core

import "errors"

// Common errors.
var (
	// ErrNotFound is returned when an operation addresses an id that does not exist.
	ErrNotFound = errors.New("note not found")

	// ErrStorageUnavailable wraps any failure to read or write the durable copy.
	// The store never retries on its own; callers decide.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformedState means the durable copy could not be decoded.
	// Recovery requires an explicit reset.
	ErrMalformedState = errors.New("malformed persisted state")

	ErrReadOnly = errors.New("repository is in read-only mode")
)
