package domain

import "errors"

var (
	// ErrNotFound is returned when no cached snapshot exists for a tag.
	// An expected first-run condition, not a storage failure.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFilter indicates a malformed interface-list expression.
	ErrInvalidFilter = errors.New("invalid filter expression")
	// ErrSourceUnavailable indicates the counter source could not be reached.
	ErrSourceUnavailable = errors.New("counter source unavailable")
	// ErrStorage indicates a cache read or write failure.
	ErrStorage = errors.New("storage failure")
)
