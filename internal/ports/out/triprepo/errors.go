package triprepo

import "errors"

var (
	// ErrNotFound covers both a missing trip and a deleted one.
	ErrNotFound = errors.New("trip not found")
	// ErrAlreadyExists is returned by Create when the trip id is taken.
	ErrAlreadyExists = errors.New("trip already exists")
)
