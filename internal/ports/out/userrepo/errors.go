package userrepo

import "errors"

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrAlreadyExists indicates a user already exists with the provided ID.
	ErrAlreadyExists = errors.New("user already exists")

	// ErrConflict indicates a uniqueness check failed; see ConflictError for the field.
	ErrConflict = errors.New("user field already in use")
)

// ConflictError reports which unique field (email, phoneNumber, cpf) is already taken.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already in use"
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
