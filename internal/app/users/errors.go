package users

import (
	"errors"
	"net/http"

	"github.com/roteiro-app/travel-planner-api/internal/platform/validation"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/userrepo"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func errUserNotFound() *Error {
	return &Error{Status: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "user not found"}
}

func errInvalidCredentials() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
}

func errForbidden() *Error {
	return &Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "cannot modify another user's profile"}
}

func errValidation(message string, details map[string]any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: message, Details: details}
}

// mapWriteErr turns validator and repository conflicts into app errors; anything else passes through.
func mapWriteErr(err error) error {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return errValidation(fe.Error(), fe.Details())
	}
	var ce *userrepo.ConflictError
	if errors.As(err, &ce) {
		return &Error{
			Status:  http.StatusConflict,
			Code:    "USER_CONFLICT",
			Message: ce.Field + " already registered",
			Details: map[string]any{ce.Field: "already in use"},
		}
	}
	if errors.Is(err, userrepo.ErrNotFound) {
		return errUserNotFound()
	}
	return err
}
