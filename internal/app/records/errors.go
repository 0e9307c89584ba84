package records

import (
	"net/http"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
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

func errUnknownKind(kind domain.RecordKind) *Error {
	return &Error{Status: http.StatusNotFound, Code: "UNKNOWN_RECORD_KIND", Message: "unknown record kind " + string(kind)}
}

func errRecordNotFound() *Error {
	return &Error{Status: http.StatusNotFound, Code: "RECORD_NOT_FOUND", Message: "record not found"}
}

func errValidation(message string, details map[string]any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: message, Details: details}
}
