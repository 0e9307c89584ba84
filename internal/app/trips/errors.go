package trips

import (
	"net/http"

	"github.com/roteiro-app/travel-planner-api/internal/platform/validation"
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

func errTripNotFound() *Error {
	return &Error{Status: http.StatusNotFound, Code: "TRIP_NOT_FOUND", Message: "trip not found"}
}

func errItemNotFound() *Error {
	return &Error{Status: http.StatusNotFound, Code: "ITEM_NOT_FOUND", Message: "itinerary item not found"}
}

func errIndexOutOfRange(index, length int) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    "INDEX_OUT_OF_RANGE",
		Message: "itinerary index out of range",
		Details: map[string]any{"index": index, "length": length},
	}
}

func errValidation(message string, details map[string]any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: message, Details: details}
}

func errFromFields(fe validation.FieldErrors) *Error {
	return errValidation(fe.Error(), fe.Details())
}
