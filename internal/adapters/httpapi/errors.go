package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"

	"github.com/roteiro-app/travel-planner-api/internal/app/records"
	"github.com/roteiro-app/travel-planner-api/internal/app/search"
	"github.com/roteiro-app/travel-planner-api/internal/app/trips"
	"github.com/roteiro-app/travel-planner-api/internal/app/users"
)

type errorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, RequestID: middleware.GetReqID(r.Context())})
}

// writeAppError renders app-layer errors as {"error": ...}. Anything unrecognized is logged and
// reported as a 500 without leaking its text.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg, details := 0, "", "", map[string]any(nil)
	if te := (*trips.Error)(nil); errors.As(err, &te) {
		status, code, msg, details = te.Status, te.Code, te.Message, te.Details
	} else if ue := (*users.Error)(nil); errors.As(err, &ue) {
		status, code, msg, details = ue.Status, ue.Code, ue.Message, ue.Details
	} else if re := (*records.Error)(nil); errors.As(err, &re) {
		status, code, msg, details = re.Status, re.Code, re.Message, re.Details
	} else if se := (*search.Error)(nil); errors.As(err, &se) {
		status, code, msg, details = se.Status, se.Code, se.Message, se.Details
	}
	if status == 0 || status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	if status == 0 {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code, Details: details, RequestID: middleware.GetReqID(r.Context())})
}

// decodeBody reads a JSON request body into dst, replying 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		writeError(w, r, http.StatusBadRequest, "missing request body")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
