package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

// CreateRecord handles POST /api/{kind}. The body holds tripId next to the kind fields.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var body json.RawMessage
	if !decodeBody(w, r, &body) {
		return
	}
	var target struct {
		TripID string `json:"tripId"`
	}
	if err := json.Unmarshal(body, &target); err != nil {
		writeError(w, r, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	rec, err := s.Records.Create(r.Context(), me, recordKind(r), domain.TripID(target.TripID), body)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeRecord(w, r, http.StatusCreated, rec)
}

// ListRecords handles GET /api/{kind}/{tripId}.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := s.Records.List(r.Context(), me, recordKind(r), domain.TripID(chi.URLParam(r, "ref")))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(list))
	for _, rec := range list {
		m, err := recordJSON(rec)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		out = append(out, m)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var body json.RawMessage
	if !decodeBody(w, r, &body) {
		return
	}
	rec, err := s.Records.Update(r.Context(), me, recordKind(r), domain.RecordID(chi.URLParam(r, "ref")), body)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeRecord(w, r, http.StatusOK, rec)
}

// DeleteRecord replies 200 whether or not the record existed.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "ref")
	if err := s.Records.Delete(r.Context(), me, recordKind(r), domain.RecordID(id)); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "record deleted", "id": id})
}

func recordKind(r *http.Request) domain.RecordKind {
	return domain.RecordKind(chi.URLParam(r, "kind"))
}

func writeRecord(w http.ResponseWriter, r *http.Request, status int, rec domain.Record) {
	m, err := recordJSON(rec)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, status, m)
}

// recordJSON flattens the kind fields next to the record's metadata.
func recordJSON(rec domain.Record) (map[string]any, error) {
	m := map[string]any{}
	if len(rec.Fields) > 0 {
		if err := json.Unmarshal(rec.Fields, &m); err != nil {
			return nil, err
		}
	}
	m["id"] = string(rec.ID)
	m["tripId"] = string(rec.TripID)
	m["kind"] = string(rec.Kind)
	m["createdAt"] = rec.CreatedAt.UTC().Format(time.RFC3339Nano)
	m["updatedAt"] = rec.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return m, nil
}
