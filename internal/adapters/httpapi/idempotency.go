package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/idempotency"
)

const idempotencyHeader = "Idempotency-Key"

// fingerprint returns ok=false when the request carries no Idempotency-Key or no store is configured.
func (s *Server) fingerprint(r *http.Request, user domain.UserID, route string, body any) (idempotency.Fingerprint, bool, error) {
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if s.Idem == nil || key == "" {
		return idempotency.Fingerprint{}, false, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return idempotency.Fingerprint{}, false, err
	}
	sum := sha256.Sum256(raw)
	return idempotency.Fingerprint{
		Key:      idempotency.Key(key),
		UserID:   user,
		Method:   r.Method,
		Route:    route,
		BodyHash: hex.EncodeToString(sum[:]),
	}, true, nil
}

// replay writes the stored response for fp, if any, and reports whether it did.
//
// A meta record (empty BodyHash) remembers which body first used the key; the same key with a
// different body is rejected with 409.
func (s *Server) replay(w http.ResponseWriter, r *http.Request, fp idempotency.Fingerprint) bool {
	ctx := r.Context()
	meta := fp
	meta.BodyHash = ""
	if rec, ok, err := s.Idem.Get(ctx, meta); err != nil {
		writeAppError(w, r, err)
		return true
	} else if ok {
		if string(rec.Body) != fp.BodyHash {
			writeJSON(w, http.StatusConflict, errorResponse{
				Error:     "idempotency key reuse with different payload",
				Code:      "IDEMPOTENCY_KEY_REUSE",
				RequestID: middleware.GetReqID(ctx),
			})
			return true
		}
	} else {
		_ = s.Idem.Put(ctx, meta, idempotency.Record{
			ContentType: "text/plain",
			Body:        []byte(fp.BodyHash),
			CreatedAt:   s.clock.Now().UTC(),
		})
	}

	rec, ok, err := s.Idem.Get(ctx, fp)
	if err != nil {
		writeAppError(w, r, err)
		return true
	}
	if !ok || rec.StatusCode == 0 {
		return false
	}
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Idempotent-Replay", "true")
	w.WriteHeader(rec.StatusCode)
	_, _ = w.Write(rec.Body)
	return true
}

// remember stores a successful response for later replay. Store failures are logged only.
func (s *Server) remember(r *http.Request, fp idempotency.Fingerprint, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	err = s.Idem.Put(r.Context(), fp, idempotency.Record{
		StatusCode:  status,
		ContentType: "application/json",
		Body:        append(b, '\n'),
		CreatedAt:   s.clock.Now().UTC(),
	})
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("idempotency record not stored")
	}
}
