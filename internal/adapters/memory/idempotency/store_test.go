package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/idempotency"
)

func TestStore_FingerprintMustMatchExactly(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fp := idempotency.Fingerprint{
		Key:      "k1",
		UserID:   domain.UserID("user-1"),
		Method:   "POST",
		Route:    "/api/trip",
		BodyHash: "abc123",
	}
	rec := idempotency.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"id":"t1"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := s.Put(context.Background(), fp, rec); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	rec.Body[0] = 'X'

	got, ok, err := s.Get(context.Background(), fp)
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v, want hit", ok, err)
	}
	if got.StatusCode != 201 || string(got.Body) != `{"id":"t1"}` {
		t.Fatalf("Get()=%+v, want stored record untouched by caller mutation", got)
	}

	other := fp
	other.UserID = "user-2"
	if _, ok, _ := s.Get(context.Background(), other); ok {
		t.Fatalf("Get(other user) ok=true, want miss")
	}
	other = fp
	other.BodyHash = "different"
	if _, ok, _ := s.Get(context.Background(), other); ok {
		t.Fatalf("Get(other body) ok=true, want miss")
	}
}
