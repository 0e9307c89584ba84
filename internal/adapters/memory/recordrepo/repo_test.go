package recordrepo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/recordrepo"
)

func TestRepo_ReturnedFieldsAreCopies(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	ctx := context.Background()
	if err := r.Create(ctx, recordrepo.Record{
		ID:        "r1",
		TripID:    "t1",
		Kind:      domain.RecordKindPhotoNote,
		Fields:    json.RawMessage(`{"fotoUri":"file://a.jpg"}`),
		CreatedAt: time.Unix(1, 0).UTC(),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := r.GetByID(ctx, domain.RecordKindPhotoNote, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	got.Fields[2] = 'X'

	again, _ := r.GetByID(ctx, domain.RecordKindPhotoNote, "r1")
	if string(again.Fields) != `{"fotoUri":"file://a.jpg"}` {
		t.Fatalf("stored fields mutated through returned value: %s", again.Fields)
	}
}

func TestRepo_SameIDDifferentKindsAreIndependent(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	ctx := context.Background()
	for _, k := range []domain.RecordKind{domain.RecordKindTransport, domain.RecordKindInsurance} {
		if err := r.Create(ctx, recordrepo.Record{ID: "same", TripID: "t1", Kind: k, Fields: json.RawMessage(`{}`)}); err != nil {
			t.Fatalf("Create(%s): %v", k, err)
		}
	}
	if err := r.Delete(ctx, domain.RecordKindTransport, "same"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.GetByID(ctx, domain.RecordKindInsurance, "same"); err != nil {
		t.Fatalf("insurance record removed by transport delete: %v", err)
	}
}
