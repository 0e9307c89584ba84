package triprepo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/triprepo"
)

func TestRepo_ListByUser_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	ctx := context.Background()

	_ = r.Create(ctx, triprepo.Trip{ID: "t3", UserID: "u1", CreatedAt: time.Unix(30, 0).UTC()})
	_ = r.Create(ctx, triprepo.Trip{ID: "t1", UserID: "u1", CreatedAt: time.Unix(10, 0).UTC()})
	_ = r.Create(ctx, triprepo.Trip{ID: "t2", UserID: "u2", CreatedAt: time.Unix(20, 0).UTC()})
	_ = r.Create(ctx, triprepo.Trip{ID: "t0", UserID: "u1", CreatedAt: time.Unix(10, 0).UTC()})

	got, err := r.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser() err=%v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d, want 3", len(got))
	}
	if got[0].ID != "t0" || got[1].ID != "t1" || got[2].ID != "t3" {
		t.Fatalf("order=%v, want [t0 t1 t3]", []domain.TripID{got[0].ID, got[1].ID, got[2].ID})
	}
}

func TestRepo_GetByID_ReturnsCopy(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	ctx := context.Background()
	desc := "original"
	_ = r.Create(ctx, triprepo.Trip{
		ID:        "t1",
		UserID:    "u1",
		Itinerary: []domain.ItineraryItem{{ID: "i1", PlaceName: "Museu", Description: &desc}},
	})

	got, _ := r.GetByID(ctx, "t1")
	*got.Itinerary[0].Description = "mutated"
	got.Itinerary[0].PlaceName = "mutated"

	again, _ := r.GetByID(ctx, "t1")
	if again.Itinerary[0].PlaceName != "Museu" || *again.Itinerary[0].Description != "original" {
		t.Fatalf("stored trip was mutated through a returned copy: %+v", again.Itinerary[0])
	}
}

func TestRepo_UpdateItinerary_ErrorLeavesTripUntouched(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	ctx := context.Background()
	_ = r.Create(ctx, triprepo.Trip{ID: "t1", Itinerary: []domain.ItineraryItem{{ID: "i1"}}})

	boom := errors.New("boom")
	_, err := r.UpdateItinerary(ctx, "t1", time.Unix(5, 0), func(items []domain.ItineraryItem) ([]domain.ItineraryItem, error) {
		items[0].PlaceName = "changed"
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want boom", err)
	}
	got, _ := r.GetByID(ctx, "t1")
	if len(got.Itinerary) != 1 || got.Itinerary[0].PlaceName != "" {
		t.Fatalf("itinerary=%+v, want untouched", got.Itinerary)
	}
}

func TestRepo_UpdateItinerary_ConcurrentAppendsAreNotLost(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	ctx := context.Background()
	_ = r.Create(ctx, triprepo.Trip{ID: "t1"})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.UpdateItinerary(ctx, "t1", time.Now(), func(items []domain.ItineraryItem) ([]domain.ItineraryItem, error) {
				return append(items, domain.ItineraryItem{PlaceName: "x"}), nil
			})
		}()
	}
	wg.Wait()

	got, _ := r.GetByID(ctx, "t1")
	if len(got.Itinerary) != n {
		t.Fatalf("len=%d, want %d", len(got.Itinerary), n)
	}
}

func TestRepo_Delete_NotFound(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	if err := r.Delete(context.Background(), "missing"); !errors.Is(err, triprepo.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}
