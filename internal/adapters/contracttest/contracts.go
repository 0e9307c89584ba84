package contracttest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	idempotencyport "github.com/roteiro-app/travel-planner-api/internal/ports/out/idempotency"
	recordrepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/recordrepo"
	triprepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/triprepo"
	userrepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)
type TripRepoFactory func(t *testing.T) (triprepoport.Repository, CleanupFunc)
type RecordRepoFactory func(t *testing.T) (recordrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		UserID:   domain.UserID(uuid.NewString()),
		Method:   "POST",
		Route:    "/api/trip",
		BodyHash: "body-1",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put ok=%v err=%v, want miss", ok, err)
	}
	rec := idempotencyport.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"id":"t-1"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil || !ok {
		t.Fatalf("Get ok=%v err=%v, want hit", ok, err)
	}
	if got.StatusCode != 201 || got.ContentType != "application/json" || string(got.Body) != `{"id":"t-1"}` {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"id":"t-2"}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"id":"t-2"}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// A different body under the same key is a different fingerprint.
	other := fp
	other.BodyHash = "body-2"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get(other body) ok=%v err=%v, want miss", ok, err)
	}
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	suffix := uuid.NewString()[:8]
	aID := domain.UserID(uuid.NewString())
	aEmail := "ana-" + suffix + "@example.com"
	if err := repo.Create(ctx, userrepoport.User{
		ID:           aID,
		Name:         "Ana Souza",
		PhoneNumber:  "11" + digits(suffix, 9),
		CPF:          digits(suffix+"a", 11),
		Email:        aEmail,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	if err := repo.Create(ctx, userrepoport.User{ID: aID, Name: "dup", CreatedAt: now, UpdatedAt: now}); !errors.Is(err, userrepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate id err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByID(ctx, aID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Ana Souza" || got.PasswordHash != "hash" || got.PushToken != nil {
		t.Fatalf("GetByID=%+v", got)
	}
	if _, err := repo.GetByEmail(ctx, "  "+upper(aEmail)+" "); err != nil {
		t.Fatalf("GetByEmail case-insensitive: %v", err)
	}
	if _, err := repo.GetByID(ctx, domain.UserID(uuid.NewString())); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing err=%v, want ErrNotFound", err)
	}

	// Conflict scan.
	err = repo.FindConflict(ctx, userrepoport.Unique{Email: upper(aEmail)}, "")
	var ce *userrepoport.ConflictError
	if !errors.As(err, &ce) || ce.Field != "email" {
		t.Fatalf("FindConflict email err=%v, want conflict on email", err)
	}
	if err := repo.FindConflict(ctx, userrepoport.Unique{Email: aEmail}, aID); err != nil {
		t.Fatalf("FindConflict excluding self err=%v", err)
	}

	// Profile update rejects a value held by another user.
	bID := domain.UserID(uuid.NewString())
	bEmail := "bruno-" + suffix + "@example.com"
	if err := repo.Create(ctx, userrepoport.User{
		ID:        bID,
		Name:      "Bruno Lima",
		Email:     bEmail,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create b: %v", err)
	}
	upd := got
	upd.Email = bEmail
	upd.UpdatedAt = now.Add(time.Minute)
	if err := repo.UpdateProfile(ctx, upd); !errors.Is(err, userrepoport.ErrConflict) {
		t.Fatalf("UpdateProfile taken email err=%v, want ErrConflict", err)
	}
	upd.Email = aEmail
	upd.Name = "Ana S. Souza"
	if err := repo.UpdateProfile(ctx, upd); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got, _ := repo.GetByID(ctx, aID); got.Name != "Ana S. Souza" || got.PasswordHash != "hash" {
		t.Fatalf("after UpdateProfile got=%+v, want new name and unchanged hash", got)
	}

	// Push tokens.
	if err := repo.SetPushToken(ctx, bID, "ExponentPushToken[b]", now); err != nil {
		t.Fatalf("SetPushToken: %v", err)
	}
	if err := repo.SetPushToken(ctx, domain.UserID(uuid.NewString()), "x", now); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("SetPushToken missing err=%v, want ErrNotFound", err)
	}
	withToken, err := repo.ListWithPushToken(ctx)
	if err != nil {
		t.Fatalf("ListWithPushToken: %v", err)
	}
	found := false
	for _, u := range withToken {
		if u.ID == aID {
			t.Fatalf("ListWithPushToken returned user without token")
		}
		if u.ID == bID && u.PushToken != nil && *u.PushToken == "ExponentPushToken[b]" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ListWithPushToken missing b: %+v", withToken)
	}
}

func RunTripRepo(t *testing.T, newRepo TripRepoFactory) {
	t.Helper()
	ctx := context.Background()

	trips, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(2000, 0).UTC()
	owner := domain.UserID(uuid.NewString())
	firstID := domain.TripID(uuid.NewString())
	secondID := domain.TripID(uuid.NewString())

	if err := trips.Create(ctx, triprepoport.Trip{
		ID:     secondID,
		UserID: owner,
		Origin: domain.TripOriginCart,
		Flights: []domain.Flight{{
			Origin: "GRU", Destination: "GIG", DepartureDate: "10/03/2030", Price: 450.5,
		}},
		Hotels:    []domain.Hotel{{Name: "Copacabana Palace", City: "Rio de Janeiro", CheckIn: "10/03/2030"}},
		CreatedAt: now.Add(time.Minute),
		UpdatedAt: now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if err := trips.Create(ctx, triprepoport.Trip{
		ID:        firstID,
		UserID:    owner,
		Origin:    domain.TripOriginImported,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	if err := trips.Create(ctx, triprepoport.Trip{ID: firstID, UserID: owner, CreatedAt: now, UpdatedAt: now}); !errors.Is(err, triprepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate err=%v, want ErrAlreadyExists", err)
	}

	got, err := trips.GetByID(ctx, secondID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Flights) != 1 || got.Flights[0].Destination != "GIG" || len(got.Hotels) != 1 {
		t.Fatalf("GetByID=%+v", got)
	}
	if got.Itinerary == nil || len(got.Itinerary) != 0 {
		t.Fatalf("Itinerary=%#v, want empty non-nil", got.Itinerary)
	}

	list, err := trips.ListByUser(ctx, owner)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != firstID || list[1].ID != secondID {
		t.Fatalf("ListByUser ordering: %+v", list)
	}
	if other, _ := trips.ListByUser(ctx, domain.UserID(uuid.NewString())); len(other) != 0 {
		t.Fatalf("ListByUser(other)=%+v, want empty", other)
	}

	// Itinerary read-modify-write.
	item := domain.ItineraryItem{ID: domain.ItemID(uuid.NewString()), PlaceName: "Cristo Redentor", Kind: "passeio", Value: 120, Day: "11/03/2030"}
	updated, err := trips.UpdateItinerary(ctx, secondID, now.Add(time.Hour), func(items []domain.ItineraryItem) ([]domain.ItineraryItem, error) {
		return append(items, item), nil
	})
	if err != nil {
		t.Fatalf("UpdateItinerary append: %v", err)
	}
	if len(updated.Itinerary) != 1 || updated.Itinerary[0].ID != item.ID || !updated.UpdatedAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("UpdateItinerary result=%+v", updated)
	}

	boom := errors.New("boom")
	if _, err := trips.UpdateItinerary(ctx, secondID, now.Add(2*time.Hour), func(items []domain.ItineraryItem) ([]domain.ItineraryItem, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("UpdateItinerary mutation error err=%v, want boom", err)
	}
	got, _ = trips.GetByID(ctx, secondID)
	if len(got.Itinerary) != 1 || got.Itinerary[0].PlaceName != "Cristo Redentor" {
		t.Fatalf("failed mutation changed itinerary: %+v", got.Itinerary)
	}
	if _, err := trips.UpdateItinerary(ctx, domain.TripID(uuid.NewString()), now, func(items []domain.ItineraryItem) ([]domain.ItineraryItem, error) {
		return items, nil
	}); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("UpdateItinerary missing err=%v, want ErrNotFound", err)
	}

	if err := trips.Delete(ctx, firstID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := trips.GetByID(ctx, firstID); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete err=%v, want ErrNotFound", err)
	}
	if err := trips.Delete(ctx, firstID); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("Delete twice err=%v, want ErrNotFound", err)
	}
}

func RunRecordRepo(t *testing.T, newRepo RecordRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(3000, 0).UTC()
	tripID := domain.TripID(uuid.NewString())
	docID := domain.RecordID(uuid.NewString())
	laterID := domain.RecordID(uuid.NewString())

	mustCreate := func(id domain.RecordID, kind domain.RecordKind, at time.Time, fields string) {
		t.Helper()
		if err := repo.Create(ctx, recordrepoport.Record{
			ID: id, TripID: tripID, Kind: kind, Fields: json.RawMessage(fields), CreatedAt: at, UpdatedAt: at,
		}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	mustCreate(laterID, domain.RecordKindDocument, now.Add(time.Minute), `{"nome":"Visto","tipo":"visto"}`)
	mustCreate(docID, domain.RecordKindDocument, now, `{"nome":"Passaporte","tipo":"passaporte"}`)
	mustCreate(domain.RecordID(uuid.NewString()), domain.RecordKindInsurance, now, `{"seguradora":"Porto","numeroApolice":"123"}`)

	got, err := repo.GetByID(ctx, domain.RecordKindDocument, docID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !jsonEqual(t, got.Fields, `{"nome":"Passaporte","tipo":"passaporte"}`) || got.TripID != tripID {
		t.Fatalf("GetByID=%+v fields=%s", got, got.Fields)
	}
	if _, err := repo.GetByID(ctx, domain.RecordKindInsurance, docID); !errors.Is(err, recordrepoport.ErrNotFound) {
		t.Fatalf("GetByID wrong kind err=%v, want ErrNotFound", err)
	}

	docs, err := repo.ListByTrip(ctx, domain.RecordKindDocument, tripID)
	if err != nil {
		t.Fatalf("ListByTrip: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != docID || docs[1].ID != laterID {
		t.Fatalf("ListByTrip ordering: %+v", docs)
	}
	if none, _ := repo.ListByTrip(ctx, domain.RecordKindTransport, tripID); len(none) != 0 {
		t.Fatalf("ListByTrip(transport)=%+v, want empty", none)
	}

	if err := repo.Update(ctx, recordrepoport.Record{
		ID: docID, Kind: domain.RecordKindDocument, Fields: json.RawMessage(`{"nome":"RG","tipo":"identidade"}`), UpdatedAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(ctx, domain.RecordKindDocument, docID)
	if !jsonEqual(t, got.Fields, `{"nome":"RG","tipo":"identidade"}`) || got.TripID != tripID || !got.CreatedAt.Equal(now) {
		t.Fatalf("after Update got=%+v fields=%s", got, got.Fields)
	}
	if err := repo.Update(ctx, recordrepoport.Record{ID: domain.RecordID(uuid.NewString()), Kind: domain.RecordKindDocument, Fields: json.RawMessage(`{}`)}); !errors.Is(err, recordrepoport.ErrNotFound) {
		t.Fatalf("Update missing err=%v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, domain.RecordKindDocument, docID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, domain.RecordKindDocument, docID); err != nil {
		t.Fatalf("Delete missing err=%v, want nil", err)
	}
	if _, err := repo.GetByID(ctx, domain.RecordKindDocument, docID); !errors.Is(err, recordrepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete err=%v, want ErrNotFound", err)
	}
}

func jsonEqual(t *testing.T, got json.RawMessage, want string) bool {
	t.Helper()
	var a, b any
	if err := json.Unmarshal(got, &a); err != nil {
		t.Fatalf("unmarshal %s: %v", got, err)
	}
	if err := json.Unmarshal([]byte(want), &b); err != nil {
		t.Fatalf("unmarshal %s: %v", want, err)
	}
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ab) == string(bb)
}

// digits derives n decimal digits from s so parallel runs against a shared database do not collide.
func digits(s string, n int) string {
	out := make([]byte, 0, n)
	for i := 0; len(out) < n; i++ {
		out = append(out, '0'+s[i%len(s)]%10)
	}
	return string(out)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}
