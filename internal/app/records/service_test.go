package records

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	memclock "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/clock"
	memrecordrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/recordrepo"
	memtriprepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/triprepo"
	"github.com/roteiro-app/travel-planner-api/internal/app/trips"
	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

type fixture struct {
	svc    *Service
	tripID domain.TripID
	clk    *memclock.ManualClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := memclock.NewManualClock(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	tripSvc := trips.NewService(memtriprepo.NewRepo(), clk, trips.Options{})
	trip, err := tripSvc.CreateFromCheckout(context.Background(), "owner", trips.CheckoutInput{
		Hotels: []domain.Hotel{{Name: "Pousada", CheckIn: "2026-07-01"}},
	})
	require.NoError(t, err)
	return fixture{svc: NewService(memrecordrepo.NewRepo(), tripSvc, clk), tripID: trip.ID, clk: clk}
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var re *Error
	if errors.As(err, &re) {
		require.Equal(t, status, re.Status, "err=%v", err)
		return
	}
	var te *trips.Error
	require.True(t, errors.As(err, &te), "err=%v (type %T)", err, err)
	require.Equal(t, status, te.Status, "err=%v", err)
}

func TestCreate_ValidatesRequiredFieldsPerKind(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		kind    domain.RecordKind
		body    string
		missing string
	}{
		{domain.RecordKindDocument, `{"nome":"Passaporte"}`, "tipo"},
		{domain.RecordKindEmergencyContact, `{"nome":"Mãe"}`, "telefone"},
		{domain.RecordKindInsurance, `{"seguradora":"Porto"}`, "numeroApolice"},
		{domain.RecordKindTransport, `{"tipo":"trem"}`, "data"},
		{domain.RecordKindPhotoNote, `{"titulo":"praia"}`, "fotoUri"},
	}
	for _, tc := range cases {
		_, err := f.svc.Create(ctx, "owner", tc.kind, f.tripID, json.RawMessage(tc.body))
		var re *Error
		require.True(t, errors.As(err, &re), "%s: err=%v", tc.kind, err)
		require.Equal(t, 400, re.Status)
		require.Contains(t, re.Details, tc.missing, "%s", tc.kind)
	}
}

func TestCreate_RequiresExistingOwnedTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	body := json.RawMessage(`{"nome":"Passaporte","tipo":"passaporte"}`)

	_, err := f.svc.Create(ctx, "owner", domain.RecordKindDocument, "missing-trip", body)
	requireStatus(t, err, 404)

	_, err = f.svc.Create(ctx, "intruder", domain.RecordKindDocument, f.tripID, body)
	requireStatus(t, err, 404)

	_, err = f.svc.Create(ctx, "owner", domain.RecordKind("receipts"), f.tripID, body)
	requireStatus(t, err, 404)
}

func TestCRUD_Document(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "owner", domain.RecordKindDocument, f.tripID,
		json.RawMessage(`{"nome":"Passaporte","tipo":"passaporte","numero":"FX123","extra":"dropped"}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"nome":"Passaporte","tipo":"passaporte","numero":"FX123"}`, string(created.Fields))

	list, err := f.svc.List(ctx, "owner", domain.RecordKindDocument, f.tripID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)

	f.clk.Advance(time.Hour)
	updated, err := f.svc.Update(ctx, "owner", domain.RecordKindDocument, created.ID,
		json.RawMessage(`{"nome":"RG","tipo":"identidade"}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"nome":"RG","tipo":"identidade"}`, string(updated.Fields))
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	got, err := f.svc.Get(ctx, "owner", domain.RecordKindDocument, created.ID)
	require.NoError(t, err)
	require.JSONEq(t, string(updated.Fields), string(got.Fields))

	_, err = f.svc.Get(ctx, "intruder", domain.RecordKindDocument, created.ID)
	requireStatus(t, err, 404)

	require.NoError(t, f.svc.Delete(ctx, "owner", domain.RecordKindDocument, created.ID))
	_, err = f.svc.Get(ctx, "owner", domain.RecordKindDocument, created.ID)
	requireStatus(t, err, 404)
}

func TestUpdate_MissingRecordIs404(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), "owner", domain.RecordKindInsurance, "nope",
		json.RawMessage(`{"seguradora":"Porto","numeroApolice":"1"}`))
	requireStatus(t, err, 404)
}

func TestDelete_IsUnconditional(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, "owner", domain.RecordKindTransport, "never-existed"))

	rec, err := f.svc.Create(ctx, "owner", domain.RecordKindTransport, f.tripID,
		json.RawMessage(`{"tipo":"ônibus","data":"02/07/2026"}`))
	require.NoError(t, err)

	// Another user's delete reports success but leaves the record in place.
	require.NoError(t, f.svc.Delete(ctx, "intruder", domain.RecordKindTransport, rec.ID))
	_, err = f.svc.Get(ctx, "owner", domain.RecordKindTransport, rec.ID)
	require.NoError(t, err)
}

func TestCreate_RejectsNonObjectBody(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "owner", domain.RecordKindPhotoNote, f.tripID, json.RawMessage(`["x"]`))
	requireStatus(t, err, 400)
}
