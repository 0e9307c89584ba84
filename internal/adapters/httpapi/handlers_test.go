package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	memclock "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/clock"
	memidempotency "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/idempotency"
	memjoblock "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/joblock"
	mempusher "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/pusher"
	memrecordrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/recordrepo"
	memtriprepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/userrepo"
	"github.com/roteiro-app/travel-planner-api/internal/app/notify"
	"github.com/roteiro-app/travel-planner-api/internal/app/records"
	"github.com/roteiro-app/travel-planner-api/internal/app/search"
	"github.com/roteiro-app/travel-planner-api/internal/app/trips"
	"github.com/roteiro-app/travel-planner-api/internal/app/users"
	"github.com/roteiro-app/travel-planner-api/internal/platform/auth/tokens"
	"github.com/roteiro-app/travel-planner-api/internal/platform/metrics"
	"github.com/roteiro-app/travel-planner-api/internal/platform/scheduler"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/searchprovider"
)

type fakeUpstream struct {
	flights []searchprovider.FlightQuery
	ceps    []string
}

func (f *fakeUpstream) SearchFlights(_ context.Context, q searchprovider.FlightQuery) (searchprovider.Response, error) {
	f.flights = append(f.flights, q)
	return searchprovider.Response{StatusCode: http.StatusOK, ContentType: "application/json", Body: []byte(`{"best_flights":[]}`)}, nil
}

func (f *fakeUpstream) SearchHotels(_ context.Context, _ searchprovider.HotelQuery) (searchprovider.Response, error) {
	return searchprovider.Response{StatusCode: http.StatusOK, ContentType: "application/json", Body: []byte(`{"properties":[]}`)}, nil
}

func (f *fakeUpstream) LookupCEP(_ context.Context, cep string) (searchprovider.Response, error) {
	f.ceps = append(f.ceps, cep)
	return searchprovider.Response{StatusCode: http.StatusOK, ContentType: "application/json", Body: []byte(`{"cep":"01310-100"}`)}, nil
}

type testAPI struct {
	h        http.Handler
	upstream *fakeUpstream
	push     *mempusher.Recorder
	metrics  *metrics.Metrics
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	m := metrics.New()
	userRepo := memuserrepo.NewRepo()
	tripRepo := memtriprepo.NewRepo()

	tm, err := tokens.NewManager(tokens.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "test",
		TTL:    time.Hour,
		Clock:  clk,
	})
	require.NoError(t, err)

	upstream := &fakeUpstream{}
	push := mempusher.NewRecorder()
	tripsSvc := trips.NewService(tripRepo, clk, trips.Options{})
	svc := Services{
		Users:   users.NewService(userRepo, clk, tm, bcrypt.MinCost),
		Trips:   tripsSvc,
		Records: records.NewService(memrecordrepo.NewRepo(), tripsSvc, clk),
		Search:  search.NewService(upstream, upstream, search.Options{Metrics: m}),
		Notify:  notify.NewDispatcher(userRepo, tripRepo, push, clk, notify.Options{Location: time.UTC}),
		Jobs:    scheduler.NewRunner(scheduler.Options{Locker: memjoblock.NewLocker(), Metrics: m, Log: zerolog.Nop()}),
	}
	api := NewServer(svc, memidempotency.NewStore(), clk)
	h := NewRouter(api, RouterOptions{
		AuthMiddleware: NewDevAuthMiddleware(""),
		Metrics:        m,
		Log:            zerolog.Nop(),
	})
	return &testAPI{h: h, upstream: upstream, push: push, metrics: m}
}

func (a *testAPI) do(t *testing.T, method, path, subject string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func cart() map[string]any {
	return map[string]any{
		"voos":   []any{map[string]any{"origem": "GRU", "destino": "LIS", "dataPartida": "01/05/2026"}},
		"hoteis": []any{},
	}
}

func (a *testAPI) createTrip(t *testing.T, subject string, body any) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/trip", subject, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[tripDTO](t, rec).ID
}

func (a *testAPI) register(t *testing.T, email, phone, cpf string) userDTO {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"name":        "Ana  Souza",
		"phoneNumber": phone,
		"cpf":         cpf,
		"email":       email,
		"password":    "segredo1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[userDTO](t, rec)
}

func TestHealthzAndMetrics(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `roteiro_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestAPI_RequiresSubject(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/trip", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, decode[errorResponse](t, rec).Error)
}

func TestItinerary_AppendThenDeleteFirstLeavesEmptyList(t *testing.T) {
	a := newTestAPI(t)
	tripID := a.createTrip(t, "alice", cart())

	rec := a.do(t, http.MethodPost, "/api/trip/"+tripID+"/itinerary", "alice", map[string]any{
		"nomeLocal": "Museu",
		"tipo":      "Passeio",
		"dia":       "10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[itineraryItemDTO](t, rec)
	require.Equal(t, 0, item.Index)
	require.NotEmpty(t, item.ID)

	rec = a.do(t, http.MethodDelete, "/api/trip/"+tripID+"/itinerary/0", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	require.Equal(t, []any{}, got["itinerarios"])
}

func TestItinerary_UpdateByIndexAndID(t *testing.T) {
	a := newTestAPI(t)
	tripID := a.createTrip(t, "alice", cart())
	base := "/api/trip/" + tripID + "/itinerary"

	rec := a.do(t, http.MethodPost, base, "alice", map[string]any{
		"nomeLocal": "Museu",
		"tipo":      "Passeio",
		"dia":       "12/03/2026 10:00",
		"descricao": "acervo",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[itineraryItemDTO](t, rec).ID

	rec = a.do(t, http.MethodPut, base+"/0", "alice", map[string]any{"valor": 30, "descricao": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[itineraryItemDTO](t, rec)
	require.Equal(t, 30.0, got.Value)
	require.Nil(t, got.Description)
	require.Equal(t, "Museu", got.PlaceName)

	rec = a.do(t, http.MethodPut, base+"/"+string(id), "alice", map[string]any{"nomeLocal": "MASP"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "MASP", decode[itineraryItemDTO](t, rec).PlaceName)

	rec = a.do(t, http.MethodPut, base+"/5", "alice", map[string]any{"nomeLocal": "X"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPut, base+"/0", "alice", map[string]any{"nomeLocal": nil})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, base, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]itineraryItemDTO](t, rec)
	require.Len(t, list, 1)
	require.Equal(t, "MASP", list[0].PlaceName)
}

func TestTrips_OwnerOnly(t *testing.T) {
	a := newTestAPI(t)
	tripID := a.createTrip(t, "alice", map[string]any{
		"hoteis": []any{map[string]any{"nome": "Hotel Central", "checkin": "11/03/2026"}},
	})

	rec := a.do(t, http.MethodGet, "/api/trip/"+tripID, "bob", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/trip/"+tripID, "bob", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/trip/"+tripID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[tripDTO](t, rec)
	require.Equal(t, "Carrinho", got.Origin)
	require.Len(t, got.Hotels, 1)

	rec = a.do(t, http.MethodDelete, "/api/trip/"+tripID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/trip", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[[]tripDTO](t, rec))
}

func TestCreateTrip_IdempotentReplay(t *testing.T) {
	a := newTestAPI(t)
	body := cart()

	first := a.do(t, http.MethodPost, "/api/trip", "alice", body, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := a.do(t, http.MethodPost, "/api/trip", "alice", body, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "true", second.Header().Get("Idempotent-Replay"))
	require.Equal(t, decode[tripDTO](t, first).ID, decode[tripDTO](t, second).ID)

	other := a.do(t, http.MethodPost, "/api/trip", "alice", map[string]any{}, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusConflict, other.Code)
	require.Equal(t, "IDEMPOTENCY_KEY_REUSE", decode[errorResponse](t, other).Code)

	rec := a.do(t, http.MethodGet, "/api/trip", "alice", nil)
	require.Len(t, decode[[]tripDTO](t, rec), 1)
}

func TestAuth_RegisterLoginUpdate(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"name":        "Ana",
		"phoneNumber": "11987654321",
		"cpf":         "12345678909",
		"email":       "ana@example.com",
		"password":    "segredo1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	require.NotEmpty(t, decode[errorResponse](t, rec).Error)

	u := a.register(t, "ana@example.com", "11987654321", "123.456.789-09")
	require.Equal(t, "Ana Souza", u.Name)
	require.NotContains(t, a.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "ana@example.com", "password": "segredo1",
	}).Body.String(), "password")

	rec = a.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "ANA@example.com", "password": "segredo1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, decode[loginResponse](t, rec).Token)

	rec = a.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "ana@example.com", "password": "errada"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Outra", "phoneNumber": "11911112222", "cpf": "999.888.777-66", "email": "ana@example.com", "password": "segredo1",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPut, "/auth/"+u.ID, u.ID, map[string]any{"name": "Ana Maria"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Ana Maria", decode[userDTO](t, rec).Name)

	rec = a.do(t, http.MethodPut, "/auth/"+u.ID, "someone-else", map[string]any{"name": "X"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecords_CRUD(t *testing.T) {
	a := newTestAPI(t)
	tripID := a.createTrip(t, "alice", cart())

	rec := a.do(t, http.MethodPost, "/api/documents", "alice", map[string]any{"tripId": tripID, "nome": "Passaporte", "tipo": "passaporte"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	require.Equal(t, "Passaporte", created["nome"])
	require.Equal(t, tripID, created["tripId"])
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	rec = a.do(t, http.MethodPost, "/api/documents", "alice", map[string]any{"tripId": tripID, "nome": "Sem tipo"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/documents", "bob", map[string]any{"tripId": tripID, "nome": "X", "tipo": "Y"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/documents/"+tripID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = a.do(t, http.MethodPut, "/api/documents/"+id, "alice", map[string]any{"nome": "RG", "tipo": "identidade"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "RG", decode[map[string]any](t, rec)["nome"])

	rec = a.do(t, http.MethodPut, "/api/documents/missing", "alice", map[string]any{"nome": "RG", "tipo": "identidade"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/documents/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodDelete, "/api/documents/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/widgets", "alice", map[string]any{"tripId": tripID})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch_RelaysUpstream(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/flights?departure_id=gru&arrival_id=lis&outbound_date=2026-05-01&adults=2", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"best_flights":[]}`, rec.Body.String())
	require.Len(t, a.upstream.flights, 1)
	require.Equal(t, "GRU", a.upstream.flights[0].DepartureID)
	require.Equal(t, 2, a.upstream.flights[0].Adults)

	rec = a.do(t, http.MethodGet, "/api/flights?arrival_id=LIS&outbound_date=2026-05-01", "alice", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/flights?departure_id=GRU&arrival_id=LIS&outbound_date=2026-05-01&adults=dois", "alice", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, a.upstream.flights, 1)

	rec = a.do(t, http.MethodGet, "/api/hotels?q=Lisboa&check_in_date=2026-05-01&check_out_date=2026-05-05", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/cep/01310-100", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []string{"01310100"}, a.upstream.ceps)
}

func TestNotify_OnDemand(t *testing.T) {
	a := newTestAPI(t)
	u := a.register(t, "ana@example.com", "11987654321", "123.456.789-09")

	rec := a.do(t, http.MethodPost, "/api/savePushToken", u.ID, map[string]any{"token": "ExponentPushToken[abc]"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	a.createTrip(t, u.ID, map[string]any{
		"hoteis": []any{map[string]any{"nome": "Hotel Central", "checkin": "11/03/2026", "checkout": "15/03/2026"}},
	})

	rec = a.do(t, http.MethodPost, "/notificar", u.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decode[notify.Summary](t, rec)
	require.Equal(t, notify.Summary{Users: 1, Messages: 1, Chunks: 1}, sum)

	msgs := a.push.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "ExponentPushToken[abc]", msgs[0].To)
	require.True(t, strings.Contains(msgs[0].Body, "Hotel Central"), msgs[0].Body)
}
