package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/roteiro-app/travel-planner-api/internal/adapters/httpapi"
	memclock "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/clock"
	memidempotency "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/idempotency"
	memrecordrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/recordrepo"
	memtriprepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/userrepo"
	pgidempotency "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres/idempotency"
	pgrecordrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres/recordrepo"
	postgres_testutil "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres/testutil"
	pgtriprepo "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres/triprepo"
	pguserrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres/userrepo"
	"github.com/roteiro-app/travel-planner-api/internal/app/records"
	"github.com/roteiro-app/travel-planner-api/internal/app/trips"
	"github.com/roteiro-app/travel-planner-api/internal/app/users"
	"github.com/roteiro-app/travel-planner-api/internal/platform/auth/tokens"
	idempotencyport "github.com/roteiro-app/travel-planner-api/internal/ports/out/idempotency"
	recordrepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/recordrepo"
	triprepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/triprepo"
	userrepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/userrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	var (
		userRepo   userrepoport.Repository
		tripRepo   triprepoport.Repository
		recordRepo recordrepoport.Repository
		idemStore  idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		userRepo = pguserrepo.NewRepo(pool)
		tripRepo = pgtriprepo.NewRepo(pool)
		recordRepo = pgrecordrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	case backendMemory:
		userRepo = memuserrepo.NewRepo()
		tripRepo = memtriprepo.NewRepo()
		recordRepo = memrecordrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	tm, err := tokens.NewManager(tokens.Config{
		Secret: []byte("itest-secret-itest-secret"),
		Issuer: "itest",
		TTL:    time.Hour,
		Clock:  clk,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	tripSvc := trips.NewService(tripRepo, clk, trips.Options{})
	api := httpapi.NewServer(httpapi.Services{
		Users:   users.NewService(userRepo, clk, tm, bcrypt.MinCost),
		Trips:   tripSvc,
		Records: records.NewService(recordRepo, tripSvc, clk),
	}, idemStore, clk)

	// Bearer auth with real tokens, so the login flow is covered end to end.
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware: httpapi.NewAuthMiddleware(tm),
		Log:            zerolog.Nop(),
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, token string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Code != wantCode {
		t.Fatalf("code=%q want=%q body=%s", got.Code, wantCode, string(body))
	}
	if got.RequestID == "" {
		t.Fatalf("expected requestId in error body=%s", string(body))
	}
}
