package httpapi

import (
	"net/http"

	"github.com/roteiro-app/travel-planner-api/internal/app/notify"
	"github.com/roteiro-app/travel-planner-api/internal/app/records"
	"github.com/roteiro-app/travel-planner-api/internal/app/search"
	"github.com/roteiro-app/travel-planner-api/internal/app/trips"
	"github.com/roteiro-app/travel-planner-api/internal/app/users"
	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/platform/scheduler"
	clockport "github.com/roteiro-app/travel-planner-api/internal/ports/out/clock"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/idempotency"
)

// Services groups the application services the HTTP adapter fronts.
type Services struct {
	Users   *users.Service
	Trips   *trips.Service
	Records *records.Service
	Search  *search.Service

	// Notify and Jobs back POST /notificar. Both may be nil, in which case it replies 503.
	Notify *notify.Dispatcher
	Jobs   *scheduler.Runner
}

type Server struct {
	Services

	Idem  idempotency.Store
	clock clockport.Clock
}

func NewServer(svc Services, idem idempotency.Store, clk clockport.Clock) *Server {
	return &Server{
		Services: svc,
		Idem:     idem,
		clock:    clk,
	}
}

// caller returns the authenticated user id, replying 401 when there is none.
func caller(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing subject")
		return "", false
	}
	return id, true
}
