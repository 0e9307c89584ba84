package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/roteiro-app/travel-planner-api/internal/platform/metrics"
)

type RouterOptions struct {
	// AuthMiddleware guards every route except health, metrics, register and login.
	AuthMiddleware func(http.Handler) http.Handler
	Metrics        *metrics.Metrics
	Log            zerolog.Logger
}

// NewRouter constructs the API HTTP router.
func NewRouter(api *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(opts.Log))
	r.Use(requestIDLogField)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	if opts.Metrics != nil {
		r.Use(countRequests(opts.Metrics))
	}
	r.Use(middleware.Recoverer)

	// Health endpoint is used by infra checks.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Post("/auth/register", api.Register)
	r.Post("/auth/login", api.Login)

	r.Group(func(r chi.Router) {
		if opts.AuthMiddleware != nil {
			r.Use(opts.AuthMiddleware)
		}
		r.Put("/auth/{id}", api.UpdateProfile)
		r.Post("/notificar", api.TriggerNotify)

		r.Route("/api", func(r chi.Router) {
			r.Post("/trip", api.CreateTrip)
			r.Get("/trip", api.ListTrips)
			r.Get("/trip/{id}", api.GetTrip)
			r.Delete("/trip/{id}", api.DeleteTrip)
			r.Get("/trip/{id}/itinerary", api.ListItinerary)
			r.Post("/trip/{id}/itinerary", api.AppendItineraryItem)
			r.Put("/trip/{id}/itinerary/{ref}", api.UpdateItineraryItem)
			r.Delete("/trip/{id}/itinerary/{ref}", api.DeleteItineraryItem)

			r.Get("/flights", api.SearchFlights)
			r.Get("/hotels", api.SearchHotels)
			r.Get("/cep/{cep}", api.LookupCEP)

			r.Post("/savePushToken", api.SavePushToken)

			// {ref} is the trip id for GET and the record id for PUT/DELETE.
			r.Post("/{kind}", api.CreateRecord)
			r.Get("/{kind}/{ref}", api.ListRecords)
			r.Put("/{kind}/{ref}", api.UpdateRecord)
			r.Delete("/{kind}/{ref}", api.DeleteRecord)
		})
	})
	return r
}

func requestIDLogField(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("requestId", rid)
			})
		}
		next.ServeHTTP(w, r)
	})
}

// countRequests labels by route pattern, not raw path, to keep cardinality bounded.
func countRequests(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		})
	}
}
