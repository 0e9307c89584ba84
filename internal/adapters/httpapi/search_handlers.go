package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"

	"github.com/roteiro-app/travel-planner-api/internal/app/search"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/searchprovider"
)

type queryParam struct {
	name string
	dest any
}

// bindQuery binds form-style query parameters. Presence and format are checked by the search service.
func bindQuery(w http.ResponseWriter, r *http.Request, params ...queryParam) bool {
	q := r.URL.Query()
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, p.dest); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:     "invalid query parameter " + p.name,
				Code:      "VALIDATION_ERROR",
				Details:   map[string]any{p.name: err.Error()},
				RequestID: middleware.GetReqID(r.Context()),
			})
			return false
		}
	}
	return true
}

func (s *Server) SearchFlights(w http.ResponseWriter, r *http.Request) {
	var p search.FlightParams
	if !bindQuery(w, r,
		queryParam{"departure_id", &p.DepartureID},
		queryParam{"arrival_id", &p.ArrivalID},
		queryParam{"outbound_date", &p.OutboundDate},
		queryParam{"return_date", &p.ReturnDate},
		queryParam{"currency", &p.Currency},
		queryParam{"hl", &p.Language},
		queryParam{"adults", &p.Adults},
	) {
		return
	}
	resp, err := s.Search.SearchFlights(r.Context(), p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	relay(w, resp)
}

func (s *Server) SearchHotels(w http.ResponseWriter, r *http.Request) {
	var p search.HotelParams
	if !bindQuery(w, r,
		queryParam{"q", &p.Query},
		queryParam{"check_in_date", &p.CheckInDate},
		queryParam{"check_out_date", &p.CheckOutDate},
		queryParam{"currency", &p.Currency},
		queryParam{"hl", &p.Language},
		queryParam{"adults", &p.Adults},
	) {
		return
	}
	resp, err := s.Search.SearchHotels(r.Context(), p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	relay(w, resp)
}

func (s *Server) LookupCEP(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Search.LookupCEP(r.Context(), chi.URLParam(r, "cep"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	relay(w, resp)
}

// relay writes an upstream reply unchanged.
func relay(w http.ResponseWriter, resp searchprovider.Response) {
	ct := resp.ContentType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
