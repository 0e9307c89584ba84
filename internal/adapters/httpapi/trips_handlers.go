package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"

	"github.com/roteiro-app/travel-planner-api/internal/app/trips"
	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

type tripDTO struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Origin    string                 `json:"origem"`
	Flights   []domain.Flight        `json:"voos"`
	Hotels    []domain.Hotel         `json:"hoteis"`
	Itinerary []domain.ItineraryItem `json:"itinerarios"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// itineraryItemDTO carries the persisted position so positional clients keep working.
type itineraryItemDTO struct {
	Index int `json:"index"`
	domain.ItineraryItem
}

type itineraryPatchRequest struct {
	PlaceName   nullable.Nullable[string]         `json:"nomeLocal,omitempty"`
	Kind        nullable.Nullable[string]         `json:"tipo,omitempty"`
	Value       nullable.Nullable[float64]        `json:"valor,omitempty"`
	Description nullable.Nullable[string]         `json:"descricao,omitempty"`
	Day         nullable.Nullable[string]         `json:"dia,omitempty"`
	Address     nullable.Nullable[domain.Address] `json:"endereco,omitempty"`
}

// CreateTrip handles the cart checkout. An Idempotency-Key header makes retries replay the
// first response.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var in trips.CheckoutInput
	if !decodeBody(w, r, &in) {
		return
	}

	fp, idem, err := s.fingerprint(r, me, "/api/trip", in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if idem && s.replay(w, r, fp) {
		return
	}

	created, err := s.Trips.CreateFromCheckout(r.Context(), me, in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	resp := toTripDTO(created)
	if idem {
		s.remember(r, fp, http.StatusCreated, resp)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := s.Trips.ListTrips(r.Context(), me)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]tripDTO, 0, len(list))
	for _, t := range list {
		out = append(out, toTripDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	t, err := s.Trips.GetTrip(r.Context(), me, domain.TripID(chi.URLParam(r, "id")))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTripDTO(t))
}

func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.Trips.DeleteTrip(r.Context(), me, domain.TripID(id)); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "trip deleted", "id": id})
}

func (s *Server) ListItinerary(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	items, err := s.Trips.ListItinerary(r.Context(), me, domain.TripID(chi.URLParam(r, "id")))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]itineraryItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, itineraryItemDTO{Index: it.Index, ItineraryItem: it.Item})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) AppendItineraryItem(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var in trips.NewItineraryItem
	if !decodeBody(w, r, &in) {
		return
	}
	it, err := s.Trips.AppendItineraryItem(r.Context(), me, domain.TripID(chi.URLParam(r, "id")), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itineraryItemDTO{Index: it.Index, ItineraryItem: it.Item})
}

// UpdateItineraryItem handles PUT /api/trip/{id}/itinerary/{ref}; ref is an index or an item id.
func (s *Server) UpdateItineraryItem(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req itineraryPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := trips.ItineraryPatch{
		PlaceName:   tripsOptional(req.PlaceName),
		Kind:        tripsOptional(req.Kind),
		Value:       tripsOptional(req.Value),
		Day:         tripsOptional(req.Day),
		Description: tripsOptional(req.Description),
		Address:     tripsOptional(req.Address),
	}
	it, err := s.Trips.UpdateItineraryItem(r.Context(), me, domain.TripID(chi.URLParam(r, "id")), chi.URLParam(r, "ref"), patch)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itineraryItemDTO{Index: it.Index, ItineraryItem: it.Item})
}

// DeleteItineraryItem replies with the whole trip so clients can refresh their positions.
func (s *Server) DeleteItineraryItem(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	t, err := s.Trips.DeleteItineraryItem(r.Context(), me, domain.TripID(chi.URLParam(r, "id")), chi.URLParam(r, "ref"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTripDTO(t))
}

func toTripDTO(t domain.Trip) tripDTO {
	out := tripDTO{
		ID:        string(t.ID),
		UserID:    string(t.UserID),
		Origin:    t.Origin,
		Flights:   t.Flights,
		Hotels:    t.Hotels,
		Itinerary: t.Itinerary,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if out.Flights == nil {
		out.Flights = []domain.Flight{}
	}
	if out.Hotels == nil {
		out.Hotels = []domain.Hotel{}
	}
	if out.Itinerary == nil {
		out.Itinerary = []domain.ItineraryItem{}
	}
	return out
}

func tripsOptional[T any](n nullable.Nullable[T]) trips.Optional[T] {
	if !n.IsSpecified() {
		return trips.Unspecified[T]()
	}
	if n.IsNull() {
		return trips.Null[T]()
	}
	v, err := n.Get()
	if err != nil {
		return trips.Unspecified[T]()
	}
	return trips.Some(v)
}
