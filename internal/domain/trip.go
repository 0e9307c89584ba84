package domain

import (
	"strings"
	"time"
)

// Trip origins.
const (
	TripOriginCart     = "Carrinho"
	TripOriginImported = "Importados"
)

// Flight is a flight leg carried by value inside a trip (and inside the client-side cart).
// The JSON shape is shared by the API, the document store and imported emails.
type Flight struct {
	Airline       string  `json:"companhia,omitempty"`
	FlightNumber  string  `json:"numeroVoo,omitempty"`
	Origin        string  `json:"origem" validate:"required"`
	Destination   string  `json:"destino" validate:"required"`
	DepartureDate string  `json:"dataPartida" validate:"required"`
	DepartureTime string  `json:"horaPartida,omitempty"`
	ArrivalDate   string  `json:"dataChegada,omitempty"`
	ArrivalTime   string  `json:"horaChegada,omitempty"`
	Price         float64 `json:"preco,omitempty"`
}

// Hotel is a hotel stay carried by value inside a trip.
type Hotel struct {
	Name     string  `json:"nome" validate:"required"`
	City     string  `json:"cidade,omitempty"`
	Address  string  `json:"endereco,omitempty"`
	CheckIn  string  `json:"checkin" validate:"required"`
	CheckOut string  `json:"checkout,omitempty"`
	Price    float64 `json:"preco,omitempty"`
}

// Address is the optional location of an itinerary item.
type Address struct {
	Street       string   `json:"rua,omitempty"`
	Number       string   `json:"numero,omitempty"`
	Neighborhood string   `json:"bairro,omitempty"`
	City         string   `json:"cidade,omitempty"`
	State        string   `json:"estado,omitempty"`
	PostalCode   string   `json:"cep,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (a Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// GeocodeQuery renders a as "rua numero, bairro, cidade - estado, cep", skipping empty parts.
func (a Address) GeocodeQuery() string {
	var parts []string
	if street := strings.TrimSpace(strings.TrimSpace(a.Street) + " " + strings.TrimSpace(a.Number)); street != "" {
		parts = append(parts, street)
	}
	if a.Neighborhood != "" {
		parts = append(parts, strings.TrimSpace(a.Neighborhood))
	}
	city := strings.TrimSpace(a.City)
	if st := strings.TrimSpace(a.State); st != "" {
		if city != "" {
			city += " - " + st
		} else {
			city = st
		}
	}
	if city != "" {
		parts = append(parts, city)
	}
	if cep := strings.TrimSpace(a.PostalCode); cep != "" {
		parts = append(parts, cep)
	}
	return strings.Join(parts, ", ")
}

// ItineraryItem is a scheduled activity inside a trip.
// Day is a display string ("dd/mm/yyyy [hh:mm]"); see ParseDisplayDate.
type ItineraryItem struct {
	ID          ItemID   `json:"id"`
	PlaceName   string   `json:"nomeLocal"`
	Kind        string   `json:"tipo"`
	Value       float64  `json:"valor"`
	Description *string  `json:"descricao,omitempty"`
	Day         string   `json:"dia"`
	Address     *Address `json:"endereco,omitempty"`
}

// Trip is the domain read model of a user's trip.
type Trip struct {
	ID     TripID
	UserID UserID
	Origin string

	Flights   []Flight
	Hotels    []Hotel
	Itinerary []ItineraryItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CloneAddress returns a deep copy of a.
func CloneAddress(a *Address) *Address {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Latitude != nil {
		v := *a.Latitude
		cp.Latitude = &v
	}
	if a.Longitude != nil {
		v := *a.Longitude
		cp.Longitude = &v
	}
	return &cp
}

// CloneItineraryItem returns a deep copy of it.
func CloneItineraryItem(it ItineraryItem) ItineraryItem {
	cp := it
	if it.Description != nil {
		v := *it.Description
		cp.Description = &v
	}
	cp.Address = CloneAddress(it.Address)
	return cp
}

// CloneItinerary deep-copies items. A nil input yields an empty, non-nil slice.
func CloneItinerary(items []ItineraryItem) []ItineraryItem {
	out := make([]ItineraryItem, 0, len(items))
	for _, it := range items {
		out = append(out, CloneItineraryItem(it))
	}
	return out
}
