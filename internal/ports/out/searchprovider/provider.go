package searchprovider

import "context"

// Response is an upstream reply relayed to the caller unchanged.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// FlightQuery carries validated flight search parameters.
type FlightQuery struct {
	DepartureID  string
	ArrivalID    string
	OutboundDate string
	ReturnDate   string // empty for one-way
	Currency     string
	Language     string
	Adults       int
}

// HotelQuery carries validated hotel search parameters.
type HotelQuery struct {
	Query        string
	CheckInDate  string
	CheckOutDate string
	Currency     string
	Language     string
	Adults       int
}

// Provider is a flight/hotel search backend.
type Provider interface {
	SearchFlights(ctx context.Context, q FlightQuery) (Response, error)
	SearchHotels(ctx context.Context, q HotelQuery) (Response, error)
}

// PostalCodeLookup resolves a Brazilian postal code (CEP) into an address payload.
type PostalCodeLookup interface {
	LookupCEP(ctx context.Context, cep string) (Response, error)
}
