package search

// FlightParams are the query parameters of GET /api/flights.
type FlightParams struct {
	DepartureID  string `json:"departure_id" validate:"required,iata"`
	ArrivalID    string `json:"arrival_id" validate:"required,iata"`
	OutboundDate string `json:"outbound_date" validate:"required,datetime=2006-01-02"`
	ReturnDate   string `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
	Currency     string `json:"currency" validate:"omitempty,len=3,alpha"`
	Language     string `json:"hl"`
	Adults       int    `json:"adults" validate:"omitempty,min=1,max=9"`
}

// HotelParams are the query parameters of GET /api/hotels.
type HotelParams struct {
	Query        string `json:"q" validate:"required"`
	CheckInDate  string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	Currency     string `json:"currency" validate:"omitempty,len=3,alpha"`
	Language     string `json:"hl"`
	Adults       int    `json:"adults" validate:"omitempty,min=1,max=9"`
}

const (
	defaultCurrency = "BRL"
	defaultLanguage = "pt-br"
)
