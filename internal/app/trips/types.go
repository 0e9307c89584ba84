package trips

import (
	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// CheckoutInput is the cart sent by the app when the user confirms a purchase.
type CheckoutInput struct {
	// Origin defaults to domain.TripOriginCart.
	Origin  string          `json:"origem"`
	Flights []domain.Flight `json:"voos" validate:"dive"`
	Hotels  []domain.Hotel  `json:"hoteis" validate:"dive"`
}

// NewItineraryItem is the payload of an append. ID is always server-assigned.
type NewItineraryItem struct {
	PlaceName   string          `json:"nomeLocal" validate:"required"`
	Kind        string          `json:"tipo" validate:"required"`
	Value       float64         `json:"valor" validate:"gte=0"`
	Description *string         `json:"descricao"`
	Day         string          `json:"dia" validate:"required"`
	Address     *domain.Address `json:"endereco"`
}

// ItineraryPatch overwrites only the specified fields.
type ItineraryPatch struct {
	PlaceName Optional[string] // cannot be null
	Kind      Optional[string] // cannot be null
	Value     Optional[float64]
	Day       Optional[string] // cannot be null

	Description Optional[string]         // null clears
	Address     Optional[domain.Address] // null clears; a value replaces the whole address
}

// IndexedItem is an itinerary item with its position in the persisted array.
type IndexedItem struct {
	Index int
	Item  domain.ItineraryItem
}
