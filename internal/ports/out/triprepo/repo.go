package triprepo

import (
	"context"
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

// Trip is the persistence shape used by the trip repository.
// It is not an HTTP DTO.
type Trip struct {
	ID     domain.TripID
	UserID domain.UserID

	// Origin records how the trip was created (checkout or email import).
	Origin string

	Flights   []domain.Flight
	Hotels    []domain.Hotel
	Itinerary []domain.ItineraryItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItineraryMutation receives the current itinerary (a private copy) and returns the array to persist.
// Returning an error aborts the update without writing anything.
type ItineraryMutation func(items []domain.ItineraryItem) ([]domain.ItineraryItem, error)

// Repository provides access to persisted trips.
//
// Result ordering expectations:
// - ListByUser returns trips ordered by CreatedAt ascending, then ID.
type Repository interface {
	Create(ctx context.Context, t Trip) error
	GetByID(ctx context.Context, id domain.TripID) (Trip, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]Trip, error)
	Delete(ctx context.Context, id domain.TripID) error

	// UpdateItinerary applies fn to the trip's itinerary and replaces the whole array with the result.
	// Read, mutation and write are atomic with respect to other UpdateItinerary calls on the same trip.
	UpdateItinerary(ctx context.Context, id domain.TripID, updatedAt time.Time, fn ItineraryMutation) (Trip, error)
}
