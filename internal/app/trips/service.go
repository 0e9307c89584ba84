package trips

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/platform/validation"
	clockport "github.com/roteiro-app/travel-planner-api/internal/ports/out/clock"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/geocoder"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/triprepo"
)

type Options struct {
	// Geocoder fills missing coordinates on itinerary addresses; nil disables geocoding.
	Geocoder geocoder.Geocoder
	// Location interprets itinerary dates; defaults to UTC.
	Location *time.Location
	// RejectPastItems refuses items whose dia is before now.
	RejectPastItems bool
	Log             zerolog.Logger
}

type Service struct {
	trips      triprepo.Repository
	clk        clockport.Clock
	validate   *validation.Validator
	geocoder   geocoder.Geocoder
	loc        *time.Location
	rejectPast bool
	log        zerolog.Logger

	newTripID func() domain.TripID
	newItemID func() domain.ItemID
}

func NewService(tripsRepo triprepo.Repository, clk clockport.Clock, opts Options) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		trips:      tripsRepo,
		clk:        clk,
		validate:   validation.New(),
		geocoder:   opts.Geocoder,
		loc:        loc,
		rejectPast: opts.RejectPastItems,
		log:        opts.Log.With().Str("component", "trips").Logger(),
		newTripID: func() domain.TripID {
			return domain.TripID(uuid.NewString())
		},
		newItemID: func() domain.ItemID {
			return domain.ItemID(uuid.NewString())
		},
	}
}

// SetNewTripIDForTest overrides trip ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewTripIDForTest(fn func() domain.TripID) {
	if fn != nil {
		s.newTripID = fn
	}
}

// SetNewItemIDForTest overrides itinerary item ID generation for deterministic tests.
func (s *Service) SetNewItemIDForTest(fn func() domain.ItemID) {
	if fn != nil {
		s.newItemID = fn
	}
}

// CreateFromCheckout turns the caller's cart into a trip.
func (s *Service) CreateFromCheckout(ctx context.Context, caller domain.UserID, in CheckoutInput) (domain.Trip, error) {
	if len(in.Flights) == 0 && len(in.Hotels) == 0 {
		return domain.Trip{}, errValidation("cart is empty", map[string]any{"voos": "at least one flight or hotel is required"})
	}
	if err := s.validate.Struct(in); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return domain.Trip{}, errFromFields(fe)
		}
		return domain.Trip{}, err
	}
	origin := strings.TrimSpace(in.Origin)
	if origin == "" {
		origin = domain.TripOriginCart
	}
	return s.create(ctx, caller, origin, in.Flights, in.Hotels)
}

// CreateImported stores a trip built from a confirmation email. Parsed data is kept as-is.
func (s *Service) CreateImported(ctx context.Context, owner domain.UserID, flights []domain.Flight, hotels []domain.Hotel) (domain.Trip, error) {
	if len(flights) == 0 && len(hotels) == 0 {
		return domain.Trip{}, errValidation("nothing to import", nil)
	}
	return s.create(ctx, owner, domain.TripOriginImported, flights, hotels)
}

func (s *Service) create(ctx context.Context, owner domain.UserID, origin string, flights []domain.Flight, hotels []domain.Hotel) (domain.Trip, error) {
	now := s.clk.Now()
	t := triprepo.Trip{
		ID:        s.newTripID(),
		UserID:    owner,
		Origin:    origin,
		Flights:   append([]domain.Flight{}, flights...),
		Hotels:    append([]domain.Hotel{}, hotels...),
		Itinerary: []domain.ItineraryItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.trips.Create(ctx, t); err != nil {
		return domain.Trip{}, err
	}
	return toDomain(t), nil
}

// GetTrip returns the trip when caller owns it; other users get the same 404 as a missing trip.
func (s *Service) GetTrip(ctx context.Context, caller domain.UserID, id domain.TripID) (domain.Trip, error) {
	t, err := s.ownedTrip(ctx, caller, id)
	if err != nil {
		return domain.Trip{}, err
	}
	return toDomain(t), nil
}

func (s *Service) ListTrips(ctx context.Context, caller domain.UserID) ([]domain.Trip, error) {
	ts, err := s.trips.ListByUser(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Trip, 0, len(ts))
	for _, t := range ts {
		out = append(out, toDomain(t))
	}
	return out, nil
}

func (s *Service) DeleteTrip(ctx context.Context, caller domain.UserID, id domain.TripID) error {
	if _, err := s.ownedTrip(ctx, caller, id); err != nil {
		return err
	}
	if err := s.trips.Delete(ctx, id); err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return errTripNotFound()
		}
		return err
	}
	return nil
}

// OwnsTrip reports whether caller owns id. Used by collaborators that scope data by trip.
func (s *Service) OwnsTrip(ctx context.Context, caller domain.UserID, id domain.TripID) error {
	_, err := s.ownedTrip(ctx, caller, id)
	return err
}

func (s *Service) ownedTrip(ctx context.Context, caller domain.UserID, id domain.TripID) (triprepo.Trip, error) {
	t, err := s.trips.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return triprepo.Trip{}, errTripNotFound()
		}
		return triprepo.Trip{}, err
	}
	if t.UserID != caller {
		return triprepo.Trip{}, errTripNotFound()
	}
	return t, nil
}

func toDomain(t triprepo.Trip) domain.Trip {
	return domain.Trip{
		ID:        t.ID,
		UserID:    t.UserID,
		Origin:    t.Origin,
		Flights:   append([]domain.Flight{}, t.Flights...),
		Hotels:    append([]domain.Hotel{}, t.Hotels...),
		Itinerary: domain.CloneItinerary(t.Itinerary),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
