package triprepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/triprepo"
)

// Repo is an in-memory implementation of triprepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.TripID]triprepo.Trip
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.TripID]triprepo.Trip),
	}
}

func (r *Repo) Create(ctx context.Context, t triprepo.Trip) error {
	_ = ctx
	if t.ID == "" {
		return triprepo.ErrAlreadyExists // treat empty ID as invalid for now
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; ok {
		return triprepo.ErrAlreadyExists
	}
	r.byID[t.ID] = cloneTrip(t)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (triprepo.Trip, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return triprepo.Trip{}, triprepo.ErrNotFound
	}
	return cloneTrip(t), nil
}

func (r *Repo) ListByUser(ctx context.Context, userID domain.UserID) ([]triprepo.Trip, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]triprepo.Trip, 0)
	for _, t := range r.byID {
		if t.UserID == userID {
			out = append(out, cloneTrip(t))
		}
	}
	sortTrips(out)
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.TripID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return triprepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) UpdateItinerary(ctx context.Context, id domain.TripID, updatedAt time.Time, fn triprepo.ItineraryMutation) (triprepo.Trip, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return triprepo.Trip{}, triprepo.ErrNotFound
	}
	next, err := fn(domain.CloneItinerary(t.Itinerary))
	if err != nil {
		return triprepo.Trip{}, err
	}
	t.Itinerary = domain.CloneItinerary(next)
	t.UpdatedAt = updatedAt
	r.byID[id] = t
	return cloneTrip(t), nil
}

func cloneTrip(t triprepo.Trip) triprepo.Trip {
	cp := t
	cp.Flights = append([]domain.Flight{}, t.Flights...)
	cp.Hotels = append([]domain.Hotel{}, t.Hotels...)
	cp.Itinerary = domain.CloneItinerary(t.Itinerary)
	return cp
}

func sortTrips(ts []triprepo.Trip) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].CreatedAt.Before(ts[j].CreatedAt)
		}
		return string(ts[i].ID) < string(ts[j].ID)
	})
}
