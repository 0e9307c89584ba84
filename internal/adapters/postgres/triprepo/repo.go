package triprepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres"
	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/triprepo"
)

// Repo is a Postgres implementation of triprepo.Repository.
// Flights, hotels and the itinerary are stored as JSONB arrays on the trip row.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectTrip = `
	SELECT id, user_id, origem, voos, hoteis, itinerarios, created_at, updated_at
	FROM trips
`

func (r *Repo) Create(ctx context.Context, t triprepo.Trip) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(t.ID))
	if err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}
	voos, hoteis, itin, err := encodeArrays(t)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO trips (
			id,
			user_id,
			origem,
			voos,
			hoteis,
			itinerarios,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		id,
		string(t.UserID),
		t.Origin,
		voos,
		hoteis,
		itin,
		t.CreatedAt.UTC(),
		t.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return triprepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (triprepo.Trip, error) {
	if r.pool == nil {
		return triprepo.Trip{}, errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		// Ids that are not UUIDs can never exist.
		return triprepo.Trip{}, triprepo.ErrNotFound
	}
	return scanTrip(r.pool.QueryRow(ctx, selectTrip+` WHERE id = $1`, tripUUID))
}

func (r *Repo) ListByUser(ctx context.Context, userID domain.UserID) ([]triprepo.Trip, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, selectTrip+` WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]triprepo.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id domain.TripID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return triprepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, tripUUID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return triprepo.ErrNotFound
	}
	return nil
}

// UpdateItinerary locks the trip row for the duration of fn so concurrent edits serialize.
func (r *Repo) UpdateItinerary(ctx context.Context, id domain.TripID, updatedAt time.Time, fn triprepo.ItineraryMutation) (triprepo.Trip, error) {
	if r.pool == nil {
		return triprepo.Trip{}, errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return triprepo.Trip{}, triprepo.ErrNotFound
	}

	var out triprepo.Trip
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		t, err := scanTrip(tx.QueryRow(ctx, selectTrip+` WHERE id = $1 FOR UPDATE`, tripUUID))
		if err != nil {
			return err
		}
		next, err := fn(domain.CloneItinerary(t.Itinerary))
		if err != nil {
			return err
		}
		if next == nil {
			next = []domain.ItineraryItem{}
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode itinerary: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE trips
			SET itinerarios = $2,
			    updated_at = $3
			WHERE id = $1
		`, tripUUID, raw, updatedAt.UTC()); err != nil {
			return err
		}
		t.Itinerary = next
		t.UpdatedAt = updatedAt.UTC()
		out = t
		return nil
	})
	if err != nil {
		return triprepo.Trip{}, err
	}
	return out, nil
}

func scanTrip(row pgx.Row) (triprepo.Trip, error) {
	var (
		t                   triprepo.Trip
		id                  uuid.UUID
		userID              string
		voos, hoteis, itins []byte
	)
	if err := row.Scan(&id, &userID, &t.Origin, &voos, &hoteis, &itins, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return triprepo.Trip{}, triprepo.ErrNotFound
		}
		return triprepo.Trip{}, err
	}
	t.ID = domain.TripID(id.String())
	t.UserID = domain.UserID(userID)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()

	if err := json.Unmarshal(voos, &t.Flights); err != nil {
		return triprepo.Trip{}, fmt.Errorf("decode voos: %w", err)
	}
	if err := json.Unmarshal(hoteis, &t.Hotels); err != nil {
		return triprepo.Trip{}, fmt.Errorf("decode hoteis: %w", err)
	}
	if err := json.Unmarshal(itins, &t.Itinerary); err != nil {
		return triprepo.Trip{}, fmt.Errorf("decode itinerarios: %w", err)
	}
	if t.Flights == nil {
		t.Flights = []domain.Flight{}
	}
	if t.Hotels == nil {
		t.Hotels = []domain.Hotel{}
	}
	if t.Itinerary == nil {
		t.Itinerary = []domain.ItineraryItem{}
	}
	return t, nil
}

func encodeArrays(t triprepo.Trip) (voos, hoteis, itin []byte, err error) {
	flights := t.Flights
	if flights == nil {
		flights = []domain.Flight{}
	}
	hotels := t.Hotels
	if hotels == nil {
		hotels = []domain.Hotel{}
	}
	if voos, err = json.Marshal(flights); err != nil {
		return nil, nil, nil, fmt.Errorf("encode voos: %w", err)
	}
	if hoteis, err = json.Marshal(hotels); err != nil {
		return nil, nil, nil, fmt.Errorf("encode hoteis: %w", err)
	}
	if itin, err = json.Marshal(domain.CloneItinerary(t.Itinerary)); err != nil {
		return nil, nil, nil, fmt.Errorf("encode itinerarios: %w", err)
	}
	return voos, hoteis, itin, nil
}
