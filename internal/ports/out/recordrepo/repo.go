package recordrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

// Record is the persistence shape of a trip-scoped record.
// Fields is stored as an opaque JSON object.
type Record struct {
	ID     domain.RecordID
	TripID domain.TripID
	Kind   domain.RecordKind

	Fields json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to trip-scoped records, one collection per kind.
//
// Result ordering expectations:
// - ListByTrip returns records ordered by CreatedAt ascending, then ID.
type Repository interface {
	Create(ctx context.Context, r Record) error
	GetByID(ctx context.Context, kind domain.RecordKind, id domain.RecordID) (Record, error)
	ListByTrip(ctx context.Context, kind domain.RecordKind, tripID domain.TripID) ([]Record, error)

	// Update replaces Fields and UpdatedAt; ErrNotFound when the record does not exist.
	Update(ctx context.Context, r Record) error

	// Delete is unconditional: deleting a missing record is not an error.
	Delete(ctx context.Context, kind domain.RecordKind, id domain.RecordID) error
}
