package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/platform/validation"
	clockport "github.com/roteiro-app/travel-planner-api/internal/ports/out/clock"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/recordrepo"
)

// TripAccess confirms that a trip exists and belongs to the caller.
// It returns an error the HTTP layer can render (404 when either check fails).
type TripAccess interface {
	OwnsTrip(ctx context.Context, caller domain.UserID, id domain.TripID) error
}

type Service struct {
	repo     recordrepo.Repository
	trips    TripAccess
	clk      clockport.Clock
	validate *validation.Validator

	newRecordID func() domain.RecordID
}

func NewService(repo recordrepo.Repository, trips TripAccess, clk clockport.Clock) *Service {
	return &Service{
		repo:     repo,
		trips:    trips,
		clk:      clk,
		validate: validation.New(),
		newRecordID: func() domain.RecordID {
			return domain.RecordID(uuid.NewString())
		},
	}
}

// SetNewRecordIDForTest overrides record ID generation for deterministic tests.
func (s *Service) SetNewRecordIDForTest(fn func() domain.RecordID) {
	if fn != nil {
		s.newRecordID = fn
	}
}

// Create stores a record for tripID. body carries the kind-specific fields; unknown fields are dropped.
func (s *Service) Create(ctx context.Context, caller domain.UserID, kind domain.RecordKind, tripID domain.TripID, body json.RawMessage) (domain.Record, error) {
	if !kind.Valid() {
		return domain.Record{}, errUnknownKind(kind)
	}
	if strings.TrimSpace(string(tripID)) == "" {
		return domain.Record{}, errValidation("tripId is required", map[string]any{"tripId": "is required"})
	}
	fields, err := s.decodeFields(kind, body)
	if err != nil {
		return domain.Record{}, err
	}
	if err := s.trips.OwnsTrip(ctx, caller, tripID); err != nil {
		return domain.Record{}, err
	}

	now := s.clk.Now()
	r := recordrepo.Record{
		ID:        s.newRecordID(),
		TripID:    tripID,
		Kind:      kind,
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return domain.Record{}, err
	}
	return toDomain(r), nil
}

func (s *Service) Get(ctx context.Context, caller domain.UserID, kind domain.RecordKind, id domain.RecordID) (domain.Record, error) {
	r, err := s.owned(ctx, caller, kind, id)
	if err != nil {
		return domain.Record{}, err
	}
	return toDomain(r), nil
}

// List returns the trip's records of kind, oldest first.
func (s *Service) List(ctx context.Context, caller domain.UserID, kind domain.RecordKind, tripID domain.TripID) ([]domain.Record, error) {
	if !kind.Valid() {
		return nil, errUnknownKind(kind)
	}
	if err := s.trips.OwnsTrip(ctx, caller, tripID); err != nil {
		return nil, err
	}
	rs, err := s.repo.ListByTrip(ctx, kind, tripID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(rs))
	for _, r := range rs {
		out = append(out, toDomain(r))
	}
	return out, nil
}

// Update replaces every kind field of an existing record.
func (s *Service) Update(ctx context.Context, caller domain.UserID, kind domain.RecordKind, id domain.RecordID, body json.RawMessage) (domain.Record, error) {
	cur, err := s.owned(ctx, caller, kind, id)
	if err != nil {
		return domain.Record{}, err
	}
	fields, err := s.decodeFields(kind, body)
	if err != nil {
		return domain.Record{}, err
	}
	cur.Fields = fields
	cur.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, cur); err != nil {
		if errors.Is(err, recordrepo.ErrNotFound) {
			return domain.Record{}, errRecordNotFound()
		}
		return domain.Record{}, err
	}
	return toDomain(cur), nil
}

// Delete succeeds whether or not the record exists. Records on another user's trip are left alone.
func (s *Service) Delete(ctx context.Context, caller domain.UserID, kind domain.RecordKind, id domain.RecordID) error {
	if !kind.Valid() {
		return errUnknownKind(kind)
	}
	r, err := s.repo.GetByID(ctx, kind, id)
	if errors.Is(err, recordrepo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.trips.OwnsTrip(ctx, caller, r.TripID); err != nil {
		return nil
	}
	return s.repo.Delete(ctx, kind, id)
}

func (s *Service) owned(ctx context.Context, caller domain.UserID, kind domain.RecordKind, id domain.RecordID) (recordrepo.Record, error) {
	if !kind.Valid() {
		return recordrepo.Record{}, errUnknownKind(kind)
	}
	r, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, recordrepo.ErrNotFound) {
			return recordrepo.Record{}, errRecordNotFound()
		}
		return recordrepo.Record{}, err
	}
	if err := s.trips.OwnsTrip(ctx, caller, r.TripID); err != nil {
		return recordrepo.Record{}, errRecordNotFound()
	}
	return r, nil
}

// decodeFields parses body into the kind's struct, validates it and re-encodes the known fields.
func (s *Service) decodeFields(kind domain.RecordKind, body json.RawMessage) (json.RawMessage, error) {
	dst := newFields(kind)
	if dst == nil {
		return nil, errUnknownKind(kind)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, errValidation("body must be a JSON object", nil)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, errValidation("invalid JSON body", map[string]any{"body": err.Error()})
	}
	if err := s.validate.Struct(dst); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return nil, errValidation(fe.Error(), fe.Details())
		}
		return nil, err
	}
	return json.Marshal(dst)
}

func toDomain(r recordrepo.Record) domain.Record {
	return domain.Record{
		ID:        r.ID,
		TripID:    r.TripID,
		Kind:      r.Kind,
		Fields:    append(json.RawMessage(nil), r.Fields...),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
