package recordrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres"
	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/recordrepo"
)

// Repo stores every record kind in one trip_records table keyed by (kind, id).
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, rec recordrepo.Record) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(rec.ID))
	if err != nil {
		return fmt.Errorf("invalid record id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO trip_records (kind, id, trip_id, data, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		string(rec.Kind),
		id,
		string(rec.TripID),
		[]byte(rec.Fields),
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return recordrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, kind domain.RecordKind, id domain.RecordID) (recordrepo.Record, error) {
	if r.pool == nil {
		return recordrepo.Record{}, errors.New("nil postgres pool")
	}
	recUUID, err := uuid.Parse(string(id))
	if err != nil {
		return recordrepo.Record{}, recordrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT kind, id, trip_id, data, created_at, updated_at
		FROM trip_records
		WHERE kind = $1 AND id = $2
	`, string(kind), recUUID)
	return scanRecord(row)
}

func (r *Repo) ListByTrip(ctx context.Context, kind domain.RecordKind, tripID domain.TripID) ([]recordrepo.Record, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT kind, id, trip_id, data, created_at, updated_at
		FROM trip_records
		WHERE kind = $1 AND trip_id = $2
		ORDER BY created_at ASC, id ASC
	`, string(kind), string(tripID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]recordrepo.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, rec recordrepo.Record) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	recUUID, err := uuid.Parse(string(rec.ID))
	if err != nil {
		return recordrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE trip_records
		SET data = $3,
		    updated_at = $4
		WHERE kind = $1 AND id = $2
	`, string(rec.Kind), recUUID, []byte(rec.Fields), rec.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return recordrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, kind domain.RecordKind, id domain.RecordID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	recUUID, err := uuid.Parse(string(id))
	if err != nil {
		return nil
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM trip_records WHERE kind = $1 AND id = $2`, string(kind), recUUID)
	return err
}

func scanRecord(row pgx.Row) (recordrepo.Record, error) {
	var (
		rec          recordrepo.Record
		kind, tripID string
		id           uuid.UUID
		data         []byte
	)
	if err := row.Scan(&kind, &id, &tripID, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recordrepo.Record{}, recordrepo.ErrNotFound
		}
		return recordrepo.Record{}, err
	}
	rec.ID = domain.RecordID(id.String())
	rec.Kind = domain.RecordKind(kind)
	rec.TripID = domain.TripID(tripID)
	rec.Fields = data
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
