package userrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres"
	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/userrepo"
)

// Repo is a Postgres implementation of userrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectUser = `
	SELECT id, name, phone_number, cpf, email, password_hash, push_token, created_at, updated_at
	FROM users
`

func (r *Repo) Create(ctx context.Context, u userrepo.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (
			id,
			name,
			phone_number,
			cpf,
			email,
			password_hash,
			push_token,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		id,
		u.Name,
		u.PhoneNumber,
		u.CPF,
		u.Email,
		u.PasswordHash,
		u.PushToken,
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return userrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	if r.pool == nil {
		return userrepo.User{}, errors.New("nil postgres pool")
	}
	userUUID, err := uuid.Parse(string(id))
	if err != nil {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, userUUID))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (userrepo.User, error) {
	if r.pool == nil {
		return userrepo.User{}, errors.New("nil postgres pool")
	}
	norm := domain.NormalizeEmail(email)
	if norm == "" {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE lower(btrim(email)) = $1 ORDER BY id LIMIT 1`, norm))
}

func (r *Repo) FindConflict(ctx context.Context, u userrepo.Unique, exclude domain.UserID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	return findConflict(ctx, r.pool, u, exclude)
}

func (r *Repo) UpdateProfile(ctx context.Context, u userrepo.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return userrepo.ErrNotFound
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Serializes concurrent profile updates; the uniqueness scan below sees committed rows only.
		if _, err := tx.Exec(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}
		if err := findConflict(ctx, tx, userrepo.Unique{Email: u.Email, PhoneNumber: u.PhoneNumber, CPF: u.CPF}, u.ID); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `
			UPDATE users
			SET name = $2,
			    phone_number = $3,
			    cpf = $4,
			    email = $5,
			    password_hash = COALESCE(NULLIF($6, ''), password_hash),
			    updated_at = $7
			WHERE id = $1
		`,
			id,
			u.Name,
			u.PhoneNumber,
			u.CPF,
			u.Email,
			u.PasswordHash,
			u.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return userrepo.ErrNotFound
		}
		return nil
	})
}

func (r *Repo) SetPushToken(ctx context.Context, id domain.UserID, token string, updatedAt time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	userUUID, err := uuid.Parse(string(id))
	if err != nil {
		return userrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `UPDATE users SET push_token = $2, updated_at = $3 WHERE id = $1`, userUUID, token, updatedAt.UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return userrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) ListWithPushToken(ctx context.Context) ([]userrepo.User, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, selectUser+` WHERE push_token IS NOT NULL AND push_token <> '' ORDER BY id::text`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]userrepo.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// findConflict reports the first unique field of u held by another user, in email, phone, cpf order.
func findConflict(ctx context.Context, q queryer, u userrepo.Unique, exclude domain.UserID) error {
	checks := []struct {
		field string
		expr  string
		value string
	}{
		{"email", `lower(btrim(email))`, domain.NormalizeEmail(u.Email)},
		{"phoneNumber", `regexp_replace(phone_number, '\D', '', 'g')`, domain.DigitsOnly(u.PhoneNumber)},
		{"cpf", `regexp_replace(cpf, '\D', '', 'g')`, domain.DigitsOnly(u.CPF)},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		var taken bool
		err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE `+c.expr+` = $1 AND id::text <> $2)`, c.value, string(exclude)).Scan(&taken)
		if err != nil {
			return err
		}
		if taken {
			return &userrepo.ConflictError{Field: c.field}
		}
	}
	return nil
}

func scanUser(row pgx.Row) (userrepo.User, error) {
	var (
		u  userrepo.User
		id uuid.UUID
	)
	if err := row.Scan(&id, &u.Name, &u.PhoneNumber, &u.CPF, &u.Email, &u.PasswordHash, &u.PushToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userrepo.User{}, userrepo.ErrNotFound
		}
		return userrepo.User{}, err
	}
	u.ID = domain.UserID(id.String())
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}
