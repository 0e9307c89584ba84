package userrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/userrepo"
)

// Repo is an in-memory implementation of userrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID map[domain.UserID]userrepo.User
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.UserID]userrepo.User),
	}
}

func (r *Repo) Create(ctx context.Context, u userrepo.User) error {
	_ = ctx
	if u.ID == "" {
		return userrepo.ErrAlreadyExists // treat empty ID as invalid; the app layer always assigns one
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; ok {
		return userrepo.ErrAlreadyExists
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (userrepo.User, error) {
	_ = ctx
	want := domain.NormalizeEmail(email)
	if want == "" {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.sortedIDsLocked() {
		u := r.byID[id]
		if domain.NormalizeEmail(u.Email) == want {
			return cloneUser(u), nil
		}
	}
	return userrepo.User{}, userrepo.ErrNotFound
}

func (r *Repo) FindConflict(ctx context.Context, u userrepo.Unique, exclude domain.UserID) error {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findConflictLocked(u, exclude)
}

func (r *Repo) UpdateProfile(ctx context.Context, u userrepo.User) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[u.ID]
	if !ok {
		return userrepo.ErrNotFound
	}
	if err := r.findConflictLocked(userrepo.Unique{Email: u.Email, PhoneNumber: u.PhoneNumber, CPF: u.CPF}, u.ID); err != nil {
		return err
	}
	existing.Name = u.Name
	existing.Email = u.Email
	existing.PhoneNumber = u.PhoneNumber
	existing.CPF = u.CPF
	if u.PasswordHash != "" {
		existing.PasswordHash = u.PasswordHash
	}
	existing.UpdatedAt = u.UpdatedAt
	r.byID[u.ID] = existing
	return nil
}

func (r *Repo) SetPushToken(ctx context.Context, id domain.UserID, token string, updatedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return userrepo.ErrNotFound
	}
	u.PushToken = &token
	u.UpdatedAt = updatedAt
	r.byID[id] = u
	return nil
}

func (r *Repo) ListWithPushToken(ctx context.Context) ([]userrepo.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]userrepo.User, 0)
	for _, id := range r.sortedIDsLocked() {
		u := r.byID[id]
		if u.PushToken != nil && *u.PushToken != "" {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *Repo) findConflictLocked(u userrepo.Unique, exclude domain.UserID) error {
	email := domain.NormalizeEmail(u.Email)
	phone := domain.DigitsOnly(u.PhoneNumber)
	cpf := domain.DigitsOnly(u.CPF)
	for _, id := range r.sortedIDsLocked() {
		if id == exclude {
			continue
		}
		other := r.byID[id]
		switch {
		case email != "" && domain.NormalizeEmail(other.Email) == email:
			return &userrepo.ConflictError{Field: "email"}
		case phone != "" && domain.DigitsOnly(other.PhoneNumber) == phone:
			return &userrepo.ConflictError{Field: "phoneNumber"}
		case cpf != "" && domain.DigitsOnly(other.CPF) == cpf:
			return &userrepo.ConflictError{Field: "cpf"}
		}
	}
	return nil
}

func (r *Repo) sortedIDsLocked() []domain.UserID {
	ids := make([]domain.UserID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func cloneUser(u userrepo.User) userrepo.User {
	cp := u
	if u.PushToken != nil {
		v := *u.PushToken
		cp.PushToken = &v
	}
	return cp
}
