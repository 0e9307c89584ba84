package userrepo

import (
	"context"
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

// User is the persistence shape used by the user repository.
type User struct {
	ID domain.UserID

	Name        string
	PhoneNumber string
	CPF         string
	// Email is stored as provided; lookups compare case-insensitively.
	Email string

	PasswordHash string
	// PushToken is the device push token; nil means none registered.
	PushToken *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Unique groups the fields that must not be shared between users.
type Unique struct {
	Email       string
	PhoneNumber string
	CPF         string
}

// Repository provides access to persisted users.
//
// Uniqueness of email/phone/cpf is NOT enforced by Create; callers scan with FindConflict first.
// UpdateProfile performs the check and the write in one transaction.
type Repository interface {
	Create(ctx context.Context, u User) error

	GetByID(ctx context.Context, id domain.UserID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)

	// FindConflict returns a *ConflictError for the first field of u held by a user other than exclude.
	FindConflict(ctx context.Context, u Unique, exclude domain.UserID) error

	// UpdateProfile re-checks uniqueness (excluding u.ID) and replaces the profile fields.
	// An empty PasswordHash keeps the stored one.
	UpdateProfile(ctx context.Context, u User) error

	SetPushToken(ctx context.Context, id domain.UserID, token string, updatedAt time.Time) error

	// ListWithPushToken returns users that registered a push token, ordered by ID.
	ListWithPushToken(ctx context.Context) ([]User, error)
}
