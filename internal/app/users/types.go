package users

import (
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

type RegisterInput struct {
	Name        string `json:"name" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	CPF         string `json:"cpf" validate:"required,cpf"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput replaces only the specified fields. None of them can be null.
type UpdateProfileInput struct {
	Name        Optional[string]
	PhoneNumber Optional[string]
	CPF         Optional[string]
	Email       Optional[string]
	Password    Optional[string]
}

// Session is returned by a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// profile is the merged result of an update, validated as a whole.
type profile struct {
	Name        string `json:"name" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	CPF         string `json:"cpf" validate:"required,cpf"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"omitempty,min=6"`
}
