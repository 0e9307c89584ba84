package domain

import "time"

// User is the domain representation of an app user.
// PasswordHash never leaves the application layer.
type User struct {
	ID UserID

	Name        string
	PhoneNumber string
	CPF         string
	Email       string

	PasswordHash string
	PushToken    *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
