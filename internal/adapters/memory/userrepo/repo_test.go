package userrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/userrepo"
)

func seedUser(t *testing.T, r *Repo, id, email, phone, cpf string) {
	t.Helper()
	if err := r.Create(context.Background(), userrepo.User{
		ID:          domain.UserID(id),
		Name:        "User " + id,
		Email:       email,
		PhoneNumber: phone,
		CPF:         cpf,
		CreatedAt:   time.Unix(1, 0).UTC(),
		UpdatedAt:   time.Unix(1, 0).UTC(),
	}); err != nil {
		t.Fatalf("Create(%s): %v", id, err)
	}
}

func TestRepo_FindConflict_ComparesNormalizedValues(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	seedUser(t, r, "u1", "Ana@Example.com", "(11) 98888-7777", "123.456.789-00")

	cases := []struct {
		name  string
		in    userrepo.Unique
		field string
	}{
		{"email case-insensitive", userrepo.Unique{Email: " ana@example.COM "}, "email"},
		{"phone digits", userrepo.Unique{PhoneNumber: "11988887777"}, "phoneNumber"},
		{"cpf digits", userrepo.Unique{CPF: "12345678900"}, "cpf"},
	}
	for _, tc := range cases {
		err := r.FindConflict(context.Background(), tc.in, "")
		ce := (*userrepo.ConflictError)(nil)
		if !errors.As(err, &ce) || ce.Field != tc.field {
			t.Fatalf("%s: err=%v, want conflict on %s", tc.name, err, tc.field)
		}
		if !errors.Is(err, userrepo.ErrConflict) {
			t.Fatalf("%s: errors.Is(ErrConflict)=false", tc.name)
		}
	}

	if err := r.FindConflict(context.Background(), userrepo.Unique{Email: "ana@example.com"}, "u1"); err != nil {
		t.Fatalf("excluded self: err=%v, want nil", err)
	}
}

func TestRepo_UpdateProfile_RejectsTakenEmail(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	seedUser(t, r, "u1", "a@example.com", "111", "111.111.111-11")
	seedUser(t, r, "u2", "b@example.com", "222", "222.222.222-22")

	err := r.UpdateProfile(context.Background(), userrepo.User{
		ID:          "u2",
		Name:        "Bea",
		Email:       "a@example.com",
		PhoneNumber: "222",
		CPF:         "222.222.222-22",
	})
	if !errors.Is(err, userrepo.ErrConflict) {
		t.Fatalf("err=%v, want ErrConflict", err)
	}
	got, _ := r.GetByID(context.Background(), "u2")
	if got.Email != "b@example.com" {
		t.Fatalf("email=%q, want unchanged", got.Email)
	}
}

func TestRepo_ListWithPushToken(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	seedUser(t, r, "u2", "b@example.com", "2", "2")
	seedUser(t, r, "u1", "a@example.com", "1", "1")
	seedUser(t, r, "u3", "c@example.com", "3", "3")
	_ = r.SetPushToken(context.Background(), "u2", "ExponentPushToken[b]", time.Unix(2, 0))
	_ = r.SetPushToken(context.Background(), "u1", "ExponentPushToken[a]", time.Unix(2, 0))

	got, err := r.ListWithPushToken(context.Background())
	if err != nil {
		t.Fatalf("ListWithPushToken() err=%v", err)
	}
	if len(got) != 2 || got[0].ID != "u1" || got[1].ID != "u2" {
		t.Fatalf("got=%v, want [u1 u2]", got)
	}
}
