package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/platform/validation"
	clockport "github.com/roteiro-app/travel-planner-api/internal/ports/out/clock"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/userrepo"
)

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

type Service struct {
	repo     userrepo.Repository
	clk      clockport.Clock
	tokens   TokenIssuer
	validate *validation.Validator

	bcryptCost int
	newUserID  func() domain.UserID
}

// NewService wires the user service. A cost of 0 uses bcrypt.DefaultCost.
func NewService(repo userrepo.Repository, clk clockport.Clock, tokens TokenIssuer, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		clk:        clk,
		tokens:     tokens,
		validate:   validation.New(),
		bcryptCost: bcryptCost,
		newUserID: func() domain.UserID {
			return domain.UserID(uuid.NewString())
		},
	}
}

// SetNewUserIDForTest overrides user ID generation for deterministic tests.
func (s *Service) SetNewUserIDForTest(fn func() domain.UserID) {
	if fn != nil {
		s.newUserID = fn
	}
}

// Register validates the payload, scans for an existing email/phone/cpf and inserts the user.
// The scan and the insert are separate calls, so two concurrent registrations can both succeed.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Name = domain.NormalizeHumanName(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.CPF = strings.TrimSpace(in.CPF)
	if err := s.validate.Struct(in); err != nil {
		return domain.User{}, mapWriteErr(err)
	}

	if err := s.repo.FindConflict(ctx, userrepo.Unique{Email: in.Email, PhoneNumber: in.PhoneNumber, CPF: in.CPF}, ""); err != nil {
		return domain.User{}, mapWriteErr(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return domain.User{}, err
	}
	now := s.clk.Now()
	u := userrepo.User{
		ID:           s.newUserID(),
		Name:         in.Name,
		PhoneNumber:  in.PhoneNumber,
		CPF:          in.CPF,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return domain.User{}, err
	}
	return toDomain(u), nil
}

// Login checks the password and issues a session token. Unknown email and wrong password look the same.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return Session{}, errValidation("email and password are required", nil)
	}
	u, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return Session{}, errInvalidCredentials()
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return Session{}, errInvalidCredentials()
	}
	tok, exp, err := s.tokens.Issue(string(u.ID))
	if err != nil {
		return Session{}, err
	}
	return Session{Token: tok, ExpiresAt: exp, User: toDomain(u)}, nil
}

func (s *Service) GetUser(ctx context.Context, id domain.UserID) (domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, mapWriteErr(err)
	}
	return toDomain(u), nil
}

// UpdateProfile lets a user change their own profile. Uniqueness is re-checked by the
// repository in the same transaction as the write.
func (s *Service) UpdateProfile(ctx context.Context, caller, id domain.UserID, in UpdateProfileInput) (domain.User, error) {
	if caller != id {
		return domain.User{}, errForbidden()
	}
	details := map[string]any{}
	for name, o := range map[string]Optional[string]{
		"name": in.Name, "phoneNumber": in.PhoneNumber, "cpf": in.CPF, "email": in.Email, "password": in.Password,
	} {
		if o.IsNull() {
			details[name] = "cannot be null"
		}
	}
	if len(details) > 0 {
		return domain.User{}, errValidation("invalid profile update", details)
	}

	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, mapWriteErr(err)
	}
	p := profile{Name: cur.Name, PhoneNumber: cur.PhoneNumber, CPF: cur.CPF, Email: cur.Email}
	if in.Name.IsSpecified() {
		p.Name = domain.NormalizeHumanName(in.Name.Value())
	}
	if in.PhoneNumber.IsSpecified() {
		p.PhoneNumber = strings.TrimSpace(in.PhoneNumber.Value())
	}
	if in.CPF.IsSpecified() {
		p.CPF = strings.TrimSpace(in.CPF.Value())
	}
	if in.Email.IsSpecified() {
		p.Email = strings.TrimSpace(in.Email.Value())
	}
	if in.Password.IsSpecified() {
		p.Password = in.Password.Value()
		if p.Password == "" {
			return domain.User{}, errValidation("invalid profile update", map[string]any{"password": "must be non-empty"})
		}
	}
	if err := s.validate.Struct(p); err != nil {
		return domain.User{}, mapWriteErr(err)
	}

	next := cur
	next.Name, next.PhoneNumber, next.CPF, next.Email = p.Name, p.PhoneNumber, p.CPF, p.Email
	next.PasswordHash = ""
	if p.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
		if err != nil {
			return domain.User{}, err
		}
		next.PasswordHash = string(hash)
	}
	next.UpdatedAt = s.clk.Now()
	if err := s.repo.UpdateProfile(ctx, next); err != nil {
		return domain.User{}, mapWriteErr(err)
	}
	if next.PasswordHash == "" {
		next.PasswordHash = cur.PasswordHash
	}
	return toDomain(next), nil
}

// SavePushToken records the caller's device token, replacing any previous one.
func (s *Service) SavePushToken(ctx context.Context, caller domain.UserID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errValidation("invalid push token", map[string]any{"token": "is required"})
	}
	if err := s.repo.SetPushToken(ctx, caller, token, s.clk.Now()); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

// FindByEmail resolves a user by case-insensitive email. ok is false when nobody matches.
func (s *Service) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return toDomain(u), true, nil
}

func toDomain(u userrepo.User) domain.User {
	out := domain.User{
		ID:           u.ID,
		Name:         u.Name,
		PhoneNumber:  u.PhoneNumber,
		CPF:          u.CPF,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.PushToken != nil {
		v := *u.PushToken
		out.PushToken = &v
	}
	return out
}
