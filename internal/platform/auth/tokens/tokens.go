package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("unauthorized")

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
	Clock  Clock
}

// Manager issues and verifies HS256 session tokens. The user id travels in `sub`.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	clock  Clock
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("AUTH_SECRET must be at least 16 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("AUTH_TOKEN_TTL must be positive, got %s", cfg.TTL)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = realClock{}
	}
	return &Manager{
		secret: append([]byte(nil), cfg.Secret...),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		leeway: cfg.Leeway,
		clock:  clk,
	}, nil
}

// Issue returns a signed token for subject and its expiry.
func (m *Manager) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("empty subject")
	}
	now := m.clock.Now()
	exp := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, issuer and validity window and returns `sub`.
// Every failure collapses to ErrUnauthorized.
func (m *Manager) Verify(raw string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithLeeway(m.leeway),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return "", ErrUnauthorized
	}
	if claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}
