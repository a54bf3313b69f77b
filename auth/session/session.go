// Package session issues and verifies signed admin session tokens.
//
// Tokens are HS256 JWTs carrying an admin claim and an expiry. They are
// stateless: logging out clears the client cookie and nothing is stored
// server side.
package session

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is returned for tokens that fail signature, expiry, or claim
// checks.
var ErrInvalid = errors.New("session: invalid token")

// Claims is the session token payload.
type Claims struct {
	gojwt.RegisteredClaims
	Admin bool `json:"admin"`
}

// Config configures the session manager.
type Config struct {
	// Secret is the HMAC signing key.
	Secret string
	// TTL is the token lifetime.
	TTL time.Duration
	// Issuer is the "iss" claim, checked on parse when set.
	Issuer string
}

// Manager signs and verifies session tokens.
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager returns a manager. A secret is required.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session: secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &Manager{cfg: cfg, now: time.Now}, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration { return m.cfg.TTL }

// Issue returns a signed admin token and its expiry.
func (m *Manager) Issue() (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.cfg.TTL)
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   "admin",
			Issuer:    m.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(exp),
		},
		Admin: true,
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses token and returns its claims when it is a valid, unexpired
// admin session.
func (m *Manager) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, m.keyFunc, m.parserOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid || !claims.Admin {
		return nil, ErrInvalid
	}
	return claims, nil
}

func (m *Manager) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(m.cfg.Secret), nil
}

func (m *Manager) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(m.now),
	}
	if m.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(m.cfg.Issuer))
	}
	return opts
}
