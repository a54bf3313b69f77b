package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/portfolio/auth/password"
	"github.com/kbukum/portfolio/auth/session"
	apperrors "github.com/kbukum/portfolio/errors"
	"github.com/kbukum/portfolio/logger"
)

// Authenticator checks the shared admin password and manages the session
// cookie that proves a successful login.
type Authenticator struct {
	cfg      Config
	hasher   password.Hasher
	hash     string
	sessions *session.Manager
	sameSite http.SameSite
	log      *logger.Logger
}

// New builds an Authenticator. A plaintext password is hashed here so it
// is never compared directly.
func New(cfg Config, log *logger.Logger) (*Authenticator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("auth")

	hasher := password.NewBcryptHasher(password.WithCost(cfg.BcryptCost))
	hash := cfg.PasswordHash
	if hash == "" {
		h, err := hasher.Hash(cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("admin: hash password: %w", err)
		}
		hash = h
	}

	secret := cfg.SessionSecret
	if secret == "" {
		s, err := password.GenerateToken(32)
		if err != nil {
			return nil, err
		}
		secret = s
		log.Warn("no session secret configured, generated an ephemeral one; sessions end on restart")
	}
	sessions, err := session.NewManager(session.Config{Secret: secret, TTL: cfg.SessionTTL, Issuer: "portfolio"})
	if err != nil {
		return nil, err
	}
	sameSite, _ := parseSameSite(cfg.CookieSameSite)

	return &Authenticator{
		cfg:      cfg,
		hasher:   hasher,
		hash:     hash,
		sessions: sessions,
		sameSite: sameSite,
		log:      log,
	}, nil
}

// Config returns the effective configuration.
func (a *Authenticator) Config() Config { return a.cfg }

// Login verifies pw and returns a new session token with its expiry.
// A wrong password yields an Unauthorized AppError.
func (a *Authenticator) Login(ctx context.Context, pw string) (string, time.Time, error) {
	if err := a.hasher.Verify(pw, a.hash); err != nil {
		a.log.WithContext(ctx).Warn("admin login rejected")
		return "", time.Time{}, apperrors.Unauthorized("invalid password")
	}
	token, exp, err := a.sessions.Issue()
	if err != nil {
		return "", time.Time{}, apperrors.Internal(err)
	}
	a.log.WithContext(ctx).Info("admin logged in")
	return token, exp, nil
}

// SetSession writes the session cookie.
func (a *Authenticator) SetSession(c *gin.Context, token string, exp time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(time.Until(exp).Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: a.sameSite,
	})
}

// ClearSession expires the session cookie.
func (a *Authenticator) ClearSession(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: a.sameSite,
	})
}

// Claims returns the verified session claims carried by r, if any.
func (a *Authenticator) Claims(r *http.Request) (*session.Claims, bool) {
	cookie, err := r.Cookie(a.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	claims, err := a.sessions.Verify(cookie.Value)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// Authenticated reports whether r carries a valid admin session.
func (a *Authenticator) Authenticated(r *http.Request) bool {
	_, ok := a.Claims(r)
	return ok
}

// RequireAdmin aborts with 401 unless the request carries a valid admin
// session. Verified claims are stored in the request context.
func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := a.Claims(c.Request)
		if !ok {
			appErr := apperrors.Unauthorized("admin session required")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

type claimsKey struct{}

// WithClaims stores session claims in ctx.
func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the session claims stored by RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*session.Claims)
	return claims, ok
}
