package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/portfolio/auth/password"
)

// DefaultCookieName is the admin session cookie.
const DefaultCookieName = "portfolio_session"

// Config holds admin authentication settings.
//
//	admin:
//	  password_hash: "$2a$12$..."
//	  session_secret: "..."
//	  session_ttl: 12h
type Config struct {
	// Password is a plaintext admin password hashed at startup. Prefer
	// PasswordHash outside development.
	Password string `mapstructure:"password"`
	// PasswordHash is a bcrypt hash of the admin password.
	PasswordHash string `mapstructure:"password_hash"`
	// BcryptCost is used when hashing Password at startup.
	BcryptCost int `mapstructure:"bcrypt_cost"`

	// SessionSecret signs session tokens. A random secret is generated when
	// empty, which invalidates sessions on restart.
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`

	CookieName     string `mapstructure:"cookie_name"`
	CookieSecure   bool   `mapstructure:"cookie_secure"`
	CookieSameSite string `mapstructure:"cookie_same_site"`

	// LoginAttemptsPerMinute throttles login per client IP. Negative
	// disables throttling.
	LoginAttemptsPerMinute int `mapstructure:"login_attempts_per_minute"`
	LoginBurst             int `mapstructure:"login_burst"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 12 * time.Hour
	}
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.CookieSameSite == "" {
		c.CookieSameSite = "lax"
	}
	if c.LoginAttemptsPerMinute == 0 {
		c.LoginAttemptsPerMinute = 10
	}
	if c.LoginBurst == 0 {
		c.LoginBurst = 5
	}
}

// LoginThrottled reports whether login attempts are rate limited.
func (c *Config) LoginThrottled() bool {
	return c.LoginAttemptsPerMinute > 0
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Password == "" && c.PasswordHash == "" {
		return errors.New("admin: one of password or password_hash is required")
	}
	if c.PasswordHash != "" && !password.IsBcryptHash(c.PasswordHash) {
		return errors.New("admin: password_hash is not a bcrypt hash")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("admin: session_ttl must be positive (got: %s)", c.SessionTTL)
	}
	if _, err := parseSameSite(c.CookieSameSite); err != nil {
		return err
	}
	return nil
}

// Describe returns a one-liner for the startup summary.
func (c *Config) Describe() string {
	source := "password_hash"
	if c.PasswordHash == "" {
		source = "password (hashed at startup)"
	}
	return fmt.Sprintf("admin %s session=%s cookie=%s", source, c.SessionTTL, c.CookieName)
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(s) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("admin: cookie_same_site must be lax, strict or none (got: %s)", s)
	}
}
