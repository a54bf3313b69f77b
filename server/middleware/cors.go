package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig controls which browser origins may call the API. The admin
// endpoints authenticate with a session cookie, so a frontend on another
// origin needs AllowCredentials and an explicit origin list.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers" mapstructure:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
	MaxAge           int      `yaml:"max_age" mapstructure:"max_age"` // seconds a preflight may be cached
}

// ApplyDefaults fills unset fields. Exposed headers default to the ones the
// admin frontend reads: the request id and Retry-After on throttled logins.
func (c *CORSConfig) ApplyDefaults() {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{RequestIDHeader, "Retry-After"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = 600
	}
}

// Validate rejects a wildcard origin combined with credentials. Browsers
// refuse that pairing, and echoing any origin would hand the admin session
// to every site.
func (c *CORSConfig) Validate() error {
	if c.AllowCredentials && slices.Contains(c.AllowedOrigins, "*") {
		return errors.New("server.cors: allow_credentials requires explicit allowed_origins")
	}
	if c.MaxAge < 0 {
		return errors.New("server.cors.max_age must be non-negative")
	}
	return nil
}

// CORS sets cross-origin headers for allowed origins and answers preflight
// requests with 204. A plain OPTIONS request without
// Access-Control-Request-Method is passed through.
func CORS(cfg *CORSConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Add("Vary", "Origin")
			allowed := cfg.allows(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				if allowed {
					cfg.writeOrigin(h, origin)
					cfg.writePreflight(h)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowed {
				cfg.writeOrigin(h, origin)
				if len(cfg.ExposedHeaders) > 0 {
					h.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c *CORSConfig) allows(origin string) bool {
	for _, a := range c.AllowedOrigins {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// writeOrigin echoes the origin when it is listed explicitly and uses the
// wildcard otherwise. Credentials are only allowed for listed origins.
func (c *CORSConfig) writeOrigin(h http.Header, origin string) {
	listed := slices.ContainsFunc(c.AllowedOrigins, func(a string) bool { return strings.EqualFold(a, origin) })
	if !listed {
		h.Set("Access-Control-Allow-Origin", "*")
		return
	}
	h.Set("Access-Control-Allow-Origin", origin)
	if c.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

func (c *CORSConfig) writePreflight(h http.Header) {
	if len(c.AllowedMethods) > 0 {
		h.Set("Access-Control-Allow-Methods", strings.Join(c.AllowedMethods, ", "))
	}
	if len(c.AllowedHeaders) > 0 {
		h.Set("Access-Control-Allow-Headers", strings.Join(c.AllowedHeaders, ", "))
	}
	if c.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(c.MaxAge))
	}
}
