package middleware

import (
	"net/http"

	apperrors "github.com/kbukum/portfolio/errors"
)

// BodySizeLimit caps request bodies at limit bytes. Reading past the limit
// fails with *http.MaxBytesError, which handlers report as 413.
func BodySizeLimit(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.ContentLength > limit {
				writeError(w, apperrors.PayloadTooLarge(limit))
				return
			}
			if limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
