// Package auth guards the admin API with a single shared password.
//
// The password is held as a bcrypt hash (auth/password). A successful login
// issues a signed session token (auth/session) stored in an HttpOnly cookie,
// and RequireAdmin checks that cookie before admin handlers run.
//
//	a, err := auth.New(cfg.Admin, log)
//	admin := router.Group("/api/admin", a.RequireAdmin())
package auth
