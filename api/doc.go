// Package api exposes the portfolio over HTTP.
//
// Public routes list the portfolio and serve blobs; /api/admin routes
// other than login, logout and session require an admin session cookie.
package api
