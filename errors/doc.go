// Package errors defines the service's structured error type.
//
// Every failure that reaches the HTTP layer is an *AppError carrying a
// machine-readable code, a client-safe message and the HTTP status to
// answer with. Underlying causes are kept for logging and never rendered.
package errors
