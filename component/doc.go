// Package component defines the lifecycle contract shared by the service's
// infrastructure pieces (database, storage, HTTP server, telemetry) and a
// registry that starts them in order and stops them in reverse.
package component
