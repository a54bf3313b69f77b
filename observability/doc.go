// Package observability wires OpenTelemetry tracing and metrics into the
// service.
//
// Export is optional. With no OTLP endpoint configured the global no-op
// providers stay in place and spans and counters cost next to nothing.
//
//	p, err := observability.Setup(ctx, cfg, "portfolio", version.Version)
//	defer p.Shutdown(ctx)
//
//	ctx, op := observability.StartOperation(ctx, "ingest")
//	defer op.End(err)
package observability
