package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/portfolio/logger"
	"github.com/kbukum/portfolio/observability"
)

// slowRequest marks requests that are logged with slow=true.
const slowRequest = 500 * time.Millisecond

// RequestLogger returns a Gin middleware that traces, measures and logs each
// request. The route template (e.g. /api/admin/images/:id) is used for span
// names and metric labels so blob keys do not explode cardinality. Health
// probes are served without logging. metrics may be nil.
func RequestLogger(log *logger.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		if isHealthEndpoint(r.URL.Path) {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := observability.StartSpan(ctx, r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String(observability.AttrRequestID, logger.RequestIDFromContext(ctx)),
			),
		)
		defer span.End()
		c.Request = r.WithContext(ctx)

		if metrics != nil {
			metrics.RecordRequestStart(ctx)
		}
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
		if metrics != nil {
			metrics.RecordRequestEnd(ctx, r.Method, route, status, latency)
		}

		fields := logger.Fields(
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"duration_ms", latency.Milliseconds(),
			"client", c.ClientIP(),
		)
		if latency > slowRequest {
			fields["slow"] = true
		}
		logByStatus(log.WithContext(ctx), fields, status)
	}
}

func isHealthEndpoint(path string) bool {
	switch strings.TrimSuffix(path, "/") {
	case "/health", "/ready":
		return true
	}
	return false
}

// logByStatus logs request fields at a level matching the HTTP status.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
