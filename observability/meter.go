package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/portfolio/logger"
)

// InitMeter installs a periodic OTLP meter provider as the global provider.
// The caller must shut it down on exit.
func InitMeter(ctx context.Context, cfg Config, serviceName, serviceVersion string) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(serviceName, serviceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))
	return mp, nil
}

// Meter returns the module meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Metrics holds the instruments recorded by the HTTP layer and the
// ingestion pipeline.
type Metrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter

	ingestTotal    metric.Int64Counter
	ingestFailures metric.Int64Counter
	compensations  metric.Int64Counter
	removeTotal    metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.requestTotal, err = meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating request histogram: %w", err)
	}
	if m.requestActive, err = meter.Int64UpDownCounter("http.server.request.active",
		metric.WithDescription("Number of in-flight HTTP requests")); err != nil {
		return nil, fmt.Errorf("creating active request gauge: %w", err)
	}
	if m.ingestTotal, err = meter.Int64Counter("portfolio.ingest.total",
		metric.WithDescription("Ingest attempts by outcome")); err != nil {
		return nil, fmt.Errorf("creating ingest counter: %w", err)
	}
	if m.ingestFailures, err = meter.Int64Counter("portfolio.ingest.failures",
		metric.WithDescription("Failed ingests by error code")); err != nil {
		return nil, fmt.Errorf("creating ingest failure counter: %w", err)
	}
	if m.compensations, err = meter.Int64Counter("portfolio.ingest.compensations",
		metric.WithDescription("Blobs deleted while compensating a failed ingest")); err != nil {
		return nil, fmt.Errorf("creating compensation counter: %w", err)
	}
	if m.removeTotal, err = meter.Int64Counter("portfolio.remove.total",
		metric.WithDescription("Remove calls by outcome")); err != nil {
		return nil, fmt.Errorf("creating remove counter: %w", err)
	}
	return &m, nil
}

// RecordRequestStart increments the in-flight request gauge.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd records a finished HTTP request.
func (m *Metrics) RecordRequestEnd(ctx context.Context, method, route string, status int, d time.Duration) {
	m.requestActive.Add(ctx, -1)
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.requestTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordIngest counts one ingest attempt. code is empty on success.
func (m *Metrics) RecordIngest(ctx context.Context, code string) {
	outcome := "ok"
	if code != "" {
		outcome = "error"
		m.ingestFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
	}
	m.ingestTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordCompensation counts blobs deleted while undoing an ingest.
func (m *Metrics) RecordCompensation(ctx context.Context, blobs int) {
	if blobs > 0 {
		m.compensations.Add(ctx, int64(blobs))
	}
}

// RecordRemove counts one remove call. code is empty on success.
func (m *Metrics) RecordRemove(ctx context.Context, code string) {
	outcome := "ok"
	if code != "" {
		outcome = code
	}
	m.removeTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
