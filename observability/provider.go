package observability

import (
	"context"
	"errors"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/portfolio/component"
	"github.com/kbukum/portfolio/logger"
)

// Provider owns the exporters installed by Setup.
type Provider struct {
	cfg    Config
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

var _ component.Component = (*Provider)(nil)
var _ component.Describable = (*Provider)(nil)

// Setup installs tracing and metrics export when cfg has an endpoint and
// always connects the logger to the active span. The returned provider is
// never nil on success.
func Setup(ctx context.Context, cfg Config, serviceName, serviceVersion string) (*Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.TraceExtractor = TraceIDs

	p := &Provider{cfg: cfg}
	if !cfg.Enabled() {
		return p, nil
	}

	tp, err := InitTracer(ctx, cfg, serviceName, serviceVersion)
	if err != nil {
		return nil, err
	}
	p.tracer = tp

	mp, err := InitMeter(ctx, cfg, serviceName, serviceVersion)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	p.meter = mp
	return p, nil
}

// Shutdown flushes and stops the exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracer != nil {
		errs = append(errs, p.tracer.Shutdown(ctx))
	}
	if p.meter != nil {
		errs = append(errs, p.meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Name returns the component name.
func (p *Provider) Name() string { return "observability" }

// Start is a no-op; exporters are installed by Setup.
func (p *Provider) Start(context.Context) error { return nil }

// Stop flushes the exporters.
func (p *Provider) Stop(ctx context.Context) error { return p.Shutdown(ctx) }

// Health always reports healthy; export failures are retried by the SDK.
func (p *Provider) Health(context.Context) component.Health {
	return component.Health{Name: p.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (p *Provider) Describe() component.Description {
	details := "export disabled"
	if p.cfg.Enabled() {
		details = "otlp " + p.cfg.Endpoint
	}
	return component.Description{Name: "Observability", Type: "telemetry", Details: details}
}
