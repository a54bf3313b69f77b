package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.SampleRate != 1.0 || cfg.MetricInterval != 15*time.Second || cfg.Environment != "development" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Enabled() {
		t.Error("no endpoint should mean disabled")
	}
	cfg.SampleRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected sample rate error")
	}
}

func TestSetup_DisabledIsNoop(t *testing.T) {
	p, err := Setup(context.Background(), Config{}, "portfolio", "test")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if p.tracer != nil || p.meter != nil {
		t.Error("no exporters expected without an endpoint")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if d := p.Describe(); d.Details != "export disabled" {
		t.Errorf("describe = %+v", d)
	}
}

func TestOperation_EndRecordsStatus(t *testing.T) {
	exporter := installRecorder(t)

	_, op := StartOperation(context.Background(), SpanIngest, attribute.String(AttrStorageKey, "abc.png"))
	op.End(nil)
	_, failed := StartOperation(context.Background(), SpanRemove)
	failed.End(errors.New("row vanished"))

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	if spans[0].Name != SpanIngest || spans[0].Status.Code == codes.Error {
		t.Errorf("first span = %s %v", spans[0].Name, spans[0].Status)
	}
	if spans[1].Status.Code != codes.Error || len(spans[1].Events) == 0 {
		t.Errorf("failed span should carry an error status and event, got %v", spans[1].Status)
	}
}

func TestTraceIDs(t *testing.T) {
	installRecorder(t)

	if tid, sid := TraceIDs(context.Background()); tid != "" || sid != "" {
		t.Error("expected empty ids without a span")
	}
	ctx, span := StartSpan(context.Background(), "x")
	defer span.End()
	tid, sid := TraceIDs(ctx)
	if len(tid) != 32 || len(sid) != 16 {
		t.Errorf("ids = %q %q", tid, sid)
	}
}

func TestSetSpanAttribute(t *testing.T) {
	exporter := installRecorder(t)
	ctx, span := StartSpan(context.Background(), "attrs")
	SetSpanAttribute(ctx, AttrImageID, uint(7))
	SetSpanAttribute(ctx, AttrRequestID, "req-1")
	SetSpanAttribute(ctx, "ignored", 1.5)
	span.End()

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range exporter.GetSpans()[0].Attributes {
		got[kv.Key] = kv.Value
	}
	if got[AttrImageID].AsInt64() != 7 || got[AttrRequestID].AsString() != "req-1" {
		t.Errorf("attributes = %v", got)
	}
	if _, ok := got["ignored"]; ok {
		t.Error("unsupported types should be skipped")
	}
}

func TestMetrics_PortfolioCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordIngest(ctx, "")
	m.RecordIngest(ctx, "INVALID_INPUT")
	m.RecordCompensation(ctx, 2)
	m.RecordCompensation(ctx, 0)
	m.RecordRemove(ctx, "NOT_FOUND")
	m.RecordRequestStart(ctx)
	m.RecordRequestEnd(ctx, "GET", "/api/portfolio", 200, 5*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if s, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[md.Name] += dp.Value
				}
			}
		}
	}
	want := map[string]int64{
		"portfolio.ingest.total":         2,
		"portfolio.ingest.failures":      1,
		"portfolio.ingest.compensations": 2,
		"portfolio.remove.total":         1,
		"http.server.request.total":      1,
		"http.server.request.active":     0,
	}
	for name, v := range want {
		if sums[name] != v {
			t.Errorf("%s = %d, want %d", name, sums[name], v)
		}
	}
}
