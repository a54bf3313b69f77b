package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/portfolio/component"
	"github.com/kbukum/portfolio/config"
	"github.com/kbukum/portfolio/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health { return m.health }

type describedComponent struct {
	mockComponent
	desc   component.Description
	routes []component.Route
}

func (d *describedComponent) Describe() component.Description { return d.desc }
func (d *describedComponent) Routes() []component.Route { return d.routes }

func healthy(name string) *mockComponent {
	return &mockComponent{name: name, health: component.Health{Name: name, Status: component.StatusHealthy}}
}

func newTestApp(t *testing.T, opts ...Option) (*App[*testConfig], *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "test-svc", Version: "1.0.0", Environment: "staging"}}
	opts = append([]Option{WithLogger(logger.NewNop()), WithSummaryOutput(out)}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app, out
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("name/version = %q/%q", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil || app.Summary == nil {
		t.Error("expected registry, logger and summary")
	}
	if app.Cfg.Name != "test-svc" {
		t.Errorf("cfg.Name = %q", app.Cfg.Name)
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("graceful timeout = %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "x", Environment: "moon"}}
	if _, err := NewApp(cfg, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestNewAppAppliesDefaults(t *testing.T) {
	cfg := &testConfig{}
	app, err := NewApp(cfg, WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatal(err)
	}
	if app.Name != "portfolio" || cfg.Environment != "development" {
		t.Errorf("defaults not applied: %q %q", app.Name, cfg.Environment)
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app, _ := newTestApp(t, WithGracefulTimeout(30*time.Second))
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("timeout = %v", app.gracefulTimeout)
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app, _ := newTestApp(t)
	if err := app.RegisterComponent(healthy("db")); err != nil {
		t.Fatal(err)
	}
	if app.Components.Get("db") == nil {
		t.Error("db not registered")
	}
	if err := app.RegisterComponent(healthy("db")); err == nil {
		t.Error("expected duplicate error")
	}
}

func TestRunTaskLifecycleOrder(t *testing.T) {
	app, _ := newTestApp(t)
	var order []string
	record := func(s string) Hook {
		return func(context.Context) error { order = append(order, s); return nil }
	}
	app.OnStart(record("start"))
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		order = append(order, "configure")
		return nil
	})
	app.OnReady(record("ready"))
	app.OnStop(record("stop"))

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(order, ","); got != "start,configure,ready,task,stop" {
		t.Errorf("order = %s", got)
	}
}

func TestRunTaskReturnsTaskError(t *testing.T) {
	app, _ := newTestApp(t)
	sentinel := errors.New("task error")
	if err := app.RunTask(context.Background(), func(context.Context) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("err = %v", err)
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestRunTaskStartsAndStopsComponents(t *testing.T) {
	app, _ := newTestApp(t)
	comp := healthy("db")
	app.RegisterComponent(comp)

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if !comp.started || !comp.stopped {
		t.Errorf("started=%v stopped=%v", comp.started, comp.stopped)
	}
}

func TestRunTaskStartupFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(app *App[*testConfig])
	}{
		{"start hook", func(app *App[*testConfig]) {
			app.OnStart(func(context.Context) error { return boom })
		}},
		{"configure", func(app *App[*testConfig]) {
			app.OnConfigure(func(context.Context, *App[*testConfig]) error { return boom })
		}},
		{"ready hook", func(app *App[*testConfig]) {
			app.OnReady(func(context.Context) error { return boom })
		}},
		{"component start", func(app *App[*testConfig]) {
			app.RegisterComponent(&mockComponent{name: "db", startErr: boom})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			tt.setup(app)
			ran := false
			err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
			if !errors.Is(err, boom) {
				t.Errorf("err = %v, want boom", err)
			}
			if ran {
				t.Error("task must not run after a failed startup")
			}
		})
	}
}

func TestRunTaskStopErrors(t *testing.T) {
	boom := errors.New("stop failed")

	app, _ := newTestApp(t)
	app.RegisterComponent(&mockComponent{name: "db", stopErr: boom,
		health: component.Health{Name: "db", Status: component.StatusHealthy}})
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, boom) {
		t.Errorf("component stop err = %v", err)
	}

	app, _ = newTestApp(t)
	app.OnStop(func(context.Context) error { return boom })
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, boom) {
		t.Errorf("stop hook err = %v", err)
	}

	// the task error wins over a stop error
	taskErr := errors.New("task")
	if err := app.RunTask(context.Background(), func(context.Context) error { return taskErr }); !errors.Is(err, taskErr) {
		t.Errorf("err = %v, want task error", err)
	}
}

func TestHookErrorStopsExecution(t *testing.T) {
	second := false
	err := runHooks(context.Background(), []Hook{
		func(context.Context) error { return errors.New("first") },
		func(context.Context) error { second = true; return nil },
	})
	if err == nil || second {
		t.Errorf("err=%v second=%v", err, second)
	}
}

func TestReadyCheck(t *testing.T) {
	app, _ := newTestApp(t)
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("empty registry: %v", err)
	}

	app.RegisterComponent(healthy("db"))
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("healthy: %v", err)
	}

	app.RegisterComponent(&mockComponent{name: "storage",
		health: component.Health{Name: "storage", Status: component.StatusDegraded, Message: "slow"}})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "storage=degraded (slow)") {
		t.Errorf("err = %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app, out := newTestApp(t)
	comp := healthy("db")
	app.RegisterComponent(comp)

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error { cancel(); return nil })

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !comp.stopped {
		t.Error("component not stopped")
	}
	if !strings.Contains(out.String(), "test-svc v1.0.0 started") {
		t.Errorf("summary missing: %q", out.String())
	}
}

func TestSummaryCollectAndRender(t *testing.T) {
	reg := component.NewRegistry(logger.NewNop())
	reg.Register(healthy("plain"))
	reg.Register(&describedComponent{
		mockComponent: mockComponent{name: "http-server",
			health: component.Health{Name: "http-server", Status: component.StatusUnhealthy, Message: "not listening"}},
		desc:   component.Description{Name: "HTTP Server", Type: "server", Details: "gin h2c", Port: 8080},
		routes: []component.Route{{Method: "GET", Path: "/api/portfolio", Handler: "Handler.ListPublic"}},
	})

	s := NewSummary("portfolio", "2.0.0")
	s.SetStartupDuration(1500 * time.Millisecond)
	s.TrackBusinessComponent("ingest", "service", "repository", "storage")
	s.Collect(reg)
	s.Collect(reg) // collecting twice does not duplicate

	if len(s.Infrastructure()) != 2 || len(s.Routes()) != 1 {
		t.Fatalf("infra=%d routes=%d", len(s.Infrastructure()), len(s.Routes()))
	}

	var buf bytes.Buffer
	s.Render(&buf, reg.HealthAll(context.Background()))
	out := buf.String()
	for _, want := range []string{
		"portfolio v2.0.0 started in 1.50s",
		"HTTP Server [server]: gin h2c (:8080)",
		"GET     /api/portfolio → Handler.ListPublic",
		"ingest",
		"🔗 storage",
		"http-server unhealthy: not listening",
		"(1/2 healthy)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewSummary("svc", "0").Render(&buf, nil)
	if !strings.Contains(buf.String(), "No components registered") {
		t.Errorf("got %q", buf.String())
	}
}

func TestIcons(t *testing.T) {
	if healthStatusIcon(component.StatusHealthy) != "✅" || healthStatusIcon("weird") != "❓" {
		t.Error("health icons")
	}
	if businessIcon("repository") != "📁" || businessIcon("other") != "💼" {
		t.Error("business icons")
	}
	if branch(0, 2) != "├──" || branch(1, 2) != "└──" {
		t.Error("branches")
	}
}
