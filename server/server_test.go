package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/portfolio/component"
	apperrors "github.com/kbukum/portfolio/errors"
	"github.com/kbukum/portfolio/logger"
)

func newTestServer(t *testing.T, checker func(context.Context) []component.Health) *Server {
	t.Helper()
	cfg := Config{Host: "127.0.0.1", Port: 0}
	cfg.ApplyDefaults()
	s := New(cfg, logger.NewNop())
	gin.SetMode(gin.TestMode)
	s.ApplyDefaults("portfolio", nil, checker)
	return s
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"16MB", 16 << 20, false},
		{"512kb", 512 << 10, false},
		{"1GB", 1 << 30, false},
		{"2048", 2048, false},
		{"10 MB", 10 << 20, false},
		{"", 0, true},
		{"lots", 0, true},
		{"-1MB", 0, true},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseSize(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.MaxBodyBytes() != 16<<20 {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	cfg.MaxBodySize = "huge"
	if cfg.Validate() == nil {
		t.Error("expected invalid max_body_size")
	}
	cfg.MaxBodySize = "16MB"
	cfg.Port = 70000
	if cfg.Validate() == nil {
		t.Error("expected invalid port")
	}
	cfg.Port = 8080
	cfg.CORS.AllowCredentials = true
	if cfg.Validate() == nil {
		t.Error("expected credentials with wildcard origin to be rejected")
	}
	cfg.CORS.AllowedOrigins = []string{"https://admin.example.com"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("explicit origin with credentials: %v", err)
	}
}

func TestNoRoute_JSON404(t *testing.T) {
	s := newTestServer(t, nil)
	rr := serve(s, "GET", "/nope")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != apperrors.ErrCodeNotFound {
		t.Errorf("code = %s", body.Error.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("transport middleware not applied")
	}
}

func TestNoMethod_JSON405(t *testing.T) {
	s := newTestServer(t, nil)
	rr := serve(s, "DELETE", "/health")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	healths := []component.Health{{Name: "database", Status: component.StatusHealthy}}
	s := newTestServer(t, func(context.Context) []component.Health { return healths })

	if rr := serve(s, "GET", "/health"); rr.Code != http.StatusOK {
		t.Errorf("healthy: status = %d", rr.Code)
	}

	healths = append(healths, component.Health{Name: "storage", Status: component.StatusUnhealthy, Message: "bucket missing"})
	rr := serve(s, "GET", "/health")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy: status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "bucket missing") {
		t.Errorf("body = %s", rr.Body.String())
	}
	if rr := serve(s, "GET", "/ready"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("ready: status = %d", rr.Code)
	}
}

func TestInfo(t *testing.T) {
	s := newTestServer(t, nil)
	rr := serve(s, "GET", "/info")
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["service"] != "portfolio" || body["version"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestRespondWithError_HidesCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest("GET", "/", http.NoBody)

	RespondWithError(c, errors.New("open /var/lib/portfolio.db: permission denied"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "permission denied") {
		t.Errorf("cause leaked: %s", rr.Body.String())
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	c := NewComponent(s)
	ctx := context.Background()

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("before start = %+v", h)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer c.Stop(ctx)

	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("after start = %+v", h)
	}
	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("live /health = %d", resp.StatusCode)
	}
}

func TestComponent_RoutesOrder(t *testing.T) {
	s := newTestServer(t, nil)
	s.GinEngine().DELETE("/api/admin/images/:id", func(*gin.Context) {})
	s.GinEngine().GET("/api/admin/images", func(*gin.Context) {})

	routes := NewComponent(s).Routes()
	if len(routes) < 4 {
		t.Fatalf("routes = %v", routes)
	}
	if routes[0].Path != "/api/admin/images" || routes[1].Method != "DELETE" {
		t.Errorf("api routes not first: %v", routes[:2])
	}
	if !systemPaths[routes[len(routes)-1].Path] {
		t.Errorf("system route not last: %v", routes[len(routes)-1])
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := map[string]string{
		"github.com/kbukum/portfolio/api.(*Handler).Upload-fm":     "Handler.Upload",
		"github.com/kbukum/portfolio/server/endpoint.Health.func1": "endpoint.Health",
		"github.com/kbukum/portfolio/server.(*Server).wrap.func1":  "Server.wrap",
	}
	for in, want := range tests {
		if got := formatHandlerName(in); got != want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}
