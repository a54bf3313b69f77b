package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/portfolio/auth"
	"github.com/kbukum/portfolio/ingest"
	"github.com/kbukum/portfolio/logger"
	"github.com/kbukum/portfolio/portfolio"
	"github.com/kbukum/portfolio/resilience"
	"github.com/kbukum/portfolio/server"
	"github.com/kbukum/portfolio/server/middleware"
)

// Handler serves the portfolio routes.
type Handler struct {
	pipeline *ingest.Pipeline
	auth     *auth.Authenticator
	log      *logger.Logger
}

// New returns a Handler.
func New(pipeline *ingest.Pipeline, authn *auth.Authenticator, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{pipeline: pipeline, auth: authn, log: log.WithComponent("api")}
}

// Register mounts every route on r. Blobs are served under blobPrefix,
// e.g. /uploads.
func (h *Handler) Register(r gin.IRouter, blobPrefix string) {
	r.GET("/api/portfolio", h.ListPublic)

	admin := r.Group("/api/admin")
	admin.POST("/login", h.loginHandlers()...)
	admin.POST("/logout", h.Logout)
	admin.GET("/session", h.Session)

	protected := admin.Group("", h.auth.RequireAdmin())
	protected.POST("/upload", h.Upload)
	protected.GET("/images", h.ListAdmin)
	protected.DELETE("/images/:id", h.Delete)

	blobPrefix = "/" + strings.Trim(blobPrefix, "/")
	r.GET(blobPrefix+"/*key", h.Blob)
}

// loginHandlers puts a per-client throttle in front of Login unless it is
// disabled in the admin config.
func (h *Handler) loginHandlers() []gin.HandlerFunc {
	cfg := h.auth.Config()
	if !cfg.LoginThrottled() {
		return []gin.HandlerFunc{h.Login}
	}
	limiter := resilience.NewKeyedLimiter(resilience.RateLimiterConfig{
		Name:  "admin-login",
		Rate:  float64(cfg.LoginAttemptsPerMinute) / 60,
		Burst: cfg.LoginBurst,
		OnLimit: func(name, key string) {
			h.log.Warn("login attempts throttled", logger.Fields("limiter", name, "client_ip", key))
		},
	})
	return []gin.HandlerFunc{middleware.RateLimit(limiter, nil), h.Login}
}

// Result is the body of mutating admin calls.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Image   *portfolio.View `json:"image,omitempty"`
}

// ListPublic serves the portfolio in display order.
func (h *Handler) ListPublic(c *gin.Context) {
	images, err := h.pipeline.ListPublic(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio.Views(images, h.pipeline.Storage()))
}

// ListAdmin serves every image, newest first.
func (h *Handler) ListAdmin(c *gin.Context) {
	images, err := h.pipeline.ListAdmin(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio.Views(images, h.pipeline.Storage()))
}
