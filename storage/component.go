package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/portfolio/component"
)

// Component exposes a built backend to the component registry for health
// reporting and the startup summary.
type Component struct {
	storage Storage
	cfg     Config
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent wraps an already selected backend.
func NewComponent(s Storage, cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{storage: s, cfg: cfg}
}

// Storage returns the wrapped backend.
func (c *Component) Storage() Storage { return c.storage }

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start is a no-op; the backend is built by New before routes are wired.
func (c *Component) Start(context.Context) error { return nil }

// Stop is a no-op.
func (c *Component) Stop(context.Context) error { return nil }

// Health pings the backend when it supports it.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.storage == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "storage not initialized"}
	}
	if p, ok := c.storage.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return component.Health{
				Name:    c.Name(),
				Status:  component.StatusUnhealthy,
				Message: fmt.Sprintf("health probe failed: %v", err),
			}
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	details := "provider=" + c.cfg.Selected()
	switch c.cfg.Selected() {
	case ProviderS3:
		details += " bucket=" + c.cfg.S3.Bucket + " region=" + c.cfg.S3.Region
		if c.cfg.S3.Endpoint != "" {
			details += " endpoint=" + c.cfg.S3.Endpoint
		}
	case ProviderLocal:
		details += " path=" + c.cfg.Local.BasePath
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}
