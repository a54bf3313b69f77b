package database

import (
	"context"
	"fmt"

	"github.com/kbukum/portfolio/component"
)

// Component exposes an open DB to the component registry. The connection
// is opened before routes are wired; Stop closes it.
type Component struct {
	db *DB
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent wraps db.
func NewComponent(db *DB) *Component {
	return &Component{db: db}
}

// DB returns the wrapped database.
func (c *Component) DB() *DB { return c.db }

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start is a no-op; Open has already connected.
func (c *Component) Start(context.Context) error { return nil }

// Stop closes the connection pool.
func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.db == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "database not initialized"}
	}
	if err := c.db.PingContext(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	cfg := c.db.Config()
	return component.Description{
		Name:    "SQLite",
		Type:    "database",
		Details: fmt.Sprintf("%s pool=%d/%d", cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns),
	}
}
