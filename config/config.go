package config

import (
	"errors"
	"fmt"

	"github.com/kbukum/portfolio/auth"
	"github.com/kbukum/portfolio/database"
	"github.com/kbukum/portfolio/ingest"
	"github.com/kbukum/portfolio/observability"
	"github.com/kbukum/portfolio/server"
	"github.com/kbukum/portfolio/storage"
)

// ServiceName is the name config files and env files are resolved by.
const ServiceName = "portfolio"

// Config is the complete portfolio configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Upload        ingest.Config        `yaml:"upload" mapstructure:"upload"`
	Admin         auth.Config          `yaml:"admin" mapstructure:"admin"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills zero-valued fields in every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Upload.ApplyDefaults()
	c.Admin.ApplyDefaults()
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
	if c.IsProduction() {
		c.Admin.CookieSecure = true
	}
}

// Validate checks every section and reports all failures together.
func (c *Config) Validate() error {
	return errors.Join(
		c.ServiceConfig.Validate(),
		c.Server.Validate(),
		c.Database.Validate(),
		c.Storage.Validate(),
		c.Upload.Validate(),
		c.Admin.Validate(),
		c.Observability.Validate(),
	)
}

// Read loads the configuration and applies defaults without validating.
// Commands that only touch one section validate that section themselves.
func Read(opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(ServiceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Load reads, defaults and validates the configuration.
func Load(opts ...LoaderOption) (*Config, error) {
	cfg, err := Read(opts...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
