package observability

import (
	"fmt"
	"time"
)

// Config controls OTLP export of traces and metrics.
type Config struct {
	// Endpoint is the OTLP HTTP host:port. Empty disables export.
	Endpoint string `mapstructure:"endpoint"`
	// Insecure disables TLS to the collector.
	Insecure bool `mapstructure:"insecure"`
	// Environment is recorded on every span and metric resource.
	Environment string `mapstructure:"environment"`
	// SampleRate is the fraction of traces kept, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate"`
	// MetricInterval is how often metrics are pushed.
	MetricInterval time.Duration `mapstructure:"metric_interval"`
}

// Enabled reports whether an exporter endpoint is configured.
func (c *Config) Enabled() bool { return c.Endpoint != "" }

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("observability: sample_rate must be within [0,1], got %v", c.SampleRate)
	}
	if c.MetricInterval < 0 {
		return fmt.Errorf("observability: metric_interval must not be negative")
	}
	return nil
}
