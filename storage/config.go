package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names.
const (
	ProviderAuto  = "auto"
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultBasePath  = "uploads"
	DefaultURLPrefix = "/uploads"
	DefaultRegion    = "us-east-1"
)

// Config holds storage configuration for every backend. Only the section
// of the selected provider is used.
type Config struct {
	// Provider is "auto", "local" or "s3". Auto picks S3 when credentials
	// and a bucket are configured.
	Provider string      `yaml:"provider" mapstructure:"provider"`
	Local    LocalConfig `yaml:"local" mapstructure:"local"`
	S3       S3Config    `yaml:"s3" mapstructure:"s3"`
}

// LocalConfig configures the filesystem backend.
type LocalConfig struct {
	// BasePath is the directory originals are written to. Thumbnails go to
	// BasePath/thumbnails.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
	// URLPrefix is the public path the HTTP layer serves blobs under.
	URLPrefix string `yaml:"url_prefix" mapstructure:"url_prefix"`
}

// S3Config configures the S3 backend.
type S3Config struct {
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Region          string `yaml:"region" mapstructure:"region"`
	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	// PublicBaseURL overrides the object URL host, e.g. a CDN in front of the bucket.
	PublicBaseURL string `yaml:"public_base_url" mapstructure:"public_base_url"`
	// PresignTTL, when set, makes reads redirect to presigned URLs valid for
	// this long instead of the public object URL.
	PresignTTL time.Duration `yaml:"presign_ttl" mapstructure:"presign_ttl"`
}

// HasCredentials reports whether static credentials and a bucket are set.
func (c *S3Config) HasCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderAuto
	}
	if c.Local.BasePath == "" {
		c.Local.BasePath = DefaultBasePath
	}
	if c.Local.URLPrefix == "" {
		c.Local.URLPrefix = DefaultURLPrefix
	}
	c.Local.URLPrefix = "/" + strings.Trim(c.Local.URLPrefix, "/")
	if c.S3.Region == "" {
		c.S3.Region = DefaultRegion
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAuto, ProviderLocal:
		if c.Local.BasePath == "" {
			return errors.New("storage: local.base_path is required")
		}
	case ProviderS3:
		var errs []error
		if c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
			errs = append(errs, errors.New("storage: s3 credentials are required"))
		}
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("storage: s3.bucket is required"))
		}
		if len(errs) > 0 {
			return fmt.Errorf("storage: invalid s3 config: %w", errors.Join(errs...))
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	if c.S3.PresignTTL < 0 {
		return errors.New("storage: s3.presign_ttl must be non-negative")
	}
	return nil
}

// Selected returns the provider New will build. It is decided from the
// configuration alone and never changes at runtime.
func (c *Config) Selected() string {
	if c.Provider == ProviderAuto {
		if c.S3.HasCredentials() {
			return ProviderS3
		}
		return ProviderLocal
	}
	return c.Provider
}
