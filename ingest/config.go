package ingest

import (
	"fmt"

	"github.com/kbukum/portfolio/imagecodec"
)

// DefaultMaxFileSize is the largest accepted upload, 16 MiB.
const DefaultMaxFileSize int64 = 16 << 20

// Config tunes upload limits and thumbnail rendering.
type Config struct {
	MaxFileSize      int64 `mapstructure:"max_file_size"`
	ThumbnailSize    int   `mapstructure:"thumbnail_size"`
	ThumbnailQuality int   `mapstructure:"thumbnail_quality"`
	// MaxPixels rejects images whose width*height exceeds it before the
	// pixels are decoded.
	MaxPixels int `mapstructure:"max_pixels"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.ThumbnailSize == 0 {
		c.ThumbnailSize = imagecodec.DefaultBoxSize
	}
	if c.ThumbnailQuality == 0 {
		c.ThumbnailQuality = imagecodec.DefaultJPEGQuality
	}
	if c.MaxPixels == 0 {
		c.MaxPixels = imagecodec.DefaultMaxPixels
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be positive (got: %d)", c.MaxFileSize)
	}
	if c.ThumbnailSize < 16 || c.ThumbnailSize > 4096 {
		return fmt.Errorf("upload.thumbnail_size must be between 16 and 4096 (got: %d)", c.ThumbnailSize)
	}
	if c.ThumbnailQuality < 1 || c.ThumbnailQuality > 100 {
		return fmt.Errorf("upload.thumbnail_quality must be between 1 and 100 (got: %d)", c.ThumbnailQuality)
	}
	if c.MaxPixels <= 0 {
		return fmt.Errorf("upload.max_pixels must be positive (got: %d)", c.MaxPixels)
	}
	return nil
}

// Thumbnailer builds the thumbnailer described by c.
func (c *Config) Thumbnailer() *imagecodec.Thumbnailer {
	box := imagecodec.Size{Width: c.ThumbnailSize, Height: c.ThumbnailSize}
	return imagecodec.NewThumbnailer(box, c.ThumbnailQuality, c.MaxPixels)
}
