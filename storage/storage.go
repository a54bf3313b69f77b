package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ThumbnailPrefix is the namespace thumbnails are stored under.
const ThumbnailPrefix = "thumbnails/"

// Sentinel errors. Backends wrap them so callers can use errors.Is.
var (
	ErrNotFound   = errors.New("storage: object not found")
	ErrWrite      = errors.New("storage: write failed")
	ErrDelete     = errors.New("storage: delete failed")
	ErrInvalidKey = errors.New("storage: invalid key")
	ErrExists     = errors.New("storage: object already exists")
)

// Storage defines the blob operations the service relies on.
type Storage interface {
	// Put writes all of r under key. Objects are immutable once written: a
	// key that is already taken yields an error wrapping ErrExists and the
	// stored object is left untouched. Other failures wrap ErrWrite.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error

	// Open returns a reader for the object at key. The caller closes it.
	// A missing object yields an error wrapping ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key and reports whether it existed.
	// A missing object is not an error. Failures wrap ErrDelete.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists checks whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns the address clients use to fetch the object at key.
	URL(key string) string
}

// Redirector is implemented by backends whose objects are fetched from
// somewhere other than this service. The HTTP layer redirects instead of
// streaming.
type Redirector interface {
	RedirectURL(ctx context.Context, key string) (string, error)
}

// Pinger is implemented by backends that can check their own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ThumbnailKey returns the key the thumbnail of key is stored under.
func ThumbnailKey(key string) string {
	return ThumbnailPrefix + key
}

// ValidateKey rejects keys that are empty, absolute, or escape the root.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if clean := path.Clean(key); clean != key || clean == "." || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
