// Package local stores blobs in a directory on the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kbukum/portfolio/logger"
	"github.com/kbukum/portfolio/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		s, err := NewStorage(cfg.Local.BasePath, cfg.Local.URLPrefix)
		if err != nil {
			return nil, err
		}
		log.Info("local storage ready", logger.Fields("path", s.basePath))
		return s, nil
	})
}

// Storage implements storage.Storage on a directory.
type Storage struct {
	basePath  string
	urlPrefix string
}

var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Pinger  = (*Storage)(nil)
)

// NewStorage creates the base and thumbnail directories if needed.
func NewStorage(basePath, urlPrefix string) (*Storage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base path: %w", err)
	}
	thumbs := filepath.Join(abs, filepath.FromSlash(storage.ThumbnailPrefix))
	if err := os.MkdirAll(thumbs, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create directories: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = storage.DefaultURLPrefix
	}
	return &Storage{basePath: abs, urlPrefix: urlPrefix}, nil
}

// BasePath returns the absolute root directory.
func (s *Storage) BasePath() string { return s.basePath }

func (s *Storage) resolve(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// Put writes r to a temporary file next to the target and hard-links it
// into place. The link fails if the target exists, so an existing object is
// never replaced and readers never observe a partial one.
func (s *Storage) Put(_ context.Context, key string, r io.Reader, _ string) error {
	full, err := s.resolve(key)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrWrite, err)
	}
	if _, err := os.Lstat(full); err == nil {
		return fmt.Errorf("%w: %s", storage.ErrExists, key)
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create directory: %w", storage.ErrWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", storage.ErrWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // the linked target keeps the data

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("%w: write %s: %w", storage.ErrWrite, key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", storage.ErrWrite, key, err)
	}
	if err := os.Chmod(tmpName, 0o640); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", storage.ErrWrite, key, err)
	}
	if err := os.Link(tmpName, full); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", storage.ErrExists, key)
		}
		return fmt.Errorf("%w: link %s: %w", storage.ErrWrite, key, err)
	}
	return nil
}

// Open returns the file at key.
func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return nil, fmt.Errorf("storage: open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close() //nolint:errcheck // read-only
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return f, nil
}

// Delete removes the file at key.
func (s *Storage) Delete(_ context.Context, key string) (bool, error) {
	full, err := s.resolve(key)
	if err != nil {
		return false, fmt.Errorf("%w: %w", storage.ErrDelete, err)
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s: %w", storage.ErrDelete, key, err)
	}
	return true, nil
}

// Exists checks whether a regular file exists at key.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	full, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %w", key, err)
	}
	return !info.IsDir(), nil
}

// URL returns the path the HTTP layer serves key under.
func (s *Storage) URL(key string) string {
	return s.urlPrefix + "/" + key
}

// Ping checks that the base directory is still present.
func (s *Storage) Ping(context.Context) error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: %s is not a directory", s.basePath)
	}
	return nil
}
