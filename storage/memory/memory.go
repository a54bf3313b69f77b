// Package memory is an in-memory storage.Storage for tests. Individual
// operations can be made to fail so callers' cleanup paths can be exercised.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/kbukum/portfolio/storage"
)

type object struct {
	data        []byte
	contentType string
}

// Storage keeps objects in a map guarded by a mutex.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]object

	// PutErr, when set, is consulted before every Put. A non-nil result is
	// returned wrapped in storage.ErrWrite and nothing is stored.
	PutErr func(key string) error
	// DeleteErr, when set, is consulted before every Delete.
	DeleteErr func(key string) error
}

var _ storage.Storage = (*Storage)(nil)

// New returns an empty store.
func New() *Storage {
	return &Storage{objects: make(map[string]object)}
}

// Put stores a copy of r's contents. A key that is already present is left
// alone and ErrExists is returned.
func (s *Storage) Put(_ context.Context, key string, r io.Reader, contentType string) error {
	if err := storage.ValidateKey(key); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrWrite, err)
	}
	if s.PutErr != nil {
		if err := s.PutErr(key); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrWrite, err)
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrWrite, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; ok {
		return fmt.Errorf("%w: %s", storage.ErrExists, key)
	}
	s.objects[key] = object{data: data, contentType: contentType}
	return nil
}

// Open returns a reader over a copy of the stored bytes.
func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// Delete removes key and reports whether it was present.
func (s *Storage) Delete(_ context.Context, key string) (bool, error) {
	if s.DeleteErr != nil {
		if err := s.DeleteErr(key); err != nil {
			return false, fmt.Errorf("%w: %w", storage.ErrDelete, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	delete(s.objects, key)
	return ok, nil
}

// Exists reports whether key is stored.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// URL returns a memory:// address for key.
func (s *Storage) URL(key string) string {
	return "memory://" + key
}

// Keys returns the stored keys in sorted order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Bytes returns the stored bytes and content type for key.
func (s *Storage) Bytes(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}
