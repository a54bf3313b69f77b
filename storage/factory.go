package storage

import (
	"fmt"
	"sync"

	"github.com/kbukum/portfolio/logger"
)

// Factory builds a backend from configuration.
type Factory func(cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a backend factory for the given provider name.
// Backend packages call this from init, so the binary must import them:
//
//	import _ "github.com/kbukum/portfolio/storage/s3"
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New selects and builds the storage backend for cfg.
func New(cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider := cfg.Selected()
	factoriesMu.RLock()
	f, ok := factories[provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q is not registered", provider)
	}

	l := log.WithComponent("storage")
	l.Info("initializing storage", logger.Fields(logger.FieldBackend, provider))
	return f(cfg, l)
}
