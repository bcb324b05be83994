// Package store persists subscriptions behind a small key-value backend.
package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gigurra/subsight/internal"
	"github.com/sirupsen/logrus"
)

// Backend stores opaque values by key
type Backend interface {
	// Get returns the value for key, and false if it was never written
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

var validKey = regexp.MustCompile(`^[a-z0-9_-]+$`)

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// Open creates the backend selected by cfg.Backend
func Open(cfg internal.StoreConfig, log *logrus.Logger) (Backend, error) {
	log.WithFields(logrus.Fields{"backend": cfg.Backend, "path": cfg.Path}).Debug("opening store")

	var (
		b   Backend
		err error
	)
	switch cfg.Backend {
	case "file", "":
		b, err = NewFileBackend(cfg.Path)
	case "sqlite":
		b, err = NewSQLiteBackend(cfg.Path)
	case "memory":
		b = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend, err)
	}
	return b, nil
}
