// Package cache is the local durable key-value store the engine falls back to
// when the remote store is unavailable or a remote write fails.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/georgemunganga/milkchain-backend/internal/config"
)

// Keys of the whole-document entries the engine reads and replaces.
const (
	KeyCustomerAssignments = "customerAssignments"
	KeyDailyAllocations    = "dailyAllocations"
	KeyDeliveries          = "deliveries"
	KeyCurrentUser         = "currentUser"
)

// Store is a persisted string key-value store. Writes replace the whole value;
// the last local write wins.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// New opens the store selected by cfg.Driver.
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(cfg.Path)
	case "redis":
		return NewRedisStore(cfg.Redis)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// GetJSON decodes the value at key into v. It reports false, leaving v
// untouched, when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, errors.Wrapf(err, "failed to unmarshal cached %s", key)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s for caching", key)
	}
	return s.Set(ctx, key, string(data))
}
