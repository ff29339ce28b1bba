// Package database holds the persistent key-value stores that keep the
// session token and the serialized user profile between runs.
package database

import (
	"context"
	"fmt"
	"io"

	"github.com/ds124wfegd/eventhive/config"
	"github.com/ds124wfegd/eventhive/pkg/postgres"
	"github.com/ds124wfegd/eventhive/pkg/redis"
)

type Store interface {
	// Get returns ok=false when the key was never written or was cleared.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Clear drops every key of the namespace (logout).
	Clear(ctx context.Context) error
}

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Open builds the store selected by cfg.Store.Driver. The returned closer
// releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config) (Store, io.Closer, error) {
	switch cfg.Store.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), io.NopCloser(nil), nil

	case DriverRedis:
		client, err := redis.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, cfg.Store.Namespace), client, nil

	case DriverPostgres:
		db, err := postgres.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return NewPostgresStore(db, cfg.Store.Namespace), db, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
