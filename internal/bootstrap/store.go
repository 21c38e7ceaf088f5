package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kec/eventhub/config"
	"github.com/kec/eventhub/internal/adapters/memstore"
	"github.com/kec/eventhub/internal/adapters/postgres"
	redisstore "github.com/kec/eventhub/internal/adapters/redis"
	"github.com/kec/eventhub/internal/ports"
)

// SessionStoreDeps groups what BuildSessionStore needs.
type SessionStoreDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// SessionStore is the key-value store backing session persistence plus
// whatever connection it holds open.
type SessionStore struct {
	Store  ports.KeyValueStore
	Closer io.Closer // nil for the memory driver
}

// Close releases the underlying connection.
func (s SessionStore) Close() error {
	if s.Closer == nil {
		return nil
	}
	return s.Closer.Close()
}

// BuildSessionStore opens the store selected by STORAGE_DRIVER.
func BuildSessionStore(ctx context.Context, deps SessionStoreDeps) (SessionStore, error) {
	if deps.Config == nil {
		return SessionStore{}, errors.New("session store config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	switch cfg.Storage.Driver {
	case config.StorageRedis:
		client, err := ConnectRedis(ctx, dbCfg)
		if err != nil {
			return SessionStore{}, fmt.Errorf("connect redis: %w", err)
		}
		return SessionStore{Store: redisstore.NewSessionStore(client, cfg.Storage.TTL), Closer: client}, nil

	case config.StoragePostgres:
		db, err := ConnectDB(ctx, dbCfg)
		if err != nil {
			return SessionStore{}, fmt.Errorf("connect db: %w", err)
		}
		store := postgres.NewSessionStore(db)
		if cfg.Postgres.EnsureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				return SessionStore{}, errors.Join(err, db.Close())
			}
		}
		return SessionStore{Store: store, Closer: db}, nil

	case config.StorageMemory, "":
		logger.WarnContext(ctx, "session storage is in memory; sessions will not survive restarts")
		return SessionStore{Store: memstore.New()}, nil

	default:
		return SessionStore{}, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
