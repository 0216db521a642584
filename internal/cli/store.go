package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aretw0/deepstock/internal/config"
	"github.com/aretw0/deepstock/pkg/adapters/file"
	"github.com/aretw0/deepstock/pkg/adapters/memory"
	"github.com/aretw0/deepstock/pkg/adapters/redis"
	"github.com/aretw0/deepstock/pkg/adapters/sqlite"
	"github.com/aretw0/deepstock/pkg/persistence/middleware"
	"github.com/aretw0/deepstock/pkg/ports"
)

// SQLiteFile is the database name used inside store.path for the sqlite backend.
const SQLiteFile = "secrets.db"

// OpenStore builds the configured secret store backend, wrapped with
// encryption when store.encryption_key is set. The returned close function
// releases backend connections and is never nil.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.SecretStore, func() error, error) {
	noop := func() error { return nil }

	var (
		store   ports.SecretStore
		closeFn = noop
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		store = memory.NewStore()

	case config.BackendFile:
		store = file.New(cfg.Store.Path)

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, filepath.Join(cfg.Store.Path, SQLiteFile))
		if err != nil {
			return nil, noop, err
		}
		store, closeFn = db, db.Close

	case config.BackendRedis:
		rdb := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
			redis.WithPrefix(cfg.Store.Prefix),
		)
		if err := rdb.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis unreachable at %s: %w", cfg.Store.Redis.Addr, err)
		}
		store, closeFn = rdb, rdb.Close

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	key, err := cfg.EncryptionKey()
	if err != nil {
		_ = closeFn()
		return nil, noop, err
	}
	if key != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = closeFn()
			return nil, noop, err
		}
		store = middleware.Wrap(store, enc)
	}

	return store, closeFn, nil
}
