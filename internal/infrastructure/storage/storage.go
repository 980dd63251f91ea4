// Package storage opens the blob store selected by STORAGE_DRIVER.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/dresscode/config"
	"github.com/oksasatya/dresscode/internal/domain/repository"
	"github.com/oksasatya/dresscode/internal/infrastructure/localstore"
	pginfra "github.com/oksasatya/dresscode/internal/infrastructure/postgres"
	"github.com/oksasatya/dresscode/internal/infrastructure/redisstore"
	"github.com/oksasatya/dresscode/pkg/helpers"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Backend is an opened blob store plus the clients it holds. Redis and Pool
// are nil unless the driver needs them.
type Backend struct {
	Store  repository.BlobStore
	Redis  *redis.Client
	Pool   *pgxpool.Pool
	closer []func()
}

func (b *Backend) Close() {
	for i := len(b.closer) - 1; i >= 0; i-- {
		b.closer[i]()
	}
}

// Open builds the backend for cfg.StorageDriver. The postgres driver runs
// migrations before returning.
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Backend, error) {
	b := &Backend{}
	switch cfg.StorageDriver {
	case config.StorageMemory:
		b.Store = localstore.NewMemoryStore()
	case config.StorageFile:
		fs, err := localstore.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("file store: %w", err)
		}
		b.Store = fs
	case config.StorageRedis:
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		b.closer = append(b.closer, func() { _ = rdb.Close() })
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			b.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		b.Redis = rdb
		b.Store = redisstore.New(rdb, cfg.AppName)
	case config.StoragePostgres:
		pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
			DSN:         cfg.PostgresDSN(),
			AppName:     cfg.AppName,
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.closer = append(b.closer, pool.Close)
		if err := RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			b.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		b.Pool = pool
		b.Store = pginfra.NewBlobStore(pool)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StorageDriver)
	}
	logger.WithField("driver", cfg.StorageDriver).Info("user storage ready")
	return b, nil
}

// RunMigrations applies db/migrations through database/sql with pgx stdlib.
func RunMigrations(dsn, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
