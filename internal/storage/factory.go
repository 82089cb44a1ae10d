package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/phleb-loss-tracker/internal/database"
	"github.com/phleb-loss-tracker/internal/domain"
)

// DefaultSQLiteFile is the database file created under the data dir when no
// explicit sqlite path is configured.
const DefaultSQLiteFile = "phleb.db"

// SQLitePath resolves the sqlite database location for cfg.
func SQLitePath(cfg domain.StorageConfig) string {
	if cfg.SQLitePath != "" {
		return cfg.SQLitePath
	}
	dir := cfg.DataDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, DefaultSQLiteFile)
}

// Open builds the store selected by cfg.Storage.Driver. Remote drivers are
// wrapped in a circuit breaker.
func Open(ctx context.Context, cfg *domain.AppConfig, logger *logrus.Logger) (Store, error) {
	if logger == nil {
		logger = logrus.New()
	}

	driver := cfg.Storage.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var (
		store Store
		err   error
	)
	switch driver {
	case DriverMemory:
		store = NewMemoryStore()
	case DriverSQLite:
		store, err = NewSQLiteStore(SQLitePath(cfg.Storage))
	case DriverPostgres:
		store, err = openPostgres(ctx, cfg.Database, logger)
	case DriverRedis:
		store, err = NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.KeyPrefix)
	case DriverS3:
		store, err = NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", driver, err)
	}

	logger.WithFields(logrus.Fields{
		"driver": driver,
	}).Info("Storage opened")

	if isRemote(driver) {
		return NewBreakerStore(store, BreakerSettings{
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
		}, logger), nil
	}
	return store, nil
}

func isRemote(driver string) bool {
	return driver == DriverPostgres || driver == DriverRedis || driver == DriverS3
}

// openPostgres connects the pool, applies migrations when enabled and
// returns a store that closes the pool with it.
func openPostgres(ctx context.Context, cfg domain.DatabaseConfig, logger *logrus.Logger) (Store, error) {
	db, err := database.NewConnection(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := migrateUp(database.URL(cfg), logger); err != nil {
			db.Close()
			return nil, err
		}
	}

	store, err := NewPostgresStoreFromPool(ctx, db.Pool)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &pooledStore{Store: store, db: db}, nil
}

func migrateUp(databaseURL string, logger *logrus.Logger) error {
	runner, err := database.NewMigrationRunner(databaseURL, logger)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Up()
}

// pooledStore closes the pgx pool after the store.
type pooledStore struct {
	Store
	db *database.DB
}

func (s *pooledStore) Close() error {
	err := s.Store.Close()
	s.db.Close()
	return err
}
