package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phleb-loss-tracker/internal/domain"
)

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "/data/custom.db", SQLitePath(domain.StorageConfig{SQLitePath: "/data/custom.db", DataDir: "/ignored"}))
	assert.Equal(t, filepath.Join("/var/lib/phleb", DefaultSQLiteFile), SQLitePath(domain.StorageConfig{DataDir: "/var/lib/phleb"}))
	assert.Equal(t, DefaultSQLiteFile, SQLitePath(domain.StorageConfig{}))
}

func TestOpen_Memory(t *testing.T) {
	cfg := &domain.AppConfig{Storage: domain.StorageConfig{Driver: DriverMemory}}

	store, err := Open(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer store.Close()

	_, wrapped := store.(*BreakerStore)
	assert.False(t, wrapped, "local drivers are not wrapped")
	assert.Equal(t, DriverMemory, store.Driver())
}

func TestOpen_SQLiteIsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg := &domain.AppConfig{Storage: domain.StorageConfig{DataDir: dir}}

	store, err := Open(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, DriverSQLite, store.Driver())
	assert.FileExists(t, filepath.Join(dir, DefaultSQLiteFile))
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &domain.AppConfig{Storage: domain.StorageConfig{Driver: "floppy"}}

	_, err := Open(context.Background(), cfg, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported storage driver "floppy"`)
}

func TestOpen_S3MissingBucket(t *testing.T) {
	cfg := &domain.AppConfig{Storage: domain.StorageConfig{Driver: DriverS3}}

	_, err := Open(context.Background(), cfg, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening s3 store")
}
