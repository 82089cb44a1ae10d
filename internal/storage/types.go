// Package storage persists the catalog and patient state as opaque JSON
// blobs in a key-value store. Several drivers are available; the remote ones
// are guarded by a circuit breaker.
package storage

import (
	"context"
	"errors"
)

// Keys under which the two blobs are stored.
const (
	ConfigKey = "phleb_config_v1"
	StateKey  = "phleb_state_v1"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("blob not found")

	// ErrInvalidState is returned when an imported state has the wrong shape.
	ErrInvalidState = errors.New("invalid state")
)

// Store defines the interface for blob storage operations.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Driver names the backing implementation.
	Driver() string

	// Close closes the store and releases resources.
	Close() error
}
