package domain

import (
	"context"
)

// Calculator turns a catalog and a patient state into a report
type Calculator interface {
	Compute(ctx context.Context, cfg *Config, state *State) *Report
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *AppConfig
	GetServerConfig() *ServerConfig
	GetStorageConfig() *StorageConfig
	GetDatabaseConfig() *DatabaseConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
}
