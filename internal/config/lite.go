// This file contains the data directory helpers used for standalone
// operation, where everything lives under one local directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DataDirEnv overrides the default data directory.
const DataDirEnv = "PHLEB_DATA_DIR"

// DefaultDataDir returns $PHLEB_DATA_DIR or ~/.phleb-loss-tracker.
func DefaultDataDir() string {
	if v := os.Getenv(DataDirEnv); v != "" {
		return v
	}
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return ".phleb-loss-tracker"
	}
	return filepath.Join(homeDir, ".phleb-loss-tracker")
}

// DataPaths resolves the files kept under a data directory.
type DataPaths struct {
	Root string
}

// NewDataPaths returns the paths under dir, or under the default data dir
// when dir is empty.
func NewDataPaths(dir string) DataPaths {
	if dir == "" {
		dir = DefaultDataDir()
	}
	return DataPaths{Root: dir}
}

// ExportDir returns the directory for JSON exports.
func (p DataPaths) ExportDir() string {
	return filepath.Join(p.Root, "exports")
}

// ExportPath names a timestamped export file, e.g.
// exports/state-20260113-093000.json.
func (p DataPaths) ExportPath(kind string, now time.Time) string {
	return filepath.Join(p.ExportDir(), fmt.Sprintf("%s-%s.json", kind, now.Format("20060102-150405")))
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (p DataPaths) EnsureDataDir() error {
	if err := os.MkdirAll(p.Root, 0755); err != nil {
		return err
	}
	return os.MkdirAll(p.ExportDir(), 0755)
}
