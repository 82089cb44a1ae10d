package catalog

import "github.com/phleb-loss-tracker/internal/domain"

// Default returns a fresh copy of the built-in catalog.
func Default() *domain.Config {
	return defaultConfig.Clone()
}
