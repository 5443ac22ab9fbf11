package ports

import "go.trai.ch/bake/internal/core/domain"

// ConfigLoader defines the interface for loading the project description.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load decodes the project file at path. When path is a directory the project
	// file is searched for in it and its parents.
	// Options are visible to expression-capable formats.
	Load(path string, opts domain.Options) (*domain.Description, error)
}
