package config

import (
	"github.com/pelletier/go-toml"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
)

// TOMLLoader decodes bake.toml project files.
type TOMLLoader struct{}

// Decode parses data as TOML.
func (TOMLLoader) Decode(path string, data []byte, _ domain.Options) (*domain.Description, error) {
	var file ProjectFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "file", path)
	}
	return file.description(path)
}
