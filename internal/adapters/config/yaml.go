package config

import (
	"bytes"
	"errors"
	"io"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// YAMLLoader decodes bake.yaml project files.
type YAMLLoader struct{}

// Decode parses data as YAML. Unknown fields are rejected and an empty file is an empty project.
func (YAMLLoader) Decode(path string, data []byte, _ domain.Options) (*domain.Description, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file ProjectFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "file", path)
	}
	return file.description(path)
}
