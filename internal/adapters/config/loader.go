// Package config loads project files into build descriptions.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// Decoder turns the contents of a project file into a description.
type Decoder interface {
	Decode(path string, data []byte, opts domain.Options) (*domain.Description, error)
}

var decoders = map[string]Decoder{
	".yaml": YAMLLoader{},
	".yml":  YAMLLoader{},
	".toml": TOMLLoader{},
	".hcl":  HCLLoader{},
}

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader, choosing the decoder by file extension.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the project file at path, or the one found from the directory path upward.
func (l *Loader) Load(path string, opts domain.Options) (*domain.Description, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "project file not found"), "path", abs)
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", abs)
	}

	file := abs
	if info.IsDir() {
		file, err = l.Find(abs)
		if err != nil {
			return nil, err
		}
	}

	dec, ok := decoders[strings.ToLower(filepath.Ext(file))]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedConfigFormat, "unsupported project file"), "file", file)
	}

	data, err := os.ReadFile(file) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "file", file)
	}
	return dec.Decode(file, data, opts)
}

// Find searches dir and its parents for a project file.
// Within one directory the first name of domain.ProjectFileNames wins.
func (l *Loader) Find(dir string) (string, error) {
	for current := dir; ; {
		var found []string
		for _, name := range domain.ProjectFileNames() {
			candidate := filepath.Join(current, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				found = append(found, candidate)
			}
		}
		if len(found) > 0 {
			if len(found) > 1 && l.logger != nil {
				l.logger.Warn(fmt.Sprintf("multiple project files in %s, using %s", current, filepath.Base(found[0])))
			}
			return found[0], nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no project file found"), "cwd", dir)
		}
		current = parent
	}
}
