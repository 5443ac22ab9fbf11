package domain

import "path/filepath"

const (
	// BakeDirName is the name of the internal state directory.
	BakeDirName = ".bake"

	// StoreDirName is the name of the signature store directory.
	StoreDirName = "store"

	// YAMLFileName is the default YAML project file.
	YAMLFileName = "bake.yaml"

	// TOMLFileName is the TOML project file.
	TOMLFileName = "bake.toml"

	// HCLFileName is the HCL project file.
	HCLFileName = "bake.hcl"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// ProjectFileNames lists the project file names in discovery order.
func ProjectFileNames() []string {
	return []string{YAMLFileName, TOMLFileName, HCLFileName}
}

// DefaultBakePath returns the default root directory for bake metadata.
func DefaultBakePath() string {
	return BakeDirName
}

// DefaultStorePath returns the default path for the signature store.
// It joins .bake and store.
func DefaultStorePath() string {
	return filepath.Join(BakeDirName, StoreDirName)
}
