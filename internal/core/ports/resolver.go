package ports

// FileResolver defines the interface for expanding path patterns at declaration time.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type FileResolver interface {
	// Expand resolves glob patterns and literal paths to the sorted, deduplicated set of
	// existing files, as slash-separated paths relative to root.
	Expand(root string, patterns []string) ([]string, error)

	// ExpandDirs is Expand for directories.
	ExpandDirs(root string, patterns []string) ([]string, error)
}
