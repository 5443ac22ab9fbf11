package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrDuplicateTarget is returned when a node is declared with an output identifier that already exists.
	ErrDuplicateTarget = zerr.New("duplicate target")

	// ErrUnresolvedInput is returned when a declaration references an input that is neither a file nor a node.
	ErrUnresolvedInput = zerr.New("unresolved input")

	// ErrEmptyTarget is returned when a library or program declaration resolves to no inputs.
	ErrEmptyTarget = zerr.New("target has no inputs")

	// ErrCyclicDependency is returned when the target graph contains a cycle.
	ErrCyclicDependency = zerr.New("cyclic dependency")

	// ErrActionExecution is returned when a node's action exits nonzero or cannot be launched.
	ErrActionExecution = zerr.New("action execution failed")

	// ErrStorage is returned when the signature store cannot be read or written.
	ErrStorage = zerr.New("signature storage failure")

	// ErrUnknownVariable is returned when a variable key is not part of the recognised key set.
	ErrUnknownVariable = zerr.New("unknown variable")

	// ErrRecursiveVariable is returned when a template variable references itself.
	ErrRecursiveVariable = zerr.New("recursive variable reference")

	// ErrEmptyBuildRoot is returned when an environment is configured without a build root.
	ErrEmptyBuildRoot = zerr.New("environment build root is empty")

	// ErrInvalidPattern is returned when a glob pattern is malformed.
	ErrInvalidPattern = zerr.New("invalid glob pattern")

	// ErrNodeNotFound is returned when a requested node is not present in the graph.
	ErrNodeNotFound = zerr.New("node not found")

	// ErrUnknownEnvironment is returned when a project file references an undeclared environment.
	ErrUnknownEnvironment = zerr.New("unknown environment")

	// ErrDuplicateEnvironment is returned when two environments share a name.
	ErrDuplicateEnvironment = zerr.New("duplicate environment")

	// ErrUnknownTargetKind is returned when a project file declares a target of an unsupported kind.
	ErrUnknownTargetKind = zerr.New("unknown target kind")

	// ErrConfigNotFound is returned when no project file can be found.
	ErrConfigNotFound = zerr.New("could not find a bake project file")

	// ErrConfigReadFailed is returned when the project file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read project file")

	// ErrConfigParseFailed is returned when the project file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse project file")

	// ErrUnsupportedConfigFormat is returned when the project file extension is not recognised.
	ErrUnsupportedConfigFormat = zerr.New("unsupported project file format")

	// ErrInvalidOption is returned when a command-line option is not of the form key=value.
	ErrInvalidOption = zerr.New("invalid option, expected key=value")

	// ErrBuildFailed is returned when the build verdict is Failed.
	ErrBuildFailed = zerr.New("build failed")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrFailedToCleanOutput is returned when removing an output file fails.
	ErrFailedToCleanOutput = zerr.New("failed to clean output file")

	// ErrMetricsWriteFailed is returned when the metrics file cannot be written.
	ErrMetricsWriteFailed = zerr.New("failed to write metrics file")
)

// ActionError describes a node action that exited nonzero or could not be started.
// It matches ErrActionExecution with errors.Is.
type ActionError struct {
	Node     string
	ExitCode int
	Err      error
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: %s exited with code %d", ErrActionExecution.Error(), e.Node, e.ExitCode)
	}
	return fmt.Sprintf("%s: %s: %v", ErrActionExecution.Error(), e.Node, e.Err)
}

// Unwrap returns the underlying process error.
func (e *ActionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrActionExecution.
func (e *ActionError) Is(target error) bool {
	return target == ErrActionExecution
}
