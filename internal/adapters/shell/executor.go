// Package shell provides the process executor adapter.
package shell

import (
	"context"
	"errors"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// waitDelay bounds how long a cancelled process may keep its output pipes open.
const waitDelay = 5 * time.Second

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Execute runs the node's action in its working directory and echoes the command line to the logger.
// Output directories are created first. The process environment is the system environment
// overridden by the action's entries.
func (e *Executor) Execute(ctx context.Context, node *domain.Node, stdout, stderr io.Writer) error {
	argv := node.Action.Argv
	if len(argv) == 0 {
		return nil
	}

	if err := prepareOutputs(node); err != nil {
		return &domain.ActionError{Node: node.ID.String(), ExitCode: -1, Err: err}
	}

	name := argv[0]
	cmdEnv := resolveEnvironment(os.Environ(), node.Action.Env)

	// Resolve the executable path using the new environment's PATH
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // user provided command
	// Restore the original command name in Args[0]
	cmd.Args[0] = name
	cmd.Dir = node.Action.Dir
	cmd.Env = cmdEnv
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	e.logger.Info(strings.Join(argv, " "))

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &domain.ActionError{Node: node.ID.String(), ExitCode: exitCode, Err: err}
	}

	return nil
}

// prepareOutputs creates the parent directories of the node's outputs and depfile.
func prepareOutputs(node *domain.Node) error {
	files := node.OutputStrings()
	if node.Action.Depfile != "" {
		files = append(files, node.Action.Depfile)
	}
	for _, file := range files {
		path := filepath.FromSlash(file)
		if !filepath.IsAbs(path) {
			path = filepath.Join(node.Action.Dir, path)
		}
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create output directory"), "path", dir)
		}
	}
	return nil
}

// resolveEnvironment merges the action's entries over the system environment.
// The result is sorted by key.
func resolveEnvironment(sysEnv []string, actionEnv map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(actionEnv))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	maps.Copy(envMap, actionEnv)

	result := make([]string, 0, len(envMap))
	for _, k := range slices.Sorted(maps.Keys(envMap)) {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
