package commands_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/cmd/bake/commands"
	"go.trai.ch/bake/internal/adapters/cas"
	"go.trai.ch/bake/internal/adapters/config"
	"go.trai.ch/bake/internal/adapters/fs"
	"go.trai.ch/bake/internal/adapters/logger"
	"go.trai.ch/bake/internal/adapters/metrics"
	"go.trai.ch/bake/internal/adapters/report"
	"go.trai.ch/bake/internal/adapters/shell"
	"go.trai.ch/bake/internal/adapters/telemetry"
	"go.trai.ch/bake/internal/adapters/toolchain"
	"go.trai.ch/bake/internal/adapters/watcher"
	"go.trai.ch/bake/internal/app"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/engine/scheduler"
	"go.trai.ch/bake/internal/engine/signature"
)

const projectFile = `environments:
  - name: base
    build_root: build
    variants:
      - when: {profile: [loud]}
        vars:
          CPPDEFINES: [LOUD]

targets:
  - kind: command
    name: greeting
    outputs: [build/greeting.txt]
    cmd: ["sh", "-c", "echo hello > ${TARGET}"]
  - kind: command
    name: shout
    sources: [greeting]
    cmd: ["echo", "-D${CPPDEFINES}"]
`

type harness struct {
	cli    *commands.CLI
	root   string
	out    *bytes.Buffer
	report *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bake.yaml"), []byte(projectFile), 0o600))

	log := logger.New()
	log.SetOutput(io.Discard)

	walker := fs.NewWalker()
	rec := metrics.NewRecorder()
	tracker := signature.NewTracker(cas.NewStore(), fs.NewHasher(walker), fs.NewVerifier(), log)
	sched := scheduler.NewScheduler(shell.NewExecutor(log), tracker, telemetry.Noop{}, rec, log)

	var reportBuf bytes.Buffer
	printer := report.NewPrinter(&reportBuf)
	printer.DisableColor()

	a := app.New(config.NewLoader(log), fs.NewResolver(), toolchain.New(), sched, printer, rec,
		cas.NewStore(), watcher.NewWatcher(walker, log, watcher.DefaultDebounceWindow), log)

	cli := commands.New(&app.Components{App: a, Logger: log, Reporter: printer, Telemetry: telemetry.Noop{}})
	var out bytes.Buffer
	cli.SetOutput(&out)
	return &harness{cli: cli, root: root, out: &out, report: &reportBuf}
}

func (h *harness) execute(args ...string) error {
	h.cli.SetArgs(append(args, "--file", h.root))
	return h.cli.Execute(context.Background())
}

func TestBuild(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("build", "--jobs", "1"))
	assert.FileExists(t, filepath.Join(h.root, "build", "greeting.txt"))
	assert.Contains(t, h.report.String(), "Build succeeded: 2 built, 0 up to date")
}

func TestBuild_DryRun(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("build", "--dry-run", "--profile", "loud"))
	assert.NoFileExists(t, filepath.Join(h.root, "build", "greeting.txt"))
	assert.Contains(t, h.report.String(), "    sh -c echo hello > build/greeting.txt\n")
	assert.Contains(t, h.report.String(), "    echo -DLOUD\n")
}

func TestBuild_JSONReport(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("build", "greeting", "--log-format", "json"))
	assert.Contains(t, h.report.String(), `"verdict":"succeeded"`)
}

func TestBuild_UnknownTarget(t *testing.T) {
	h := newHarness(t)

	err := h.execute("build", "nope")
	require.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestBuild_InvalidOption(t *testing.T) {
	h := newHarness(t)

	err := h.execute("build", "--option", "arch")
	require.ErrorIs(t, err, domain.ErrInvalidOption)
}

func TestClean(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("build"))
	require.NoError(t, h.execute("clean", "--all"))
	assert.NoFileExists(t, filepath.Join(h.root, "build", "greeting.txt"))
}

func TestGraph(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("graph"))
	assert.Equal(t, "command  greeting\ncommand  shout\n", h.out.String())
}

func TestGraph_DOT(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("graph", "--dot", "shout"))
	assert.Contains(t, h.out.String(), `"shout" -> "greeting";`)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.execute("version"))
	assert.Equal(t, "bake version dev (commit none, built unknown)\n", h.out.String())
}

func TestInvalidLogFormat(t *testing.T) {
	h := newHarness(t)

	require.Error(t, h.execute("graph", "--log-format", "xml"))
}
