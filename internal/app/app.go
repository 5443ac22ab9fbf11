// Package app implements the application layer for bake.
package app

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/project"
	"go.trai.ch/bake/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	resolver     ports.FileResolver
	toolchain    ports.Toolchain
	scheduler    *scheduler.Scheduler
	reporter     ports.Reporter
	metrics      ports.Metrics
	store        ports.SignatureStore
	watcher      ports.Watcher
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	resolver ports.FileResolver,
	toolchain ports.Toolchain,
	sched *scheduler.Scheduler,
	reporter ports.Reporter,
	metrics ports.Metrics,
	store ports.SignatureStore,
	watcher ports.Watcher,
	logger ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		resolver:     resolver,
		toolchain:    toolchain,
		scheduler:    sched,
		reporter:     reporter,
		metrics:      metrics,
		store:        store,
		watcher:      watcher,
		logger:       logger,
	}
}

// LoadOptions selects the project file and the options it is evaluated with.
type LoadOptions struct {
	// File is a project file or a directory to search upward from. Empty means the working directory.
	File     string
	Profiles []string
	// Options are key=value pairs.
	Options []string
}

// Load reads the project file and declares its environments and targets.
// The project root is the directory holding the project file.
func (a *App) Load(opts LoadOptions) (*project.Project, *domain.Description, error) {
	options, err := domain.ParseOptions(opts.Profiles, opts.Options)
	if err != nil {
		return nil, nil, err
	}

	desc, err := a.configLoader.Load(cmp.Or(opts.File, "."), options)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load project file")
	}

	p := project.New(filepath.Dir(desc.Path), a.resolver, a.toolchain)
	if err := p.Evaluate(desc, options); err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to evaluate project file"), "file", desc.Path)
	}
	return p, desc, nil
}

// BuildOptions configures a build.
type BuildOptions struct {
	LoadOptions
	// Targets restricts the build to these node IDs and their dependencies.
	Targets     []string
	Jobs        int
	FailFast    bool
	Force       bool
	DryRun      bool
	MetricsFile string
}

// Build loads the project and brings the selected targets up to date.
// A failed verdict is returned as domain.ErrBuildFailed after the report has been printed.
func (a *App) Build(ctx context.Context, opts BuildOptions) (*domain.Report, error) {
	p, _, err := a.Load(opts.LoadOptions)
	if err != nil {
		return nil, err
	}
	return a.build(ctx, p, opts)
}

func (a *App) build(ctx context.Context, p *project.Project, opts BuildOptions) (*domain.Report, error) {
	start := time.Now()
	report, runErr := a.scheduler.Run(ctx, p.Graph(), scheduler.Options{
		Targets:     opts.Targets,
		Parallelism: opts.Jobs,
		FailFast:    opts.FailFast,
		Force:       opts.Force,
		DryRun:      opts.DryRun,
	})
	if report == nil {
		return nil, runErr
	}

	a.metrics.ObserveBuild(report.Verdict, time.Since(start))
	if err := a.metrics.Flush(opts.MetricsFile); err != nil {
		a.logger.Warn(fmt.Sprintf("metrics not written: %v", err))
	}
	if err := a.reporter.Report(report); err != nil {
		return report, zerr.Wrap(err, "failed to print report")
	}

	if runErr != nil {
		return report, runErr
	}
	if !report.Succeeded() {
		err := zerr.With(zerr.Wrap(domain.ErrBuildFailed, "build failed"), "failed", len(report.Failed))
		return report, zerr.With(err, "skipped", len(report.Skipped))
	}
	return report, nil
}
