package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/bake/internal/app"
)

type buildFlags struct {
	jobs        int
	failFast    bool
	force       bool
	dryRun      bool
	metricsFile string
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "Maximum number of concurrent actions (default: number of CPUs)")
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "Stop starting new actions after the first failure")
	cmd.Flags().BoolVar(&f.force, "force", false, "Rebuild every target regardless of recorded signatures")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the commands that would run without running them")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write build metrics in Prometheus text format to this file")
}

func (c *CLI) buildOptions(f *buildFlags, targets []string) app.BuildOptions {
	return app.BuildOptions{
		LoadOptions: c.loadOptions(),
		Targets:     targets,
		Jobs:        f.jobs,
		FailFast:    f.failFast,
		Force:       f.force,
		DryRun:      f.dryRun,
		MetricsFile: f.metricsFile,
	}
}

func (c *CLI) newBuildCmd() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Bring targets up to date",
		Long:  "Build the given targets and their dependencies, or every target when none are given.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.app.Build(cmd.Context(), c.buildOptions(&flags, args))
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Rebuild targets whenever a source file changes",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), c.buildOptions(&flags, args))
		},
	}
	flags.register(cmd)
	return cmd
}
