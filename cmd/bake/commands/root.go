// Package commands implements the CLI commands for the bake build tool.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/bake/internal/adapters/logger" //nolint:depguard // Output format is configured by the CLI
	"go.trai.ch/bake/internal/app"
	"go.trai.ch/bake/internal/build"
	"go.trai.ch/zerr"
)

type formatter interface {
	SetFormat(format logger.Format) error
}

type jsonReporter interface {
	SetJSON(enabled bool)
}

// CLI represents the command line interface for bake.
type CLI struct {
	app        *app.App
	components *app.Components
	rootCmd    *cobra.Command

	file      string
	profiles  []string
	options   []string
	logFormat string
}

// New creates a new CLI instance for the resolved components.
func New(c *app.Components) *CLI {
	rootCmd := &cobra.Command{
		Use:           "bake",
		Short:         "An incremental build tool for C projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	cli := &CLI{
		app:        c.App,
		components: c,
		rootCmd:    rootCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cli.file, "file", "f", "", "Project file, or a directory to search upward from")
	flags.StringArrayVar(&cli.profiles, "profile", nil, "Enable a build profile (repeatable)")
	flags.StringArrayVar(&cli.options, "option", nil, "Set a build option as key=value (repeatable)")
	flags.StringVar(&cli.logFormat, "log-format", string(logger.FormatPretty), "Log format: pretty or json")

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return cli.configureOutput()
	}

	rootCmd.AddCommand(cli.newBuildCmd())
	rootCmd.AddCommand(cli.newCleanCmd())
	rootCmd.AddCommand(cli.newGraphCmd())
	rootCmd.AddCommand(cli.newWatchCmd())
	rootCmd.AddCommand(cli.newVersionCmd())

	return cli
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

// configureOutput applies --log-format to the logger and the build report.
func (c *CLI) configureOutput() error {
	format := logger.Format(c.logFormat)
	if f, ok := c.components.Logger.(formatter); ok {
		if err := f.SetFormat(format); err != nil {
			return err
		}
	} else if format != logger.FormatPretty && format != logger.FormatJSON {
		return zerr.With(zerr.New("unknown log format"), "format", c.logFormat)
	}
	if r, ok := c.components.Reporter.(jsonReporter); ok {
		r.SetJSON(format == logger.FormatJSON)
	}
	return nil
}

func (c *CLI) loadOptions() app.LoadOptions {
	return app.LoadOptions{
		File:     c.file,
		Profiles: c.profiles,
		Options:  c.options,
	}
}
