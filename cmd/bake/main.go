// Package main is the entry point for the bake build tool.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/cmd/bake/commands"
	"go.trai.ch/bake/internal/app"
	"go.trai.ch/bake/internal/core/domain"
	_ "go.trai.ch/bake/internal/wiring"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		if err := components.Telemetry.Close(); err != nil {
			components.Logger.Warn("failed to close telemetry: " + err.Error())
		}
	}()

	// 2. Interface - CLI
	cli := commands.New(components)
	cli.SetArgs(args)
	cli.SetOutput(stdout)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		// The report has already described a failed build.
		if errors.Is(err, domain.ErrBuildFailed) {
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
