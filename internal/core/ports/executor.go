// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/bake/internal/core/domain"
)

// Executor defines the interface for running a node's action.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the action of the given node, streaming process output to stdout and stderr.
	//
	// A nonzero exit or a process that cannot be started is reported as a *domain.ActionError.
	Execute(ctx context.Context, node *domain.Node, stdout, stderr io.Writer) error
}
