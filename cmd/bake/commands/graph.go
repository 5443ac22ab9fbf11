package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/bake/internal/app"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	var dot bool
	cmd := &cobra.Command{
		Use:   "graph [targets...]",
		Short: "Print the target graph in build order",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Graph(cmd.OutOrStdout(), app.GraphOptions{
				LoadOptions: c.loadOptions(),
				Targets:     args,
				DOT:         dot,
			})
		},
	}
	cmd.Flags().BoolVar(&dot, "dot", false, "Print the graph in Graphviz DOT format")
	return cmd
}
