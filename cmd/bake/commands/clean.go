package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/bake/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Clean(cmd.Context(), app.CleanOptions{LoadOptions: c.loadOptions(), All: all})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also forget recorded signatures")
	return cmd
}
