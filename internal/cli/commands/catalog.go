package commands

import (
	"github.com/spf13/cobra"
)

// NewAbundancesCommand creates the abundances command.
func NewAbundancesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "abundances",
		Short: "List the abundance sets with shock models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup := NewCommandContext(cmd)
			defer cleanup()

			names, err := cmdCtx.Engine.Abundances(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(names))
			for i, n := range names {
				rows[i] = []string{n}
			}
			return cmdCtx.Renderer.Table([]string{"abundance"}, rows)
		},
	}
}

// NewDensitiesCommand creates the densities command.
func NewDensitiesCommand() *cobra.Command {
	var abundance string

	cmd := &cobra.Command{
		Use:     "densities",
		Short:   "List the preshock densities modelled for an abundance set",
		Example: `  ptero densities --abundance Allen2008_Solar`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup := NewCommandContext(cmd)
			defer cleanup()

			densities, err := cmdCtx.Engine.Densities(cmd.Context(), abundance)
			if err != nil {
				return err
			}
			rows := make([][]string, len(densities))
			for i, d := range densities {
				rows[i] = []string{formatFloat(d)}
			}
			return cmdCtx.Renderer.Table([]string{"density"}, rows)
		},
	}
	cmd.Flags().StringVar(&abundance, "abundance", "", "Abundance set")
	_ = cmd.MarkFlagRequired("abundance")
	return cmd
}
