package commands

import (
	"github.com/spf13/cobra"

	"github.com/ptero-astro/ptero/internal/diagnostic"
	"github.com/ptero-astro/ptero/internal/emission"
	"github.com/ptero-astro/ptero/internal/query"
)

// NewLinesCommand creates the lines command.
func NewLinesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lines [table]",
		Short: "List the lines and quantities an axis can use",
		Long: `List axis choices.

With a table argument, print the table's emission lines in spectroscopic
order followed by the derived quantities. Without one, print the line names
and quantities the model database understands.`,
		Example: `  ptero lines grid.tsv
  ptero lines -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLines(cmd, args)
		},
	}
}

func runLines(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	var rows [][]string
	if len(args) == 1 {
		table, err := loadTable(args[0], cmdCtx.Cfg.TablesDir)
		if err != nil {
			return err
		}
		for _, label := range emission.SortLines(table.Labels()) {
			rows = append(rows, []string{label, "line"})
		}
		for _, q := range diagnostic.Quantities() {
			rows = append(rows, []string{q, "quantity"})
		}
	} else {
		for _, name := range query.Lines() {
			rows = append(rows, []string{name, "line"})
		}
		for _, q := range query.Quantities() {
			rows = append(rows, []string{q, "quantity"})
		}
	}
	return cmdCtx.Renderer.Table([]string{"name", "kind"}, rows)
}
