package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptero-astro/ptero/internal/cli/output"
	"github.com/ptero-astro/ptero/internal/mirror"
)

// NewMirrorCommand creates the mirror command group.
func NewMirrorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Manage a local copy of the shock-model database",
		Long: `Create and fill a database with the same schema as the public 3MdB
server, so requests can run offline. The configured source (sqlite or
postgres) is used as the mirror.`,
	}
	cmd.AddCommand(newMirrorInitCommand(), newMirrorLoadCommand(), newMirrorHistoryCommand())
	return cmd
}

func newMirrorInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the mirror schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup := NewCommandContext(cmd)
			defer cleanup()

			adp, err := cmdCtx.Engine.Adapter(cmd.Context())
			if err != nil {
				return err
			}
			if err := mirror.Migrate(cmd.Context(), adp); err != nil {
				return err
			}
			v, err := mirror.Version(cmd.Context(), adp)
			if err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Mirror schema at version %d", v))
			return nil
		},
	}
}

func newMirrorLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <dir>",
		Short: "Load table exports (abundances, shock_params, emis_VI, emis_IR) from CSV",
		Example: `  ptero mirror load exports/3mdb-2024
  ptero --source sqlite --db-path 3mdb.db mirror load exports/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup := NewCommandContext(cmd)
			defer cleanup()

			adp, err := cmdCtx.Engine.Adapter(cmd.Context())
			if err != nil {
				return err
			}
			if err := mirror.Migrate(cmd.Context(), adp); err != nil {
				return err
			}
			report, err := mirror.Load(cmd.Context(), adp, args[0], cmdCtx.Logger)
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(report)
			}
			r.Success(fmt.Sprintf("Loaded %s", report.Source))
			r.Println(output.FormatKeyValue("Load", report.ID))
			r.Println(output.FormatKeyValue("Models", strconv.Itoa(report.Models)))
			return nil
		},
	}
}

func newMirrorHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List previous loads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup := NewCommandContext(cmd)
			defer cleanup()

			adp, err := cmdCtx.Engine.Adapter(cmd.Context())
			if err != nil {
				return err
			}
			loads, err := mirror.History(cmd.Context(), adp)
			if err != nil {
				return err
			}
			rows := make([][]string, len(loads))
			for i, l := range loads {
				rows[i] = []string{l.ID, l.Source, l.LoadedAt.Format(time.RFC3339), strconv.Itoa(l.Models)}
			}
			return cmdCtx.Renderer.Table([]string{"id", "source", "loaded_at", "models"}, rows)
		},
	}
}
