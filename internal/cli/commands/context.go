// Package commands implements the ptero subcommands.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ptero-astro/ptero/internal/cli/config"
	"github.com/ptero-astro/ptero/internal/cli/output"
	"github.com/ptero-astro/ptero/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
// The engine only connects to the model database when a command first needs it.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func()) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cmdCtx.Engine = createEngine(cmdCtx.Cfg, cmdCtx.Logger)

	cleanup := func() {
		_ = cmdCtx.Engine.Close()
	}
	return cmdCtx, cleanup
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only read local files.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

func createEngine(cfg *config.Config, logger *slog.Logger) *engine.Engine {
	return engine.New(engine.Config{
		AdapterConfig: cfg.Source.ToAdapterConfig(),
		Reference:     cfg.Reference,
		Timeout:       cfg.Source.Timeout,
		Logger:        logger,
	})
}
