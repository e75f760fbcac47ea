package mockserver

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/limitedeportes/panel/cli/cmd"
	"github.com/limitedeportes/panel/engine/mockapi"
	"github.com/limitedeportes/panel/pkg/logger"
)

// NewCommand creates the mock-server command
func NewCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "mock-server",
		Aliases: []string{"mock"},
		Short:   "Run an in-memory backend for development",
		Long: `Serve the users, branches and SMS routes from memory. Data is lost on exit.
Seeded servers start with a few users, branches and SMS records.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{}, cmd.ModeHandlers{
				JSON: run,
				TUI:  run,
			}, args)
		},
	}
	c.Flags().String("addr", "", "Listen address (defaults to mock.addr)")
	c.Flags().Bool("seed", true, "Start with sample data")
	return c
}

func run(ctx context.Context, _ *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
	cfg := e.GetConfig()
	if cfg.Runtime.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv, err := mockapi.New(ctx, cfg.Mock)
	if err != nil {
		return fmt.Errorf("failed to create mock server: %w", err)
	}
	logger.FromContext(ctx).Info("Starting mock backend",
		"addr", cfg.Mock.Addr, "seed", cfg.Mock.Seed, "session_user", cfg.Mock.SessionUser)
	return srv.Run(ctx, cfg.Mock.Addr)
}
