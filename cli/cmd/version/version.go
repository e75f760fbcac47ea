package version

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/limitedeportes/panel/cli/cmd"
	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/cli/tui/components"
	"github.com/limitedeportes/panel/cli/tui/styles"
	"github.com/limitedeportes/panel/pkg/version"
)

// NewCommand creates the version command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the panel version",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{}, cmd.ModeHandlers{
				JSON: func(_ context.Context, c *cobra.Command, _ *cmd.CommandExecutor, _ []string) error {
					return helpers.CommandOutput(c).WriteJSON(version.Get())
				},
				TUI: func(_ context.Context, c *cobra.Command, _ *cmd.CommandExecutor, _ []string) error {
					info := version.Get()
					fmt.Fprintln(c.OutOrStdout(), components.RenderBanner("panel", helpers.TerminalWidth()))
					fmt.Fprintln(c.OutOrStdout(), styles.SubtleStyle.Render(fmt.Sprintf("%s %s %s", info.Version, info.CommitHash, info.Go)))
					return nil
				},
			}, args)
		},
	}
}
