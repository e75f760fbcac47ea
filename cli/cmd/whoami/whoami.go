package whoami

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/limitedeportes/panel/cli/cmd"
	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/cli/tui/styles"
)

// Output is the JSON document printed by whoami.
type Output struct {
	User    string `json:"user"`
	Role    string `json:"role,omitempty"`
	BaseURL string `json:"base_url"`
}

// NewCommand creates the whoami command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the session identity",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireSession: true}, cmd.ModeHandlers{
				JSON: func(_ context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					return helpers.CommandOutput(c).WriteJSON(current(e))
				},
				TUI: func(_ context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					out := current(e)
					line := "👤 " + styles.RenderTitle(out.User)
					if out.Role != "" {
						line += " " + styles.SubtleStyle.Render("("+out.Role+")")
					}
					fmt.Fprintln(c.OutOrStdout(), line)
					fmt.Fprintln(c.OutOrStdout(), styles.SubtleStyle.Render(out.BaseURL))
					return nil
				},
			}, args)
		},
	}
}

func current(e *cmd.CommandExecutor) Output {
	s := e.GetSession()
	return Output{User: s.Identity(), Role: s.Role(), BaseURL: e.GetClient().BaseURL()}
}
