// Package sms holds the SMS log and dispatch commands.
package sms

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/xhit/go-str2duration/v2"

	"github.com/limitedeportes/panel/cli/api"
	"github.com/limitedeportes/panel/cli/cmd"
	"github.com/limitedeportes/panel/cli/cmd/resource"
	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/cli/tui/models"
	"github.com/limitedeportes/panel/cli/tui/styles"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/mutation"
	"github.com/limitedeportes/panel/pkg/logger"
)

const dateLayout = time.DateOnly

// Cmd returns the sms command group.
func Cmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "sms",
		Short: "Send verification codes, read the SMS log and check the package",
	}
	c.AddCommand(logCmd(), sendCmd(), statusCmd())
	return c
}

func logCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "log",
		Short: "List dispatched SMS",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireSession: true}, cmd.ModeHandlers{
				JSON: func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					src, err := logSource(ctx, c, e.GetClient(), time.Now())
					if err != nil {
						return err
					}
					text := strings.TrimSpace(helpers.GetFlagStringWithDefault(c, "search", ""))
					view, err := resource.Collect(ctx, e, item.SMSLog, src, text, helpers.GetFlagIntWithDefault(c, "page", 1))
					if err != nil {
						return err
					}
					return helpers.CommandOutput(c).WriteJSON(resource.NewListOutput(item.SMSLog, view))
				},
				TUI: func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
					src, err := logSource(ctx, c, e.GetClient(), time.Now())
					if err != nil {
						return err
					}
					return e.Browse(ctx, item.SMSLog, src, nil)
				},
			}, args)
		},
	}
	c.Flags().String("user", "", "Only SMS sent by this user name")
	c.Flags().Int("user-id", 0, "Only SMS sent by this user ID")
	c.Flags().String("from", "", "First day, YYYY-MM-DD")
	c.Flags().String("to", "", "Last day, YYYY-MM-DD")
	c.Flags().String("since", "", "Relative first day such as 7d or 1w; overrides --from")
	c.Flags().String("estado", "", "Only SMS in this state")
	resource.AddListFlags(c)
	return c
}

// logFilter reads the log filter flags. now anchors --since.
func logFilter(c *cobra.Command, now time.Time) (api.SMSLogFilter, error) {
	f := api.SMSLogFilter{
		UserID: helpers.GetFlagIntWithDefault(c, "user-id", 0),
		Estado: helpers.GetFlagStringWithDefault(c, "estado", ""),
	}
	var err error
	if v := helpers.GetFlagStringWithDefault(c, "from", ""); v != "" {
		if f.From, err = time.ParseInLocation(dateLayout, v, time.Local); err != nil {
			return f, helpers.UsageError("--from debe tener el formato AAAA-MM-DD", err.Error())
		}
	}
	if v := helpers.GetFlagStringWithDefault(c, "to", ""); v != "" {
		if f.To, err = time.ParseInLocation(dateLayout, v, time.Local); err != nil {
			return f, helpers.UsageError("--to debe tener el formato AAAA-MM-DD", err.Error())
		}
	}
	if v := helpers.GetFlagStringWithDefault(c, "since", ""); v != "" {
		d, err := str2duration.ParseDuration(v)
		if err != nil || d < 0 {
			return f, helpers.UsageError(fmt.Sprintf("--since inválido: %q", v))
		}
		f.From = now.Add(-d)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, helpers.UsageError("--to es anterior a --from")
	}
	return f, nil
}

func logSource(ctx context.Context, c *cobra.Command, client *api.Client, now time.Time) (*api.Resource, error) {
	f, err := logFilter(c, now)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(helpers.GetFlagStringWithDefault(c, "user", "")); name != "" {
		if f.UserID, err = client.ResolveUserID(ctx, name); err != nil {
			return nil, fmt.Errorf("resolve user %q: %w", name, err)
		}
	}
	logger.FromContext(ctx).Debug("sms log filter", "query", f.Query().Encode())
	return client.SMSLog(f), nil
}

// SendOutput is the JSON document printed after a dispatch.
type SendOutput struct {
	Data struct {
		mutation.Result
		Code       string `json:"code"`
		Branch     string `json:"branch"`
		BranchName string `json:"branch_name"`
		Copied     bool   `json:"copied,omitempty"`
	} `json:"data"`
}

func sendCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "send",
		Short: "Send a verification code to a customer",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			handler := func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
				return runSend(ctx, c, e)
			}
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireSession: true}, cmd.ModeHandlers{
				JSON: handler,
				TUI:  handler,
			}, args)
		},
	}
	c.Flags().String("dni", "", "Customer DNI, 8 digits")
	c.Flags().String("phone", "", "Mobile number, 10 digits")
	c.Flags().String("branch", "", "Branch code, 3 digits")
	c.Flags().String("code", "", "Verification code; generated when empty")
	c.Flags().Bool("copy", false, "Copy the code to the clipboard")
	return c
}

func runSend(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor) error {
	if err := helpers.RequireFlags(c, "dni", "phone", "branch"); err != nil {
		return err
	}
	code := strings.TrimSpace(helpers.GetFlagStringWithDefault(c, "code", ""))
	if code == "" {
		var err error
		if code, err = GenerateCode(); err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
	}
	branch := strings.TrimSpace(helpers.GetFlagStringWithDefault(c, "branch", ""))
	client := e.GetClient()

	directory, err := api.NewBranchDirectory(client.Branches(), 0)
	if err != nil {
		return err
	}
	branchName, err := directory.Name(ctx, branch)
	if err != nil {
		return fmt.Errorf("sucursal %s: %w", branch, err)
	}

	coord := e.Coordinator(ctx, item.SMSDispatch, client.SMSDispatch(), nil)
	res, err := coord.Submit(ctx, map[string]string{
		"personId":         helpers.GetFlagStringWithDefault(c, "dni", ""),
		"phoneNumber":      helpers.GetFlagStringWithDefault(c, "phone", ""),
		"merchantCode":     branch,
		"verificationCode": code,
	})
	if err != nil {
		return err
	}

	var out SendOutput
	out.Data.Result = res
	out.Data.Code = code
	out.Data.Branch = branch
	out.Data.BranchName = branchName
	if helpers.GetFlagBoolWithDefault(c, "copy", false) {
		if err := clipboard.WriteAll(code); err != nil {
			logger.FromContext(ctx).Warn("failed to copy code to clipboard", "error", err)
		} else {
			out.Data.Copied = true
		}
	}
	if e.GetMode() == models.ModeJSON {
		return helpers.CommandOutput(c).WriteJSON(out)
	}
	fmt.Fprintf(c.OutOrStdout(), "%s %s\n",
		styles.RenderTitle("Código "+code),
		styles.SubtleStyle.Render(fmt.Sprintf("enviado al %s desde %s (%s)",
			helpers.GetFlagStringWithDefault(c, "phone", ""), branchName, branch)),
	)
	return nil
}

// GenerateCode returns a random 4 digit verification code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
