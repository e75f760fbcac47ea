package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/limitedeportes/panel/cli/api"
	"github.com/limitedeportes/panel/cli/cmd"
	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/cli/tui/models"
	"github.com/limitedeportes/panel/cli/tui/styles"
	"github.com/limitedeportes/panel/engine/notify"
	"github.com/limitedeportes/panel/pkg/logger"
)

// StatusOutput is the JSON document printed by `sms status`.
type StatusOutput struct {
	Data StatusData `json:"data"`
}

// StatusData describes the prepaid SMS package. DaysLeft is omitted when
// the expiry date could not be read.
type StatusData struct {
	Balance   string          `json:"balance"`
	Expiry    string          `json:"expiry"`
	DaysLeft  *int            `json:"days_left,omitempty"`
	State     api.ExpiryState `json:"state"`
	Simulated bool            `json:"simulated"`
	Message   string          `json:"message"`
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the SMS balance and package expiry",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			handler := func(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, _ []string) error {
				return runStatus(ctx, c, e, time.Now())
			}
			return cmd.ExecuteCommand(c, cmd.ExecutorOptions{RequireSession: true}, cmd.ModeHandlers{
				JSON: handler,
				TUI:  handler,
			}, args)
		},
	}
}

func runStatus(ctx context.Context, c *cobra.Command, e *cmd.CommandExecutor, now time.Time) error {
	client := e.GetClient()
	var (
		balance decimal.Decimal
		expiry  api.SMSExpiry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = client.SMSBalance(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		expiry, err = client.SMSExpiry(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	data := NewStatusData(balance, expiry, now)
	logger.FromContext(ctx).Debug("sms package status", "state", data.State, "expiry", data.Expiry)
	if e.GetMode() == models.ModeJSON {
		return helpers.CommandOutput(c).WriteJSON(StatusOutput{Data: data})
	}
	sev := notify.Info
	switch data.State {
	case api.ExpirySoon:
		sev = notify.Warning
	case api.ExpiryExpired, api.ExpiryUnknown:
		sev = notify.Error
	}
	w := c.OutOrStdout()
	fmt.Fprintf(w, "%s %s\n", styles.RenderTitle("Saldo"), data.Balance)
	fmt.Fprintf(w, "%s %s\n", styles.RenderTitle("Vencimiento"), formatExpiry(expiry))
	fmt.Fprintln(w, styles.ToastStyle(sev).Render(data.Message))
	return nil
}

// NewStatusData builds the status document for the package as of now.
func NewStatusData(balance decimal.Decimal, expiry api.SMSExpiry, now time.Time) StatusData {
	data := StatusData{
		Balance:   balance.StringFixed(2),
		Expiry:    expiry.Raw,
		State:     expiry.State(now),
		Simulated: expiry.Simulated,
	}
	if data.State != api.ExpiryUnknown {
		days := expiry.DaysLeft(now)
		data.DaysLeft = &days
		data.Expiry = expiry.Date.Format(time.DateOnly)
	}
	switch data.State {
	case api.ExpiryExpired:
		data.Message = "⚠️ Paquete vencido"
	case api.ExpirySoon:
		data.Message = fmt.Sprintf("⚠️ %d días restantes", *data.DaysLeft)
	case api.ExpiryOK:
		data.Message = fmt.Sprintf("✓ %d días restantes", *data.DaysLeft)
	default:
		data.Message = "No se pudo leer la fecha de vencimiento"
	}
	if data.Simulated {
		data.Message += " (Simulado)"
	}
	return data
}

func formatExpiry(x api.SMSExpiry) string {
	if x.Date.IsZero() {
		return x.Raw
	}
	return x.Date.Format("02/01/2006")
}
