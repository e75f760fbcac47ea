package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/limitedeportes/panel/cli"
	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/cli/tui/models"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.RootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !helpers.Reported(err) {
			helpers.OutputError(helpers.Categorize(err, nil), models.ModeTUI)
		}
		os.Exit(helpers.ExitCode(err))
	}
}
