package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/limitedeportes/panel/cli/cmd/mockserver"
	"github.com/limitedeportes/panel/cli/cmd/resource"
	"github.com/limitedeportes/panel/cli/cmd/sms"
	"github.com/limitedeportes/panel/cli/cmd/version"
	"github.com/limitedeportes/panel/cli/cmd/whoami"
	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/pkg/config"
	"github.com/limitedeportes/panel/pkg/logger"
)

const defaultConfigFile = "panel.yaml"

// RootCmd builds the panel command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "panel",
		Short:         "Administration panel for users, branches and SMS",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return helpers.UsageError(err.Error())
	})
	addGlobalFlags(root)

	root.AddCommand(
		resource.UsersCmd(),
		resource.BranchesCmd(),
		sms.Cmd(),
		whoami.NewCommand(),
		mockserver.NewCommand(),
		version.NewCommand(),
		ConfigCmd(),
	)
	return root
}

func addGlobalFlags(root *cobra.Command) {
	cfg := config.Default()
	f := root.PersistentFlags()
	f.String("config", defaultConfigFile, "Path to the YAML configuration file")
	f.String("env-file", ".env", "Path to the environment variables file")
	f.String("base-url", cfg.API.BaseURL, "Backend base URL")
	f.Duration("timeout", cfg.API.Timeout, "Timeout for each backend request")
	f.String("session-user", "", "Operator identity (resolved from the backend when empty)")
	f.Int("page-size", cfg.List.PageSize, "Rows per page")
	f.String("format", cfg.CLI.Format, "Output format: auto, json or tui")
	f.String("log-level", cfg.Runtime.LogLevel, "Log level: debug, info, warn, error or disabled")
	f.Bool("log-json", false, "Write logs as JSON")
	f.Bool("log-source", false, "Include the source location in logs")
}

// SetupGlobalConfig loads the environment file, the configuration sources
// and the logger, and stores the config manager and logger in the command
// context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	if _, err := loadEnvFile(cmd); err != nil {
		return helpers.UsageError("No se pudo leer el archivo de entorno", err.Error())
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	sources := []config.Source{}
	if configPath != "" {
		sources = append(sources, config.NewYAMLProvider(configPath))
	}
	sources = append(sources, config.NewCLIProvider(extractCLIFlags(cmd)))
	manager := config.NewManager(config.NewService())
	cfg, err := manager.Load(ctx, sources...)
	if err != nil {
		return helpers.UsageError("Configuración inválida", err.Error())
	}

	_, _, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to read logger flags: %w", err)
	}
	log := logger.SetupLogger(cfg.Runtime.LogLevel, cfg.Runtime.LogJSON, logSource)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithManager(ctx, manager)
	cmd.SetContext(ctx)
	log.Debug("configuration loaded", "config", configPath, "base_url", cfg.API.BaseURL)
	return nil
}
