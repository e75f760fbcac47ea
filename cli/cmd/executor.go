package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/limitedeportes/panel/cli/api"
	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/cli/tui/models"
	"github.com/limitedeportes/panel/engine/notify"
	"github.com/limitedeportes/panel/engine/session"
	"github.com/limitedeportes/panel/pkg/config"
	"github.com/limitedeportes/panel/pkg/logger"
)

// CommandExecutor handles common setup and execution patterns for CLI commands.
// It eliminates boilerplate code by providing a single place for:
// - API client creation
// - Session resolution
// - Mode detection
// - Error handling
type CommandExecutor struct {
	mode    models.Mode
	cfg     *config.Config
	client  *api.Client
	session *session.Store
}

// HandlerFunc defines the signature for command handlers.
type HandlerFunc func(ctx context.Context, cmd *cobra.Command, executor *CommandExecutor, args []string) error

// ModeHandlers contains handlers for different execution modes.
type ModeHandlers struct {
	JSON HandlerFunc
	TUI  HandlerFunc
}

// ExecutorOptions allows customization of the command executor
type ExecutorOptions struct {
	RequireAPI bool
	// RequireSession resolves the operator identity, asking the backend
	// when it is not configured. It implies RequireAPI.
	RequireSession bool
}

// NewCommandExecutor creates a new command executor with all necessary setup.
func NewCommandExecutor(cmd *cobra.Command, opts ExecutorOptions) (*CommandExecutor, error) {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)
	cfg := config.FromContext(ctx)
	mode := helpers.DetectMode(cfg)
	log.Debug("detected execution mode", "mode", mode)
	executor := &CommandExecutor{mode: mode, cfg: cfg}
	if opts.RequireAPI || opts.RequireSession {
		client, err := api.NewClient(cfg)
		if err != nil {
			return nil, helpers.UsageError("URL del backend inválida", err.Error())
		}
		executor.client = client
	}
	if opts.RequireSession {
		store, err := resolveSession(ctx, cfg, executor.client)
		if err != nil {
			return nil, err
		}
		executor.session = store
	}
	return executor, nil
}

// resolveSession builds the session store from --session-user, or from the
// backend's current user when none is configured. The client follows every
// identity change so requests are made as the current operator.
func resolveSession(ctx context.Context, cfg *config.Config, client *api.Client) (*session.Store, error) {
	identity, role := strings.TrimSpace(cfg.Session.User), ""
	if identity == "" {
		u, err := client.CurrentUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve session user: %w", err)
		}
		identity, role = u.Usuario, u.Rol
	}
	store := session.NewStore(identity)
	if role != "" {
		store.Set(ctx, identity, role)
	}
	client.SetSessionUser(store.Identity())
	store.OnChange(client.SetSessionUser)
	logger.FromContext(ctx).Debug("session resolved", "user", store.Identity(), "role", store.Role())
	return store, nil
}

// Execute runs the appropriate handler based on the detected mode.
func (e *CommandExecutor) Execute(ctx context.Context, cmd *cobra.Command, handlers ModeHandlers, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	switch e.mode {
	case models.ModeJSON:
		if handlers.JSON == nil {
			return helpers.UsageError("Este comando requiere una terminal interactiva")
		}
		return handlers.JSON(ctx, cmd, e, args)
	case models.ModeTUI:
		if handlers.TUI == nil {
			if handlers.JSON == nil {
				return fmt.Errorf("no handler for mode %s", e.mode)
			}
			return handlers.JSON(ctx, cmd, e, args)
		}
		return handlers.TUI(ctx, cmd, e, args)
	default:
		return fmt.Errorf("unsupported mode: %s", e.mode)
	}
}

// GetClient returns the configured API client.
func (e *CommandExecutor) GetClient() *api.Client {
	return e.client
}

// GetSession returns the operator session.
func (e *CommandExecutor) GetSession() *session.Store {
	return e.session
}

// GetConfig returns the active configuration.
func (e *CommandExecutor) GetConfig() *config.Config {
	return e.cfg
}

// GetMode returns the detected execution mode.
func (e *CommandExecutor) GetMode() models.Mode {
	return e.mode
}

// Notifier returns the sink for user feedback outside the browser. JSON
// output must stay machine readable, so feedback goes to the log there.
// Errors always go to the log: HandleCommonErrors reports them.
func (e *CommandExecutor) Notifier() notify.Notifier {
	if e.mode == models.ModeJSON {
		return notify.Log{}
	}
	return notify.NotifierFunc(func(ctx context.Context, message string, severity notify.Severity) {
		if severity == notify.Error {
			notify.Log{}.Notify(ctx, message, severity)
			return
		}
		helpers.PrintNotification(message, severity)
	})
}

// ExecuteCommand is a convenience function that combines executor creation and execution.
func ExecuteCommand(cmd *cobra.Command, opts ExecutorOptions, handlers ModeHandlers, args []string) error {
	executor, err := NewCommandExecutor(cmd, opts)
	if err != nil {
		return HandleCommonErrors(err, helpers.DetectMode(config.FromContext(cmd.Context())))
	}
	return HandleCommonErrors(executor.Execute(cmd.Context(), cmd, handlers, args), executor.GetMode())
}

// HandleCommonErrors provides consistent error handling across all commands.
// The returned error has already been reported to the operator.
func HandleCommonErrors(err error, mode models.Mode) error {
	if err == nil {
		return nil
	}
	cliErr := helpers.Categorize(err, nil)
	helpers.OutputError(cliErr, mode)
	return cliErr.MarkReported()
}
