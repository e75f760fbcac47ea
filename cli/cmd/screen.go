package cmd

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/cli/tui/browser"
	"github.com/limitedeportes/panel/cli/tui/components"
	"github.com/limitedeportes/panel/cli/tui/models"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/listview"
	"github.com/limitedeportes/panel/engine/mutation"
	"github.com/limitedeportes/panel/engine/notify"
	"github.com/limitedeportes/panel/pkg/logger"
)

// Source is a resource that can be listed and mutated.
type Source interface {
	listview.DataSource
	mutation.Backend
}

// ListController creates a controller configured from the executor's
// config. Options in extra are applied last.
func (e *CommandExecutor) ListController(
	ctx context.Context,
	schema item.Schema,
	src listview.DataSource,
	extra ...listview.Option,
) *listview.Controller {
	opts := []listview.Option{
		listview.WithPageSize(e.cfg.List.PageSize),
		listview.WithDebounce(e.cfg.List.Debounce),
		listview.WithMinSearchLength(e.cfg.List.MinSearchLength),
		listview.WithRequestTimeout(e.cfg.List.RequestTimeout),
		listview.WithMessages(listview.MessagesFor(schema)),
		listview.WithNotifier(e.Notifier()),
		listview.WithLogger(logger.FromContext(ctx)),
	}
	return listview.New(ctx, src, append(opts, extra...)...)
}

// Coordinator creates a mutation coordinator that refreshes list. A nil
// list leaves nothing to reload after a change.
func (e *CommandExecutor) Coordinator(
	ctx context.Context,
	schema item.Schema,
	backend mutation.Backend,
	list *listview.Controller,
	extra ...mutation.Option,
) *mutation.Coordinator {
	opts := []mutation.Option{
		mutation.WithNotifier(e.Notifier()),
		mutation.WithSession(e.session),
		mutation.WithTimeout(e.cfg.Mutation.Timeout),
		mutation.WithLogger(logger.FromContext(ctx)),
	}
	if list != nil {
		opts = append(opts, mutation.WithRefresher(list))
	}
	return mutation.New(schema, backend, append(opts, extra...)...)
}

// Browse runs the interactive list screen over src. backend may be nil
// for read-only resources.
func (e *CommandExecutor) Browse(
	ctx context.Context,
	schema item.Schema,
	src listview.DataSource,
	backend mutation.Backend,
) error {
	queue := notify.NewQueue(e.cfg.Notify.QueueSize)
	defer queue.Close()
	bridge := browser.NewBridge()
	unsubscribe := queue.Subscribe(bridge.Deliver)
	defer unsubscribe()

	notifier := notify.Multi{queue, notify.Log{}}
	list := e.ListController(ctx, schema, src,
		listview.WithRenderer(bridge),
		listview.WithNotifier(notifier),
	)
	defer list.Close()
	deps := browser.Deps{Schema: schema, List: list, Session: e.session, Bridge: bridge}
	if backend != nil {
		deps.Coordinator = e.Coordinator(ctx, schema, backend, list,
			mutation.WithNotifier(notifier),
			mutation.WithConfirmer(bridge),
		)
	}
	return browser.Run(ctx, deps)
}

// Confirmer returns how removals are confirmed: --force always confirms,
// JSON mode refuses to ask, and the terminal asks through huh.
func (e *CommandExecutor) Confirmer(force bool) (mutation.Confirmer, error) {
	switch {
	case force:
		return mutation.Always, nil
	case e.mode == models.ModeJSON:
		return nil, helpers.UsageError("Usá --force para eliminar sin confirmación en modo JSON")
	}
	return mutation.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		var ok bool
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().Title(prompt).Affirmative("Sí").Negative("No").Value(&ok),
		)).RunWithContext(ctx)
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return ok, err
	}), nil
}

// FillForm lets the operator complete f on the terminal. It returns the
// entered values, or context.Canceled when the form is abandoned.
func FillForm(ctx context.Context, schema item.Schema, f mutation.Form) (map[string]string, error) {
	rf := components.NewRecordForm(schema, f)
	wrapper := components.NewFormWrapper(ctx, rf.Form)
	if _, err := tea.NewProgram(wrapper, tea.WithContext(ctx)).Run(); err != nil {
		return nil, err
	}
	if wrapper.IsCanceled() || !wrapper.IsCompleted() {
		return nil, context.Canceled
	}
	return rf.Values(), nil
}
