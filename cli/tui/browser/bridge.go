package browser

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/limitedeportes/panel/engine/listview"
	"github.com/limitedeportes/panel/engine/notify"
)

const noteBuffer = 16

type confirmRequest struct {
	prompt string
	reply  chan bool
}

// Bridge carries controller output into the bubbletea loop. Controllers
// never block on it: renders coalesce into a single pending signal and
// notifications beyond the buffer are dropped.
type Bridge struct {
	views    chan struct{}
	notes    chan notify.Notification
	confirms chan confirmRequest
}

func NewBridge() *Bridge {
	return &Bridge{
		views:    make(chan struct{}, 1),
		notes:    make(chan notify.Notification, noteBuffer),
		confirms: make(chan confirmRequest),
	}
}

// Render implements listview.Renderer.
func (b *Bridge) Render(listview.View) {
	select {
	case b.views <- struct{}{}:
	default:
	}
}

// Deliver is a notify.Queue subscriber.
func (b *Bridge) Deliver(n notify.Notification) {
	select {
	case b.notes <- n:
	default:
	}
}

// Confirm implements mutation.Confirmer by asking the running model. It
// blocks until the operator answers or ctx ends.
func (b *Bridge) Confirm(ctx context.Context, prompt string) (bool, error) {
	req := confirmRequest{prompt: prompt, reply: make(chan bool, 1)}
	select {
	case b.confirms <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type (
	viewMsg    struct{ view listview.View }
	noteMsg    struct{ note notify.Notification }
	confirmMsg struct{ req confirmRequest }
)

func (b *Bridge) waitView(list *listview.Controller) tea.Cmd {
	return func() tea.Msg {
		<-b.views
		return viewMsg{view: list.View()}
	}
}

func (b *Bridge) waitNote() tea.Cmd {
	return func() tea.Msg {
		return noteMsg{note: <-b.notes}
	}
}

func (b *Bridge) waitConfirm() tea.Cmd {
	return func() tea.Msg {
		return confirmMsg{req: <-b.confirms}
	}
}
