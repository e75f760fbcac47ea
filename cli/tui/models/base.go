package models

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/limitedeportes/panel/cli/tui/styles"
	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/listview"
)

// Mode represents the output mode for CLI commands
type Mode string

const (
	// ModeTUI represents interactive TUI mode
	ModeTUI Mode = "tui"
	// ModeJSON represents non-interactive JSON output mode
	ModeJSON Mode = "json"
)

// BaseModel holds what every panel screen tracks next to its content: the
// terminal size, the one background task the operator may have running,
// and the outcome of the last collection load.
type BaseModel struct {
	ctx      context.Context
	width    int
	height   int
	ready    bool
	quitting bool
	busy     bool
	loadErr  error
	spinner  spinner.Model
}

// NewBaseModel creates a new base model
func NewBaseModel(ctx context.Context) BaseModel {
	return BaseModel{
		ctx:     ctx,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle)),
	}
}

// Context returns the context
func (m BaseModel) Context() context.Context {
	return m.ctx
}

// Size returns the terminal size
func (m BaseModel) Size() (width, height int) {
	return m.width, m.height
}

// IsReady returns whether the first window size arrived
func (m BaseModel) IsReady() bool {
	return m.ready
}

// IsQuitting returns whether the model is quitting
func (m BaseModel) IsQuitting() bool {
	return m.quitting
}

func (m *BaseModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true
}

// Quit marks the model as quitting
func (m *BaseModel) Quit() {
	m.quitting = true
}

// TryBegin claims the task slot. It returns false while another edit load,
// submit or removal is still running.
func (m *BaseModel) TryBegin() bool {
	if m.busy {
		return false
	}
	m.busy = true
	return true
}

// Finish releases the task slot.
func (m *BaseModel) Finish() {
	m.busy = false
}

// Busy reports whether a task is running.
func (m BaseModel) Busy() bool {
	return m.busy
}

// Loading reports whether anything the operator is waiting on is in flight:
// a task of this screen, or a load or search of its list.
func (m BaseModel) Loading(v listview.View) bool {
	return m.busy || v.Searching || v.Status == listview.StatusLoading
}

// SetLoadResult records the outcome of the last explicit load.
func (m *BaseModel) SetLoadResult(err error) {
	m.loadErr = err
}

// LoadErr returns the error of the last explicit load, if it failed.
func (m BaseModel) LoadErr() error {
	return m.loadErr
}

// RetryHint tells the operator how to recover from a failed load shown in
// v. It is empty while the list is healthy.
func (m BaseModel) RetryHint(v listview.View) string {
	if m.loadErr == nil {
		return ""
	}
	switch {
	case v.Status == listview.StatusAuthRequired || apperr.IsAuth(m.loadErr):
		return "Volvé a iniciar sesión y presioná r para recargar"
	case v.Status == listview.StatusFailed:
		return "Presioná r para reintentar"
	}
	return ""
}

// SpinnerView renders the current spinner frame.
func (m BaseModel) SpinnerView() string {
	return m.spinner.View()
}

// SpinnerTick starts the spinner animation.
func (m BaseModel) SpinnerTick() tea.Cmd {
	return m.spinner.Tick
}

// Update handles window sizing, ctrl+c and spinner frames for all models.
func (m *BaseModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Quit()
			return tea.Quit
		}
	}
	return nil
}
