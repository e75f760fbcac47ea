// Package browser is the interactive list screen: a table over a list
// view controller with search, paging and the create, edit and delete
// flows of a mutation coordinator.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/limitedeportes/panel/cli/tui/components"
	"github.com/limitedeportes/panel/cli/tui/models"
	"github.com/limitedeportes/panel/cli/tui/styles"
	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/listview"
	"github.com/limitedeportes/panel/engine/mutation"
	"github.com/limitedeportes/panel/engine/session"
)

const (
	tickInterval = 150 * time.Millisecond
	toastTTL     = 4 * time.Second
	// rows of chrome around the table: title, search, info, toasts, bar, help
	chromeHeight = 10
)

type state int

const (
	stateBrowse state = iota
	stateSearch
	stateForm
	stateConfirm
)

// Deps are the collaborators of a browser. Coordinator may be nil for
// resources without mutations.
type Deps struct {
	Schema      item.Schema
	List        *listview.Controller
	Coordinator *mutation.Coordinator
	Session     *session.Store
	Bridge      *Bridge
}

type (
	tickMsg   time.Time
	loadedMsg struct{ err error }
	editMsg   struct{ form mutation.Form }
	submitMsg struct {
		res mutation.Result
		err error
	}
	removeMsg   struct{ err error }
	noActionMsg struct{}
)

// Model is the bubbletea model of a list screen.
type Model struct {
	models.BaseModel
	deps    Deps
	keys    keyMap
	help    help.Model
	table   table.Model
	search  textinput.Model
	toasts  components.ToastStrip
	view    listview.View
	state   state
	form    *components.RecordForm
	confirm *confirmRequest
}

// New creates a browser over deps. The caller must route the list
// controller's renders and the notification queue into deps.Bridge.
func New(ctx context.Context, deps Deps) *Model {
	search := textinput.New()
	search.Prompt = "🔍 "
	search.Placeholder = "Buscar " + deps.Schema.Plural
	m := &Model{
		BaseModel: models.NewBaseModel(ctx),
		deps:      deps,
		keys:      defaultKeys().withSchema(deps.Schema.ReadOnly || deps.Coordinator == nil, deps.Schema.CreateOnly),
		help:      help.New(),
		table:     components.NewRecordTable(deps.Schema, listview.DefaultPageSize),
		search:    search,
		toasts:    components.NewToastStrip(toastTTL),
		view:      deps.List.View(),
	}
	return m
}

// Run starts the browser on the terminal and blocks until the operator
// quits.
func Run(ctx context.Context, deps Deps) error {
	m := New(ctx, deps)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	b := m.deps.Bridge
	return tea.Batch(
		m.load(),
		b.waitView(m.deps.List),
		b.waitNote(),
		b.waitConfirm(),
		tick(),
		m.SpinnerTick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) load() tea.Cmd {
	ctx, list := m.Context(), m.deps.List
	return func() tea.Msg {
		_, err := list.LoadAll(ctx)
		return loadedMsg{err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.BaseModel.Update(msg)
		m.help.Width = msg.Width
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		return m, nil
	case spinner.TickMsg:
		return m, m.BaseModel.Update(msg)
	case tickMsg:
		m.toasts.Prune(time.Time(msg))
		return m, tick()
	case viewMsg:
		m.setView(msg.view)
		return m, m.deps.Bridge.waitView(m.deps.List)
	case noteMsg:
		m.toasts.Push(msg.note)
		return m, m.deps.Bridge.waitNote()
	case confirmMsg:
		req := msg.req
		m.confirm = &req
		m.state = stateConfirm
		return m, m.deps.Bridge.waitConfirm()
	case loadedMsg:
		m.SetLoadResult(msg.err)
		return m, nil
	case editMsg:
		m.Finish()
		return m, m.openForm(msg.form)
	case submitMsg:
		return m, m.submitted(msg.res, msg.err)
	case removeMsg, noActionMsg:
		m.Finish()
		return m, nil
	}

	switch m.state {
	case stateForm:
		return m, m.updateForm(msg)
	case stateConfirm:
		return m, m.updateConfirm(msg)
	case stateSearch:
		return m, m.updateSearch(msg)
	default:
		return m, m.updateBrowse(msg)
	}
}

func (m *Model) setView(v listview.View) {
	m.view = v
	components.SetView(&m.table, m.deps.Schema, v)
}

func (m *Model) updateBrowse(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if keyMsg.String() == "ctrl+c" {
		m.Quit()
		return tea.Quit
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.Quit()
		return tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(keyMsg, m.keys.Search):
		m.state = stateSearch
		return m.search.Focus()
	case key.Matches(keyMsg, m.keys.Next):
		m.deps.List.Next()
	case key.Matches(keyMsg, m.keys.Previous):
		m.deps.List.Previous()
	case key.Matches(keyMsg, m.keys.Reload):
		m.search.SetValue("")
		return m.load()
	case key.Matches(keyMsg, m.keys.Create):
		if m.Busy() {
			return nil
		}
		return m.openForm(m.deps.Coordinator.BeginCreate())
	case key.Matches(keyMsg, m.keys.Edit):
		return m.beginEdit()
	case key.Matches(keyMsg, m.keys.Delete):
		return m.remove()
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateSearch(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyCtrlC:
			m.Quit()
			return tea.Quit
		case tea.KeyEsc:
			m.search.SetValue("")
			m.deps.List.Search("")
			m.search.Blur()
			m.state = stateBrowse
			return nil
		case tea.KeyEnter, tea.KeyDown, tea.KeyTab:
			m.search.Blur()
			m.state = stateBrowse
			return nil
		}
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.deps.List.Search(v)
	}
	return cmd
}

func (m *Model) selectedKey() (string, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.view.Rows) {
		return "", false
	}
	return m.view.Rows[i].Key, true
}

func (m *Model) beginEdit() tea.Cmd {
	k, ok := m.selectedKey()
	if !ok || !m.TryBegin() {
		return nil
	}
	ctx, coord := m.Context(), m.deps.Coordinator
	return func() tea.Msg {
		f, err := coord.BeginEdit(ctx, k)
		if err != nil {
			return noActionMsg{}
		}
		return editMsg{form: f}
	}
}

func (m *Model) remove() tea.Cmd {
	k, ok := m.selectedKey()
	if !ok || !m.TryBegin() {
		return nil
	}
	ctx, coord := m.Context(), m.deps.Coordinator
	return func() tea.Msg {
		return removeMsg{err: coord.Remove(ctx, k)}
	}
}

func (m *Model) openForm(f mutation.Form) tea.Cmd {
	m.form = components.NewRecordForm(m.deps.Schema, f)
	m.state = stateForm
	return m.form.Form.Init()
}

func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyCtrlC {
		m.Quit()
		return tea.Quit
	}
	if m.Busy() {
		return nil
	}
	form, cmd := m.form.Form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form.Form = f
	}
	switch m.form.Form.State {
	case huh.StateAborted:
		m.form = nil
		m.state = stateBrowse
		return nil
	case huh.StateCompleted:
		m.TryBegin()
		ctx, coord, values := m.Context(), m.deps.Coordinator, m.form.Values()
		return func() tea.Msg {
			res, err := coord.Submit(ctx, values)
			return submitMsg{res: res, err: err}
		}
	}
	return cmd
}

// submitted closes the form, or reopens it with the entered values when
// the operator can fix the input. Renaming the operator's own account
// moves the session to the new name.
func (m *Model) submitted(res mutation.Result, err error) tea.Cmd {
	m.Finish()
	if err == nil && res.EditedSelf && m.deps.Session != nil {
		m.deps.Session.Set(m.Context(), res.NewIdentity, m.deps.Session.Role())
	}
	if err == nil || !retryable(err) {
		m.form = nil
		m.state = stateBrowse
		return nil
	}
	return m.openForm(m.deps.Coordinator.Form())
}

func retryable(err error) bool {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case apperr.KindValidation, apperr.KindMissingFields, apperr.KindConflict:
		return true
	}
	return false
}

func (m *Model) updateConfirm(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.confirm == nil {
		return nil
	}
	answer := func(ok bool) {
		m.confirm.reply <- ok
		m.confirm = nil
		m.state = stateBrowse
	}
	switch strings.ToLower(keyMsg.String()) {
	case "y", "s", "enter":
		answer(true)
	case "n", "esc", "q":
		answer(false)
	case "ctrl+c":
		answer(false)
		m.Quit()
		return tea.Quit
	}
	return nil
}

func (m *Model) View() string {
	if m.IsQuitting() {
		return ""
	}
	width, _ := m.Size()
	var b strings.Builder
	title := styles.RenderTitle(titleCase(m.deps.Schema.Plural))
	b.WriteString(title + "\n")

	switch m.state {
	case stateForm:
		b.WriteString(m.form.Form.View())
	case stateConfirm:
		b.WriteString(components.RenderConfirm(m.confirm.prompt))
	default:
		if m.state == stateSearch || m.search.Value() != "" {
			b.WriteString(styles.SearchStyle.Render(m.search.View()) + "\n")
		}
		b.WriteString(m.body() + "\n")
		b.WriteString(m.pager() + "\n")
	}

	if toasts := m.toasts.View(); toasts != "" {
		b.WriteString("\n" + toasts)
	}
	bar := components.NewStatusBar(width)
	bar.Left = "👤 " + m.deps.Session.Identity()
	bar.Center = m.view.Info
	bar.Loading = m.Loading(m.view)
	bar.Spinner = m.SpinnerView()
	b.WriteString("\n" + bar.View())
	if m.state == stateBrowse {
		b.WriteString("\n" + m.help.View(m.keys))
	}
	return b.String()
}

func (m *Model) body() string {
	if len(m.view.Rows) > 0 {
		return m.table.View()
	}
	switch m.view.Status {
	case listview.StatusFailed, listview.StatusAuthRequired:
		out := styles.ErrorRowStyle.Render(m.view.Placeholder)
		if hint := m.RetryHint(m.view); hint != "" {
			out += "\n" + styles.SubtleStyle.Render(hint)
		}
		return out
	}
	return styles.SubtleStyle.Render(m.view.Placeholder)
}

func (m *Model) pager() string {
	v := m.view
	if v.Mode == listview.Filtering || v.TotalPages == 0 {
		return styles.SubtleStyle.Render(v.Info)
	}
	prev, next := "◀", "▶"
	if !v.CanPrevious {
		prev = styles.SubtleStyle.Render(prev)
	}
	if !v.CanNext {
		next = styles.SubtleStyle.Render(next)
	}
	page := styles.ActivePageStyle.Render(fmt.Sprintf("%d/%d", v.Page, v.TotalPages))
	return lipgloss.JoinHorizontal(lipgloss.Top, prev, " ", page, " ", next, "  ", styles.SubtleStyle.Render(v.Info))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
