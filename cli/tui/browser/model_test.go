package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/listview"
	"github.com/limitedeportes/panel/engine/mutation"
	"github.com/limitedeportes/panel/engine/notify"
	"github.com/limitedeportes/panel/engine/session"
)

type memBackend struct {
	mu    sync.Mutex
	items []item.Item
}

func newMemBackend(n int) *memBackend {
	b := &memBackend{}
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("user%02d", i)
		b.items = append(b.items, item.Item{Key: name, Fields: map[string]string{
			"usuario": name,
			"rol":     "operador",
		}})
	}
	return b
}

func (b *memBackend) List(context.Context) ([]item.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return item.CloneAll(b.items), nil
}

func (b *memBackend) Search(_ context.Context, text string) ([]item.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []item.Item
	for _, it := range b.items {
		if strings.Contains(it.Key, text) {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

func (b *memBackend) Get(_ context.Context, key string) (item.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	it, _ := item.Find(b.items, key)
	return it, nil
}

func (b *memBackend) Create(context.Context, map[string]any) (mutation.Outcome, error) {
	return mutation.Outcome{OK: true}, nil
}

func (b *memBackend) Update(context.Context, string, map[string]any) (mutation.Outcome, error) {
	return mutation.Outcome{OK: true}, nil
}

func (b *memBackend) Delete(_ context.Context, key string) (mutation.Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.items[:0]
	for _, it := range b.items {
		if !item.SameKey(it.Key, key) {
			kept = append(kept, it)
		}
	}
	b.items = kept
	return mutation.Outcome{OK: true}, nil
}

func newTestModel(t *testing.T, schema item.Schema, mutable bool) (*Model, *memBackend) {
	t.Helper()
	ctx := t.Context()
	backend := newMemBackend(7)
	bridge := NewBridge()
	list := listview.New(ctx, backend,
		listview.WithRenderer(bridge),
		listview.WithDebounce(0),
		listview.WithMessages(listview.MessagesFor(schema)),
	)
	t.Cleanup(list.Close)
	deps := Deps{Schema: schema, List: list, Session: session.NewStore("admin"), Bridge: bridge}
	if mutable {
		deps.Coordinator = mutation.New(schema, backend,
			mutation.WithRefresher(list),
			mutation.WithSession(deps.Session),
			mutation.WithConfirmer(bridge),
		)
	}
	m := New(ctx, deps)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	_, err := list.LoadAll(ctx)
	require.NoError(t, err)
	m.Update(viewMsg{view: list.View()})
	return m, backend
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestModel(t *testing.T) {
	t.Run("Should render the current page and info line", func(t *testing.T) {
		m, _ := newTestModel(t, item.Users, true)

		out := m.View()

		assert.Contains(t, out, "Usuarios")
		assert.Contains(t, out, "Mostrando usuarios 1–5 de 7")
		assert.Contains(t, out, "user05")
		assert.NotContains(t, out, "user06")
		assert.Contains(t, out, "👤 admin")
	})

	t.Run("Should page with the arrow keys", func(t *testing.T) {
		m, _ := newTestModel(t, item.Users, true)

		press(m, "right")
		assert.Equal(t, 2, m.deps.List.View().Page)
		press(m, "right")
		assert.Equal(t, 2, m.deps.List.View().Page)
		press(m, "left")
		assert.Equal(t, 1, m.deps.List.View().Page)
	})

	t.Run("Should search on every keystroke and clear on escape", func(t *testing.T) {
		m, _ := newTestModel(t, item.Users, true)

		press(m, "/", "0", "7")
		require.Eventually(t, func() bool {
			v := m.deps.List.View()
			return v.Mode == listview.Filtering && len(v.Rows) == 1
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, "07", m.search.Value())

		press(m, "esc")
		assert.Equal(t, stateBrowse, m.state)
		assert.Equal(t, listview.Browsing, m.deps.List.View().Mode)
	})

	t.Run("Should ask before removing the selected row", func(t *testing.T) {
		m, backend := newTestModel(t, item.Users, true)

		cmd := press(m, "d")
		require.NotNil(t, cmd)
		done := make(chan tea.Msg, 1)
		go func() { done <- cmd() }()

		m.Update(m.deps.Bridge.waitConfirm()())
		assert.Equal(t, stateConfirm, m.state)
		assert.Contains(t, m.View(), "Confirmar")

		press(m, "y")
		select {
		case msg := <-done:
			require.IsType(t, removeMsg{}, msg)
			assert.NoError(t, msg.(removeMsg).err)
		case <-time.After(time.Second):
			t.Fatal("removal did not finish")
		}
		_, found := item.Find(backend.items, "user01")
		assert.False(t, found)
		assert.Equal(t, stateBrowse, m.state)
	})

	t.Run("Should open the create form", func(t *testing.T) {
		m, _ := newTestModel(t, item.Users, true)

		press(m, "n")

		assert.Equal(t, stateForm, m.state)
		assert.Contains(t, m.View(), "Nuevo usuario")
	})

	t.Run("Should ignore mutation keys without a coordinator", func(t *testing.T) {
		m, _ := newTestModel(t, item.SMSLog, false)

		assert.Nil(t, press(m, "n"))
		assert.Nil(t, press(m, "d"))
		assert.Equal(t, stateBrowse, m.state)
	})

	t.Run("Should ignore a second edit while the first is loading", func(t *testing.T) {
		m, _ := newTestModel(t, item.Users, true)

		first := press(m, "e")
		require.NotNil(t, first)
		assert.Nil(t, press(m, "e"))
		assert.True(t, m.Busy())

		m.Update(first())
		assert.False(t, m.Busy())
		assert.Equal(t, stateForm, m.state)
	})

	t.Run("Should hint a reload after a failed load", func(t *testing.T) {
		m, _ := newTestModel(t, item.Users, true)

		m.Update(loadedMsg{err: apperr.Network(apperr.OpList, errors.New("refused"), false)})
		m.Update(viewMsg{view: listview.View{Status: listview.StatusFailed, Placeholder: "Error al cargar los usuarios"}})

		out := m.View()
		assert.Contains(t, out, "Error al cargar los usuarios")
		assert.Contains(t, out, "Presioná r para reintentar")
	})

	t.Run("Should show incoming notifications", func(t *testing.T) {
		m, _ := newTestModel(t, item.Users, true)

		m.Update(noteMsg{note: notify.Notification{Message: "Usuario creado correctamente", Severity: notify.Success, At: time.Now()}})

		assert.Contains(t, m.View(), "Usuario creado correctamente")
	})
}

func TestBridge(t *testing.T) {
	t.Run("Should never block renders or notifications", func(t *testing.T) {
		b := NewBridge()
		for range 3 {
			b.Render(listview.View{})
		}
		for range noteBuffer + 5 {
			b.Deliver(notify.Notification{Message: "x"})
		}
		assert.Len(t, b.views, 1)
		assert.Len(t, b.notes, noteBuffer)
	})

	t.Run("Should decline when the context ends before an answer", func(t *testing.T) {
		b := NewBridge()
		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		ok, err := b.Confirm(ctx, "¿Eliminar?")

		assert.False(t, ok)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
