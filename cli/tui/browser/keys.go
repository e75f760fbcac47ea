package browser

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Previous key.Binding
	Next     key.Binding
	Search   key.Binding
	Reload   key.Binding
	Create   key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "subir")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "bajar")),
		Previous: key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h", "anterior")),
		Next:     key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l", "siguiente")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "buscar")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recargar")),
		Create:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "nuevo")),
		Edit:     key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "editar")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "eliminar")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "ayuda")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "salir")),
	}
}

// withSchema disables the bindings a resource does not support.
func (k keyMap) withSchema(readOnly, createOnly bool) keyMap {
	if readOnly {
		k.Create.SetEnabled(false)
	}
	if readOnly || createOnly {
		k.Edit.SetEnabled(false)
		k.Delete.SetEnabled(false)
	}
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Previous, k.Next, k.Create, k.Edit, k.Delete, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Previous, k.Next},
		{k.Search, k.Reload},
		{k.Create, k.Edit, k.Delete},
		{k.Help, k.Quit},
	}
}
