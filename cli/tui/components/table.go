package components

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/limitedeportes/panel/cli/tui/styles"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/listview"
)

const (
	minColumnWidth = 8
	maxColumnWidth = 32
)

// NewRecordTable creates a focused table with the display columns of schema.
func NewRecordTable(schema item.Schema, height int) table.Model {
	t := table.New(
		table.WithColumns(Columns(schema, nil)),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(styles.Border).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(styles.Accent)
	t.SetStyles(s)
	return t
}

// Columns sizes the display columns of schema to fit rows.
func Columns(schema item.Schema, rows []item.Item) []table.Column {
	fields := schema.Columns()
	cols := make([]table.Column, 0, len(fields))
	for _, f := range fields {
		w := max(lipgloss.Width(f.Label), minColumnWidth)
		for _, r := range rows {
			w = max(w, lipgloss.Width(r.Get(f.Name)))
		}
		cols = append(cols, table.Column{Title: f.Label, Width: min(w, maxColumnWidth)})
	}
	return cols
}

// Rows converts the rows of v in display column order.
func Rows(schema item.Schema, v listview.View) []table.Row {
	fields := schema.Columns()
	out := make([]table.Row, 0, len(v.Rows))
	for _, it := range v.Rows {
		row := make(table.Row, len(fields))
		for i, f := range fields {
			row[i] = it.Get(f.Name)
		}
		out = append(out, row)
	}
	return out
}

// SetView refreshes t with v.
func SetView(t *table.Model, schema item.Schema, v listview.View) {
	rows := Rows(schema, v)
	t.SetRows(nil)
	t.SetColumns(Columns(schema, v.Rows))
	t.SetRows(rows)
	if t.Cursor() >= len(rows) {
		t.SetCursor(max(len(rows)-1, 0))
	}
}
