package listview

import (
	"fmt"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/item"
)

// Mode selects the render source of a list view.
type Mode string

const (
	// Browsing pages through the cached collection.
	Browsing Mode = "browsing"
	// Filtering shows a server filtered result set, unpaginated.
	Filtering Mode = "filtering"
)

// Status describes the outcome of the last load.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusLoading      Status = "loading"
	StatusReady        Status = "ready"
	StatusFailed       Status = "failed"
	StatusAuthRequired Status = "auth_required"
)

// ViewState is the authoritative state of one list screen.
type ViewState struct {
	Mode          Mode        `json:"mode"`
	Page          int         `json:"page"`
	PageSize      int         `json:"page_size"`
	FilterText    string      `json:"filter_text"`
	Items         []item.Item `json:"items"`
	FilteredItems []item.Item `json:"filtered_items,omitempty"`
}

func (s ViewState) clone() ViewState {
	s.Items = item.CloneAll(s.Items)
	s.FilteredItems = item.CloneAll(s.FilteredItems)
	return s
}

// View is what a renderer draws. It is derived from ViewState by Project.
type View struct {
	Mode        Mode        `json:"mode"`
	Status      Status      `json:"status"`
	Rows        []item.Item `json:"rows"`
	Page        int         `json:"page"`
	TotalPages  int         `json:"total_pages"`
	Total       int         `json:"total"`
	RangeStart  int         `json:"range_start"`
	RangeEnd    int         `json:"range_end"`
	CanPrevious bool        `json:"can_previous"`
	CanNext     bool        `json:"can_next"`
	Info        string      `json:"info"`
	Placeholder string      `json:"placeholder,omitempty"`
	FilterText  string      `json:"filter_text,omitempty"`
	Searching   bool        `json:"searching"`
}

// Messages holds the user-facing texts of a list screen.
type Messages struct {
	Plural       string
	Loading      string
	Empty        string
	NoResults    string
	ErrorRow     string
	LoadFailed   string
	SearchFailed string
	AuthRequired string
	Table        apperr.Table
}

// MessagesFor builds the default texts for a resource.
func MessagesFor(schema item.Schema) Messages {
	plural := schema.Plural
	if plural == "" {
		plural = "registros"
	}
	return Messages{
		Plural:       plural,
		Loading:      fmt.Sprintf("Cargando %s...", plural),
		Empty:        fmt.Sprintf("No hay %s", plural),
		NoResults:    "No se encontraron resultados",
		ErrorRow:     fmt.Sprintf("Error al cargar los %s", plural),
		LoadFailed:   fmt.Sprintf("No se pudieron cargar los %s", plural),
		SearchFailed: fmt.Sprintf("Error al buscar %s", plural),
		AuthRequired: "Tu usuario cambió. Por favor, volvé a iniciar sesión",
		Table:        apperr.DefaultTable(),
	}
}

// TotalPages is ceil(n/pageSize) for a non-empty collection and 0 otherwise.
func TotalPages(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}

// PageSlice returns items[(page-1)*pageSize : page*pageSize], clipped to the
// collection bounds. It does not clamp page.
func PageSlice(items []item.Item, page, pageSize int) []item.Item {
	if pageSize <= 0 {
		return nil
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	start = min(max(start, 0), len(items))
	end = min(max(end, start), len(items))
	return items[start:end]
}

// Project computes the view of a state. It has no side effects.
func Project(state ViewState, status Status, msgs Messages) View {
	v := View{
		Mode:       state.Mode,
		Status:     status,
		Page:       state.Page,
		FilterText: state.FilterText,
	}
	if state.Mode == Filtering {
		v.Rows = item.CloneAll(state.FilteredItems)
		v.Total = len(v.Rows)
		if v.Total > 0 {
			v.TotalPages = 1
			v.RangeStart, v.RangeEnd = 1, v.Total
			v.Info = fmt.Sprintf("%d resultado(s) encontrado(s)", v.Total)
		} else {
			v.Info = msgs.NoResults
		}
	} else {
		v.Total = len(state.Items)
		v.TotalPages = TotalPages(v.Total, state.PageSize)
		v.Rows = item.CloneAll(PageSlice(state.Items, state.Page, state.PageSize))
		if len(v.Rows) > 0 {
			v.RangeStart = (state.Page-1)*state.PageSize + 1
			v.RangeEnd = v.RangeStart + len(v.Rows) - 1
			v.Info = fmt.Sprintf("Mostrando %s %d–%d de %d", msgs.Plural, v.RangeStart, v.RangeEnd, v.Total)
		} else {
			v.Info = msgs.Empty
		}
		v.CanPrevious = state.Page > 1 && v.TotalPages > 0
		v.CanNext = state.Page < v.TotalPages
	}
	if v.Rows == nil {
		v.Rows = []item.Item{}
	}
	switch status {
	case StatusLoading:
		v.Placeholder = msgs.Loading
	case StatusFailed:
		v.Placeholder = msgs.ErrorRow
	case StatusAuthRequired:
		v.Placeholder = msgs.AuthRequired
	default:
		if len(v.Rows) == 0 {
			v.Placeholder = v.Info
		}
	}
	return v
}
