package components

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/limitedeportes/panel/cli/tui/models"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/mutation"
)

// FormWrapper wraps a Huh form with BaseModel integration
type FormWrapper struct {
	models.BaseModel
	form      *huh.Form
	canceled  bool
	completed bool
}

// NewFormWrapper creates a new form wrapper
func NewFormWrapper(ctx context.Context, form *huh.Form) *FormWrapper {
	return &FormWrapper{
		BaseModel: models.NewBaseModel(ctx),
		form:      form,
	}
}

func (f *FormWrapper) Init() tea.Cmd {
	return f.form.Init()
}

func (f *FormWrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		f.canceled = true
		return f, tea.Quit
	}
	f.BaseModel.Update(msg)
	form, cmd := f.form.Update(msg)
	if frm, ok := form.(*huh.Form); ok {
		f.form = frm
		switch f.form.State {
		case huh.StateCompleted:
			f.completed = true
			return f, tea.Quit
		case huh.StateAborted:
			f.canceled = true
			return f, tea.Quit
		}
	}
	return f, cmd
}

func (f *FormWrapper) View() string {
	return f.form.View()
}

// IsCanceled returns whether the form was canceled
func (f *FormWrapper) IsCanceled() bool {
	return f.canceled
}

// IsCompleted returns whether the form was completed
func (f *FormWrapper) IsCompleted() bool {
	return f.completed
}

// RecordForm is a huh form over the editable fields of a schema.
type RecordForm struct {
	Form   *huh.Form
	schema item.Schema
	values map[string]*string
}

// NewRecordForm builds the inputs for f. Hidden fields are skipped; an
// immutable key is shown in the title and left out on edit. Fields whose
// rule is a oneof list become selects.
func NewRecordForm(schema item.Schema, f mutation.Form) *RecordForm {
	rf := &RecordForm{schema: schema, values: make(map[string]*string, len(schema.Fields))}
	edit := f.Mode == mutation.ModeEdit
	fields := make([]huh.Field, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		if field.Hidden || (edit && field.Immutable) {
			continue
		}
		v := f.Values[field.Name]
		rf.values[field.Name] = &v
		fields = append(fields, fieldInput(field, &v, edit))
	}
	title := "Nuevo " + schema.Noun
	if edit {
		title = "Editar " + schema.Noun + " " + f.Original
	}
	rf.Form = huh.NewForm(huh.NewGroup(fields...).Title(title))
	return rf
}

func fieldInput(field item.Field, v *string, edit bool) huh.Field {
	title := field.Label
	if field.Requirement == item.Required || (!edit && field.Requirement == item.RequiredOnCreate) {
		title += " *"
	}
	if opts, ok := oneOf(field.Rules); ok {
		if *v == "" && field.Default != "" {
			*v = field.Default
		}
		return huh.NewSelect[string]().Title(title).Options(huh.NewOptions(opts...)...).Value(v)
	}
	in := huh.NewInput().Title(title).Value(v)
	if field.Secret {
		in = in.EchoMode(huh.EchoModePassword)
		if edit {
			in = in.Description("Dejá vacío para mantener la actual")
		}
	}
	return in
}

func oneOf(rules string) ([]string, bool) {
	for _, rule := range strings.Split(rules, ",") {
		if opts, ok := strings.CutPrefix(rule, "oneof="); ok {
			return strings.Fields(opts), true
		}
	}
	return nil, false
}

// Values returns the entered values keyed by field name.
func (r *RecordForm) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for name, v := range r.values {
		out[name] = *v
	}
	return out
}
