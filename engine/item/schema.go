package item

import (
	"fmt"
	"strconv"
	"strings"
)

// Requirement states when a field must be filled in a form.
type Requirement int

const (
	Optional Requirement = iota
	Required
	RequiredOnCreate
)

// Field describes one attribute of a resource.
type Field struct {
	Name        string
	Label       string
	Requirement Requirement
	// Rules is a go-playground/validator tag applied to non-empty values.
	Rules string
	// UpdateName overrides Name in update payloads (usuario -> nuevo_usuario).
	UpdateName string
	Secret     bool
	Immutable  bool
	Hidden     bool
	Default    string
}

// WireName returns the payload name of the field for the given operation.
func (f Field) WireName(update bool) string {
	if update && f.UpdateName != "" {
		return f.UpdateName
	}
	return f.Name
}

// Schema describes a managed resource: its identity field, its form fields
// and the nouns used in user-facing messages.
type Schema struct {
	Name     string
	Noun     string
	Plural   string
	KeyField string
	// KeyFallback is used as identity when a record lacks KeyField.
	KeyFallback string
	Fields      []Field
	// SearchFields are matched by local search in addition to the key.
	SearchFields []string
	ReadOnly     bool
	CreateOnly   bool
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// KeySpec returns the identity field.
func (s Schema) KeySpec() Field {
	f, _ := s.Field(s.KeyField)
	return f
}

// Columns returns the fields shown in tables, key first.
func (s Schema) Columns() []Field {
	cols := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Secret || f.Hidden {
			continue
		}
		cols = append(cols, f)
	}
	return cols
}

// Decode converts a decoded JSON object into an Item. Non-string scalars
// are formatted; nested values are ignored.
func (s Schema) Decode(raw map[string]any) (Item, error) {
	it := Item{Fields: make(map[string]string, len(raw))}
	for k, v := range raw {
		if str, ok := scalarString(v); ok {
			it.Fields[k] = str
		}
	}
	it.Key = it.Fields[s.KeyField]
	if it.Key == "" && s.KeyFallback != "" {
		it.Key = it.Fields[s.KeyFallback]
	}
	if it.Key == "" {
		return Item{}, fmt.Errorf("%s record has no %q field", s.Name, s.KeyField)
	}
	return it, nil
}

// DecodeAll decodes a list payload, failing on the first malformed record.
func (s Schema) DecodeAll(raws []map[string]any) ([]Item, error) {
	items := make([]Item, 0, len(raws))
	for i, raw := range raws {
		it, err := s.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case nil:
		return "", true
	default:
		return "", false
	}
}

// Body builds a request payload from form values. On update, blank
// optional fields are left out, immutable fields are never sent and
// renamed fields use their UpdateName.
func (s Schema) Body(values map[string]string, update bool) map[string]any {
	body := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		v := strings.TrimSpace(values[f.Name])
		if f.Secret {
			v = values[f.Name]
		}
		if update && f.Immutable {
			continue
		}
		if v == "" {
			if update && f.Requirement != Required {
				continue
			}
			if !update && f.Default != "" {
				v = f.Default
			}
		}
		if v == "" && f.Requirement == Optional {
			continue
		}
		body[f.WireName(update)] = v
	}
	return body
}

// Values returns the form values held by an item, secrets blanked.
func (s Schema) Values(it Item) map[string]string {
	values := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		if f.Secret {
			values[f.Name] = ""
			continue
		}
		values[f.Name] = it.Get(f.Name)
	}
	values[s.KeyField] = it.Key
	return values
}
