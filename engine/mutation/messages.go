package mutation

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/item"
)

// Messages holds the texts a coordinator notifies with.
type Messages struct {
	Created string
	Updated string
	Deleted string
	// SelfUpdated replaces Updated when the operator renamed their own
	// account. Empty keeps Updated.
	SelfUpdated string
	// ConfirmDelete is a format string receiving the record key.
	ConfirmDelete string
	// InvalidFormat is prefixed to the labels of fields with malformed values.
	InvalidFormat string
	Table         apperr.Table
}

// ConfirmPrompt renders the removal question for key.
func (m Messages) ConfirmPrompt(key string) string {
	return fmt.Sprintf(m.ConfirmDelete, key)
}

// MessagesFor returns the texts used for a resource. The built-in schemas
// get their own wording and conflict messages; any other schema gets a
// generic masculine form built from its noun.
func MessagesFor(schema item.Schema) Messages {
	noun := schema.Noun
	if noun == "" {
		noun = "registro"
	}
	title := capitalize(noun)
	m := Messages{
		Created:       title + " creado exitosamente",
		Updated:       title + " actualizado exitosamente",
		Deleted:       title + " eliminado exitosamente",
		ConfirmDelete: "¿Estás seguro de eliminar el " + noun + " %s?",
		InvalidFormat: "Revisá el formato de",
		Table:         apperr.DefaultTable(),
	}
	switch schema.Name {
	case item.Users.Name:
		m.SelfUpdated = "Usuario actualizado. Tu nombre de sesión cambió correctamente"
		m.Table = m.Table.With(apperr.Table{
			apperr.KindConflict: "El nombre de usuario ya está en uso",
			apperr.KindNotFound: "Usuario no encontrado",
		})
	case item.Branches.Name:
		m.Created = "Sucursal creada exitosamente"
		m.Updated = "Sucursal actualizada exitosamente"
		m.Deleted = "Sucursal eliminada exitosamente"
		m.ConfirmDelete = "¿Estás seguro de eliminar la sucursal %s?"
		m.Table = m.Table.With(apperr.Table{
			apperr.KindConflict:  "Ya existe una sucursal con ese código",
			apperr.KindNotFound:  "Sucursal no encontrada",
			apperr.KindForbidden: "No tenés permisos para eliminar sucursales",
		})
	case item.SMSDispatch.Name:
		m.Created = "SMS enviado correctamente"
		m.Table = m.Table.With(apperr.Table{
			apperr.KindValidation: "Datos inválidos para el envío de SMS",
			apperr.KindRateLimit:  "Se alcanzó el límite de envíos. Esperá un momento.",
		})
	}
	return m
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
