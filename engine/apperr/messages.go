package apperr

import (
	"errors"

	"dario.cat/mergo"
)

// KindMissingFields keys the table entry used for local required-field
// failures, as opposed to a 400 answered by the backend.
const KindMissingFields Kind = "missing_fields"

// Table maps error kinds to user-facing text.
type Table map[Kind]string

// DefaultTable returns the generic messages shown by the panel.
func DefaultTable() Table {
	return Table{
		KindNetwork:         "No se pudo conectar con el servidor. Verificá tu conexión.",
		KindAuth:            "Tu sesión expiró o tu usuario cambió. Por favor, volvé a iniciar sesión.",
		KindValidation:      "Datos inválidos",
		KindMissingFields:   "Completá todos los campos requeridos",
		KindConflict:        "El registro ya existe",
		KindNotFound:        "Registro no encontrado",
		KindForbidden:       "No tenés permisos para realizar esta acción",
		KindSelfDeletion:    "No podés eliminar tu propio usuario mientras tenés la sesión activa",
		KindRateLimit:       "Demasiadas solicitudes. Esperá un momento e intentá de nuevo.",
		KindPaymentRequired: "Saldo insuficiente para enviar SMS",
		KindServer:          "Error del servidor. Intentá nuevamente más tarde.",
		KindParse:           "Respuesta inválida del servidor",
		KindUnexpected:      "Ocurrió un error inesperado",
	}
}

// With returns a copy of t where every entry of overrides wins.
func (t Table) With(overrides Table) Table {
	out := Table{}
	if err := mergo.Merge(&out, t); err != nil {
		return t
	}
	if err := mergo.Merge(&out, overrides, mergo.WithOverride); err != nil {
		return t
	}
	return out
}

// Message picks the text to show for err: the server supplied message when
// present, otherwise the table entry for the error kind.
func Message(err error, t Table) string {
	if t == nil {
		t = DefaultTable()
	}
	var e *Error
	if !errors.As(err, &e) {
		return lookup(t, KindUnexpected)
	}
	if e.ServerMessage != "" && e.Kind != KindNetwork {
		return e.ServerMessage
	}
	if e.Kind == KindValidation && len(e.Fields) > 0 && e.Status == 0 {
		return lookup(t, KindMissingFields)
	}
	return lookup(t, e.Kind)
}

func lookup(t Table, k Kind) string {
	if msg, ok := t[k]; ok && msg != "" {
		return msg
	}
	if msg, ok := DefaultTable()[k]; ok {
		return msg
	}
	return DefaultTable()[KindUnexpected]
}
