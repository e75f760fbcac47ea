// Package apperr defines the error taxonomy shared by the list view, the
// mutation coordinator and the REST client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure by its user-visible meaning.
type Kind string

const (
	KindNetwork         Kind = "network"
	KindAuth            Kind = "auth"
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindSelfDeletion    Kind = "self_deletion"
	KindRateLimit       Kind = "rate_limit"
	KindPaymentRequired Kind = "payment_required"
	KindServer          Kind = "server"
	KindParse           Kind = "parse"
	KindUnexpected      Kind = "unexpected"
)

// Op names the backend operation that failed.
type Op string

const (
	OpList   Op = "list"
	OpSearch Op = "search"
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrAuth            = &Error{Kind: KindAuth}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrSelfDeletion    = &Error{Kind: KindSelfDeletion}
	ErrRateLimit       = &Error{Kind: KindRateLimit}
	ErrPaymentRequired = &Error{Kind: KindPaymentRequired}
	ErrServer          = &Error{Kind: KindServer}
	ErrUnexpected      = &Error{Kind: KindUnexpected}
)

// Error is the typed failure returned by every panel component.
type Error struct {
	Kind   Kind
	Op     Op
	Status int
	// ServerMessage is the detail/mensaje/message text sent by the backend.
	ServerMessage string
	// Fields lists the form fields that failed local validation.
	Fields []string
	// Timeout marks network errors caused by a deadline.
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " fields=%s", strings.Join(e.Fields, ","))
	}
	if e.ServerMessage != "" {
		b.WriteString(": ")
		b.WriteString(e.ServerMessage)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Status == 0
}

// New builds an error of the given kind.
func New(kind Kind, op Op, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation builds a local validation failure for the given fields.
func Validation(op Op, fields ...string) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: fields}
}

// Network wraps a transport failure.
func Network(op Op, err error, timeout bool) *Error {
	return &Error{Kind: KindNetwork, Op: op, Err: err, Timeout: timeout}
}

// FromStatus classifies an HTTP failure. A 403 on delete means the caller may
// not remove that record; on any other operation it means the session is gone.
func FromStatus(op Op, status int, serverMessage string) *Error {
	e := &Error{Op: op, Status: status, ServerMessage: strings.TrimSpace(serverMessage)}
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
	case status == http.StatusForbidden:
		if op == OpDelete {
			e.Kind = KindForbidden
		} else {
			e.Kind = KindAuth
		}
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusConflict:
		e.Kind = KindConflict
	case status == http.StatusPaymentRequired:
		e.Kind = KindPaymentRequired
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimit
	case status >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindUnexpected
	}
	return e
}

// KindOf extracts the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// IsAuth reports whether err means the session must be renewed.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}
