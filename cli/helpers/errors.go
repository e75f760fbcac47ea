package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/mutation"
)

// CliError represents a CLI-specific error with enhanced context
type CliError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	ExitCode  int            `json:"-"`
	cause     error
	reported  bool
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CliError) Unwrap() error {
	return e.cause
}

// NewCliError creates a new CLI error with context
func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
		ExitCode:  ExitError,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// UsageError marks a bad invocation. It exits with ExitUsage.
func UsageError(message string, details ...string) *CliError {
	err := NewCliError("USAGE_ERROR", message, details...)
	err.ExitCode = ExitUsage
	return err
}

// WithContext adds context to the error
func (e *CliError) WithContext(key string, value any) *CliError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// MarkReported records that the error was already shown to the operator.
func (e *CliError) MarkReported() *CliError {
	e.reported = true
	return e
}

// Reported reports whether err was already shown to the operator.
func Reported(err error) bool {
	var cliErr *CliError
	return errors.As(err, &cliErr) && cliErr.reported
}

func (e *CliError) wrap(cause error) *CliError {
	e.cause = cause
	return e
}

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var e *apperr.Error
	return errors.As(err, &e) && e.Kind == apperr.KindNetwork && e.Timeout
}

// IsNetworkError checks if an error is a network-related error
func IsNetworkError(err error) bool {
	return err != nil && errors.Is(err, apperr.ErrNetwork)
}

// IsAuthError checks if an error is authentication-related
func IsAuthError(err error) bool {
	return err != nil && apperr.IsAuth(err)
}

// Categorize converts errors to structured CLI errors. User facing text
// comes from table; errors already categorized are returned unchanged.
func Categorize(err error, table apperr.Table) *CliError {
	if err == nil {
		return nil
	}
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	if table == nil {
		table = apperr.DefaultTable()
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, mutation.ErrDeclined):
		return NewCliError("OPERATION_CANCELED", "Operación cancelada").wrap(err)
	case IsTimeoutError(err):
		return NewCliError("OPERATION_TIMEOUT", "La operación excedió el tiempo de espera", err.Error()).wrap(err)
	case IsNetworkError(err):
		return NewCliError("NETWORK_ERROR", apperr.Message(err, table), err.Error()).wrap(err)
	case IsAuthError(err):
		e := NewCliError("AUTH_ERROR", apperr.Message(err, table), err.Error()).wrap(err)
		e.ExitCode = ExitAuth
		return e
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		e := NewCliError(kindCode(appErr.Kind), apperr.Message(err, table), err.Error()).wrap(err)
		if appErr.Kind == apperr.KindValidation && len(appErr.Fields) > 0 {
			e.WithContext("fields", appErr.Fields)
		}
		return e
	}
	return NewCliError("UNEXPECTED_ERROR", err.Error()).wrap(err)
}

func kindCode(k apperr.Kind) string {
	switch k {
	case apperr.KindValidation, apperr.KindMissingFields:
		return "VALIDATION_ERROR"
	case apperr.KindConflict:
		return "CONFLICT"
	case apperr.KindNotFound:
		return "NOT_FOUND"
	case apperr.KindForbidden, apperr.KindSelfDeletion:
		return "FORBIDDEN"
	case apperr.KindRateLimit:
		return "RATE_LIMITED"
	case apperr.KindPaymentRequired:
		return "PAYMENT_REQUIRED"
	case apperr.KindServer:
		return "SERVER_ERROR"
	case apperr.KindParse:
		return "PARSE_ERROR"
	default:
		return "UNEXPECTED_ERROR"
	}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cliErr *CliError
	if errors.As(err, &cliErr) && cliErr.ExitCode != 0 {
		return cliErr.ExitCode
	}
	if IsAuthError(err) {
		return ExitAuth
	}
	return ExitError
}
