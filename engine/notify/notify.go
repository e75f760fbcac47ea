// Package notify carries user feedback (toasts, status lines) from the
// engine to whatever renders it. Notifiers never block their caller.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/limitedeportes/panel/pkg/logger"
)

// Severity classifies a notification.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// Notification is a delivered message. Message is rendered verbatim.
type Notification struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	At       time.Time `json:"at"`
}

// Notifier is a fire-and-forget sink for user feedback.
type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, message string, severity Severity)

func (f NotifierFunc) Notify(ctx context.Context, message string, severity Severity) {
	f(ctx, message, severity)
}

func newNotification(message string, severity Severity) Notification {
	return Notification{
		ID:       uuid.NewString(),
		Message:  message,
		Severity: severity,
		At:       time.Now(),
	}
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, string, Severity) {})

// Log writes notifications to the context logger.
type Log struct{}

func (Log) Notify(ctx context.Context, message string, severity Severity) {
	log := logger.FromContext(ctx)
	switch severity {
	case Error:
		log.Error(message, "severity", severity)
	case Warning:
		log.Warn(message, "severity", severity)
	default:
		log.Info(message, "severity", severity)
	}
}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, message string, severity Severity) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, message, severity)
		}
	}
}
