// Package notify delivers transient user-facing notifications (toasts) and
// the domain events derived from them.
package notify

import (
	"context"
	"time"
)

// Kind is the severity of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Event topics. Notifications carrying a topic are also published as events.
const (
	TopicBudgetWarning  = "budget.warning"
	TopicBudgetExceeded = "budget.exceeded"
	TopicExpenseAdded   = "expense.added"
	TopicExpenseDeleted = "expense.deleted"
)

// Notification is a single transient message.
type Notification struct {
	Kind      Kind           `json:"kind"`
	Message   string         `json:"message"`
	Topic     string         `json:"topic,omitempty"`
	Owner     string         `json:"owner,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Notifier receives notifications. Implementations are fire-and-forget: they
// must not block on slow consumers and never report failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// New builds a notification of the given kind stamped with the current time.
func New(kind Kind, message string) Notification {
	return Notification{Kind: kind, Message: message, CreatedAt: time.Now()}
}

// Success builds a success notification.
func Success(message string) Notification { return New(KindSuccess, message) }

// Error builds an error notification.
func Error(message string) Notification { return New(KindError, message) }

// Warning builds a warning notification.
func Warning(message string) Notification { return New(KindWarning, message) }

// WithEvent attaches an event topic and payload.
func (n Notification) WithEvent(topic, owner string, payload map[string]any) Notification {
	n.Topic = topic
	n.Owner = owner
	n.Payload = payload
	return n
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Discard drops every notification.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(context.Context, Notification) {}
