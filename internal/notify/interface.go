package notify

import "context"

// Event types
const (
	EventStart   = "on_start"
	EventSuccess = "on_success"
	EventFailure = "on_failure"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Notify(ctx context.Context, eventType string, message string) error
}

// Noop is a Notifier that discards everything.
type Noop struct{}

func (Noop) Notify(ctx context.Context, eventType, message string) error { return nil }
