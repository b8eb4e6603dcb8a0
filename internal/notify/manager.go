package notify

import (
	"context"
	"os"

	"github.com/spf13/viper"

	"github.com/ASHUVINAYAK1/project-maker/internal/telemetry"
)

// Manager fans a notification out to the configured provider, filtered by the
// per-event enablement in config.
type Manager struct {
	notifier Notifier
}

// NewManager builds a manager from config and environment. With Slack
// disabled or unconfigured, every Notify is a no-op.
func NewManager() *Manager {
	m := &Manager{notifier: Noop{}}

	if !viper.GetBool("notifications.slack.enabled") {
		return m
	}

	if botToken := os.Getenv("SLACK_BOT_USER_TOKEN"); botToken != "" {
		m.notifier = NewSlackAPINotifier(botToken, viper.GetString("notifications.slack.channel"))
		return m
	}
	if webhook := os.Getenv("SLACK_WEBHOOK_URL"); webhook != "" {
		m.notifier = NewSlackWebhookNotifier(webhook)
		return m
	}

	telemetry.LogWarn("Slack notifications enabled but no token or webhook configured")
	return m
}

// WithNotifier overrides the provider, mainly for tests.
func (m *Manager) WithNotifier(n Notifier) *Manager {
	m.notifier = n
	return m
}

// Notify sends one message if the event type is enabled. Delivery failures
// are logged, never propagated: notifications must not break a run.
func (m *Manager) Notify(ctx context.Context, eventType, message string) {
	if !viper.GetBool("notifications.slack.events." + eventType) {
		return
	}
	if err := m.notifier.Notify(ctx, eventType, message); err != nil {
		telemetry.LogWarn("Failed to send notification", "event", eventType, "error", err)
	}
}
