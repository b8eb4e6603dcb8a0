package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// SlackWebhookNotifier sends notifications to Slack via a webhook URL.
type SlackWebhookNotifier struct {
	WebhookURL string
	Client     *http.Client
}

// NewSlackWebhookNotifier creates a webhook-backed notifier.
func NewSlackWebhookNotifier(webhookURL string) *SlackWebhookNotifier {
	return &SlackWebhookNotifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts a message to the configured webhook.
func (s *SlackWebhookNotifier) Notify(ctx context.Context, eventType, message string) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}

	payload := map[string]string{"text": message}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack notification failed with status: %s", resp.Status)
	}
	return nil
}

// SlackAPINotifier sends notifications through the Slack Web API with a bot
// token, which allows posting into a named channel.
type SlackAPINotifier struct {
	client  *slack.Client
	channel string
}

// NewSlackAPINotifier creates an API-backed notifier.
func NewSlackAPINotifier(botToken, channel string) *SlackAPINotifier {
	return &SlackAPINotifier{
		client:  slack.New(botToken),
		channel: channel,
	}
}

// Notify posts a message into the configured channel.
func (s *SlackAPINotifier) Notify(ctx context.Context, eventType, message string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}
