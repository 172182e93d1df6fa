// Package notify delivers alert payloads to external channels. Delivery is
// best-effort and fire-and-forget; the pipeline never blocks on it.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Alert is the structured payload emitted when an article is assigned
// critical risk.
type Alert struct {
	Title string
	Body  string
}

// Notifier forwards alerts to one outbound channel.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// TelegramNotifier posts alerts to a Telegram chat via the bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier registers the bot token and chat identifier.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether both credentials are present.
func (n *TelegramNotifier) Configured() bool {
	return n.botToken != "" && n.chatID != ""
}

// Send posts the alert as a Markdown message.
func (n *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	if !n.Configured() {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", fmt.Sprintf("*%s*\n%s", alert.Title, alert.Body))
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}
