package notify

import (
	"context"

	"github.com/seravkin/notify-go/internal/database"
	"github.com/seravkin/notify-go/internal/telegram"
)

// TelegramNotifier delivers due events as plain chat messages
type TelegramNotifier struct {
	client *telegram.Client
}

// NewTelegramNotifier creates a Telegram notifier
func NewTelegramNotifier(client *telegram.Client) *TelegramNotifier {
	if client == nil {
		return nil
	}
	return &TelegramNotifier{client: client}
}

// Send delivers the event text to the chat it was created from
func (t *TelegramNotifier) Send(ctx context.Context, event database.DueEvent) error {
	return t.client.SendMessage(ctx, event.UserID, event.Text, nil)
}

// Name returns the notifier name
func (t *TelegramNotifier) Name() string {
	return "telegram"
}

// IsConfigured returns true if the notifier can deliver
func (t *TelegramNotifier) IsConfigured() bool {
	return t.client != nil
}
