package notify

import (
	"context"
	"fmt"

	"github.com/seravkin/notify-go/internal/database"
)

// Service fans a due event out to the configured channels. Chat delivery is
// the primary channel; its failure is returned so the dispatcher retries on
// the next tick. Extra channels are best effort.
type Service struct {
	chat  Notifier
	email Notifier
}

// NewService creates a notification service
func NewService(chat, email Notifier) *Service {
	return &Service{
		chat:  chat,
		email: email,
	}
}

// Deliver sends the due event over all configured channels
func (s *Service) Deliver(ctx context.Context, event database.DueEvent) error {
	if s.chat == nil || !s.chat.IsConfigured() {
		return fmt.Errorf("chat notifier not configured")
	}

	if err := s.chat.Send(ctx, event); err != nil {
		return fmt.Errorf("%s delivery failed: %w", s.chat.Name(), err)
	}

	if s.email != nil && s.email.IsConfigured() {
		if err := s.email.Send(ctx, event); err != nil {
			fmt.Printf("Notification: %s delivery failed: %v\n", s.email.Name(), err)
		}
	}

	return nil
}

// IsEmailAvailable returns true if email notifications can be used
func (s *Service) IsEmailAvailable() bool {
	return s.email != nil && s.email.IsConfigured()
}
