package notify

import (
	"context"

	"github.com/seravkin/notify-go/internal/database"
)

// Notifier delivers a due event over one channel
type Notifier interface {
	// Send delivers the due event
	Send(ctx context.Context, event database.DueEvent) error
	// Name returns the notifier type name (for logging)
	Name() string
	// IsConfigured returns true if the notifier has server-side config
	IsConfigured() bool
}
