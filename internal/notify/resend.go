package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/seravkin/notify-go/internal/database"
)

// ResendNotifier mirrors due reminders to a mailbox via the Resend API
type ResendNotifier struct {
	client      *resend.Client
	fromAddress string
	toAddress   string
}

// NewResendNotifier creates a new Resend email notifier
func NewResendNotifier(apiKey, from, to string) *ResendNotifier {
	if apiKey == "" {
		return nil
	}
	return &ResendNotifier{
		client:      resend.NewClient(apiKey),
		fromAddress: from,
		toAddress:   to,
	}
}

// IsConfigured returns true if the notifier has server-side config
func (r *ResendNotifier) IsConfigured() bool {
	return r.client != nil && r.fromAddress != "" && r.toAddress != ""
}

// Send emails the due reminder
func (r *ResendNotifier) Send(ctx context.Context, event database.DueEvent) error {
	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      []string{r.toAddress},
		Subject: fmt.Sprintf("Reminder: %s", event.Text),
		Html:    r.formatEmailHTML(event),
	}

	if _, err := r.client.Emails.Send(params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	fmt.Printf("Email notification sent to %s for reminder: %s\n", r.toAddress, event.Text)
	return nil
}

// Name returns the notifier name
func (r *ResendNotifier) Name() string {
	return "resend"
}

// formatEmailHTML creates the HTML email body
func (r *ResendNotifier) formatEmailHTML(event database.DueEvent) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
  <div style="background-color: white; border-radius: 8px; padding: 24px; box-shadow: 0 2px 4px rgba(0,0,0,0.1);">
    <div style="margin-bottom: 16px;">
      <span style="background-color: #28a745; color: white; padding: 4px 12px; border-radius: 4px; font-size: 12px; font-weight: 600;">Reminder</span>
    </div>

    <h2 style="margin: 0 0 16px 0; color: #333;">%s</h2>

    <hr style="margin-top: 32px; border: none; border-top: 1px solid #eee;">
    <p style="color: #999; font-size: 12px; margin-top: 16px;">
      notify-go reminder bot<br>
      <span style="color: #ccc;">Sent at %s</span>
    </p>
  </div>
</body>
</html>`,
		event.Text,
		time.Now().Format("Jan 2, 2006 3:04 PM"),
	)
}
