// Package email delivers follow-up reminder mail over SMTP.
package email

import (
	"context"

	"crm_pipeline_backend/platform/config"
)

// Sender delivers reminder emails.
type Sender interface {
	// SendTaskReminderEmail notifies the owner that a follow-up task is due.
	SendTaskReminderEmail(ctx context.Context, toEmail, ownerName, taskTitle, leadTitle, dueDate string) error
}

// NewSender builds the configured Sender. When email delivery is disabled the
// returned sender silently drops messages, so callers never branch on config.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}

// NoopSender drops all mail. Used in development and tests.
type NoopSender struct{}

func (NoopSender) SendTaskReminderEmail(context.Context, string, string, string, string, string) error {
	return nil
}
