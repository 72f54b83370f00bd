// Package email delivers notification email to CRM users.
package email

import (
	"context"
	"time"

	"movecrm_backend/platform/config"
	"movecrm_backend/platform/logger"
)

// FollowUpReminder is everything the reminder email shows.
type FollowUpReminder struct {
	AssigneeName string
	CustomerName string
	Phone        string
	ScheduledAt  time.Time
	Note         string
	LeadStatus   string
}

type Sender interface {
	SendFollowUpReminder(ctx context.Context, toEmail string, r FollowUpReminder) error
}

// NewSender returns an SMTP sender, or a logging no-op sender when SMTP is not
// configured.
func NewSender(cfg config.SMTPConfig, log *logger.Logger) Sender {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{log: log}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

type NoopSender struct {
	log *logger.Logger
}

func (s NoopSender) SendFollowUpReminder(_ context.Context, toEmail string, r FollowUpReminder) error {
	if s.log != nil {
		s.log.Info("email disabled, reminder not sent", "to", toEmail, "customer", r.CustomerName)
	}
	return nil
}

func renderFollowUpReminder(r FollowUpReminder) (string, error) {
	return renderEmailTemplate("followup_reminder.html", followUpReminderEmailData{
		baseEmailData: baseEmailData{
			Title:   "Follow-up reminder",
			Heading: "Follow-up reminder",
		},
		AssigneeName: r.AssigneeName,
		CustomerName: r.CustomerName,
		Phone:        r.Phone,
		ScheduledAt:  r.ScheduledAt.UTC().Format("Mon 2 Jan 2006, 15:04 MST"),
		Note:         r.Note,
		Status:       r.LeadStatus,
	})
}
