package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFollowUpReminder(t *testing.T) {
	html, err := renderFollowUpReminder(FollowUpReminder{
		AssigneeName: "Priya",
		CustomerName: "Ravi <Kumar>",
		Phone:        "+919876543210",
		ScheduledAt:  time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Note:         "confirm packing date",
		LeadStatus:   "CONTACTED",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Hi Priya,")
	assert.Contains(t, html, "Ravi &lt;Kumar&gt;")
	assert.Contains(t, html, "Mon 2 Mar 2026, 09:30 UTC")
	assert.Contains(t, html, "confirm packing date")
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
}

func TestSMTPMessageHeaders(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "", "", "crm@example.com", "Move CRM")
	msg, err := s.newMessage("sales@example.com", "Follow-up due: Ravi", "<p>hi</p>")
	require.NoError(t, err)

	require.Len(t, msg.GetToString(), 1)
	assert.Contains(t, msg.GetToString()[0], "sales@example.com")
	require.Len(t, msg.GetFromString(), 1)
	assert.Contains(t, msg.GetFromString()[0], "Move CRM")

	_, err = s.newMessage("not-an-address", "x", "y")
	assert.Error(t, err)
}

type smtpOff struct{}

func (smtpOff) GetSMTPHost() string         { return "" }
func (smtpOff) GetSMTPPort() int            { return 0 }
func (smtpOff) GetSMTPUsername() string     { return "" }
func (smtpOff) GetSMTPPassword() string     { return "" }
func (smtpOff) GetEmailFromName() string    { return "" }
func (smtpOff) GetEmailFromAddress() string { return "" }
func (smtpOff) IsSMTPEnabled() bool         { return false }

func TestNewSenderWithoutSMTP(t *testing.T) {
	s := NewSender(smtpOff{}, nil)
	_, ok := s.(NoopSender)
	require.True(t, ok)
	assert.NoError(t, s.SendFollowUpReminder(context.Background(), "a@b.c", FollowUpReminder{}))
}
