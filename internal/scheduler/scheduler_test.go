package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"movecrm_backend/internal/email"
	"movecrm_backend/internal/events"
	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/internal/leads/ports"
	"movecrm_backend/platform/apperr"
	"movecrm_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerCfg struct {
	url   string
	queue string
}

func (c schedulerCfg) GetRedisURL() string       { return c.url }
func (c schedulerCfg) GetRedisTLSInsecure() bool { return false }
func (c schedulerCfg) GetAsynqQueueName() string { return c.queue }
func (c schedulerCfg) GetAsynqConcurrency() int  { return 1 }

func TestClientSchedulesReminderOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(schedulerCfg{url: "redis://" + mr.Addr(), queue: "reminders"})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	payload := FollowUpReminderPayload{LeadID: uuid.NewString(), FollowUpID: uuid.NewString()}
	runAt := time.Now().Add(time.Hour)

	require.NoError(t, client.ScheduleFollowUpReminder(context.Background(), payload, runAt))
	require.NoError(t, client.ScheduleFollowUpReminder(context.Background(), payload, runAt))

	members, err := mr.ZMembers("asynq:{reminders}:scheduled")
	require.NoError(t, err)
	assert.Equal(t, []string{"followup:" + payload.FollowUpID}, members)
}

func TestNewClientRequiresRedis(t *testing.T) {
	_, err := NewClient(schedulerCfg{})
	assert.Error(t, err)

	var nilClient *Client
	assert.NoError(t, nilClient.ScheduleFollowUpReminder(context.Background(), FollowUpReminderPayload{}, time.Now()))
}

type recordingScheduler struct {
	payloads []FollowUpReminderPayload
	runAt    []time.Time
}

func (r *recordingScheduler) ScheduleFollowUpReminder(_ context.Context, p FollowUpReminderPayload, at time.Time) error {
	r.payloads = append(r.payloads, p)
	r.runAt = append(r.runAt, at)
	return nil
}

func TestSubscriberSchedulesOnFollowUpScheduled(t *testing.T) {
	bus := events.NewInMemoryBus(logger.Nop())
	sched := &recordingScheduler{}
	NewReminderSubscriber(sched, logger.Nop()).Subscribe(bus)

	leadID, fuID := uuid.New(), uuid.New()
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	bus.Publish(context.Background(), events.FollowUpScheduled{LeadID: leadID, FollowUpID: fuID, ScheduledAt: at})
	bus.Wait()

	require.Len(t, sched.payloads, 1)
	assert.Equal(t, FollowUpReminderPayload{LeadID: leadID.String(), FollowUpID: fuID.String()}, sched.payloads[0])
	assert.Equal(t, at, sched.runAt[0])
}

type fakeLookup struct {
	lead *domain.Lead
	fu   domain.FollowUp
	err  error
}

func (f fakeLookup) FollowUpForReminder(context.Context, uuid.UUID, uuid.UUID) (*domain.Lead, domain.FollowUp, error) {
	return f.lead, f.fu, f.err
}

type fakeUsers map[uuid.UUID]ports.UserInfo

func (f fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (ports.UserInfo, error) {
	u, ok := f[id]
	if !ok {
		return ports.UserInfo{}, ports.ErrUserNotFound
	}
	return u, nil
}

type sentMail struct {
	to string
	r  email.FollowUpReminder
}

type captureSender struct{ sent []sentMail }

func (c *captureSender) SendFollowUpReminder(_ context.Context, to string, r email.FollowUpReminder) error {
	c.sent = append(c.sent, sentMail{to: to, r: r})
	return nil
}

func reminderTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewFollowUpReminderTask(FollowUpReminderPayload{LeadID: uuid.NewString(), FollowUpID: uuid.NewString()})
	require.NoError(t, err)
	return task
}

func TestReminderHandler(t *testing.T) {
	salesID := uuid.New()
	users := fakeUsers{salesID: {ID: salesID, Name: "Priya", Email: "priya@example.com", Role: "SALES", Active: true}}
	scheduledAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	newLead := func(assigned *uuid.UUID) *domain.Lead {
		return &domain.Lead{
			Profile:    domain.Profile{FirstName: "Ravi", LastName: "Kumar", Phone: "+919876543210"},
			Status:     domain.StatusContacted,
			AssignedTo: assigned,
		}
	}
	pending := domain.FollowUp{ID: uuid.New(), ScheduledAt: scheduledAt, Note: "call back", Status: domain.FollowUpPending}

	t.Run("emails assignee", func(t *testing.T) {
		sender := &captureSender{}
		h := NewReminderHandler(fakeLookup{lead: newLead(&salesID), fu: pending}, users, sender, logger.Nop())

		require.NoError(t, h.HandleFollowUpReminder(context.Background(), reminderTask(t)))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "priya@example.com", sender.sent[0].to)
		assert.Equal(t, "Ravi Kumar", sender.sent[0].r.CustomerName)
		assert.Equal(t, "CONTACTED", sender.sent[0].r.LeadStatus)
		assert.Equal(t, scheduledAt, sender.sent[0].r.ScheduledAt)
	})

	t.Run("skips completed follow-up", func(t *testing.T) {
		done := pending
		done.Status = domain.FollowUpCompleted
		sender := &captureSender{}
		h := NewReminderHandler(fakeLookup{lead: newLead(&salesID), fu: done}, users, sender, logger.Nop())

		require.NoError(t, h.HandleFollowUpReminder(context.Background(), reminderTask(t)))
		assert.Empty(t, sender.sent)
	})

	t.Run("skips unassigned lead", func(t *testing.T) {
		sender := &captureSender{}
		h := NewReminderHandler(fakeLookup{lead: newLead(nil), fu: pending}, users, sender, logger.Nop())

		require.NoError(t, h.HandleFollowUpReminder(context.Background(), reminderTask(t)))
		assert.Empty(t, sender.sent)
	})

	t.Run("missing follow-up is not retried", func(t *testing.T) {
		sender := &captureSender{}
		h := NewReminderHandler(fakeLookup{err: apperr.NotFound("follow-up not found")}, users, sender, logger.Nop())

		assert.NoError(t, h.HandleFollowUpReminder(context.Background(), reminderTask(t)))
	})

	t.Run("store failure is retried", func(t *testing.T) {
		h := NewReminderHandler(fakeLookup{err: errors.New("db down")}, users, &captureSender{}, logger.Nop())

		err := h.HandleFollowUpReminder(context.Background(), reminderTask(t))
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("bad payload skips retry", func(t *testing.T) {
		h := NewReminderHandler(fakeLookup{}, users, &captureSender{}, logger.Nop())

		err := h.HandleFollowUpReminder(context.Background(), asynq.NewTask(TaskFollowUpReminder, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}
