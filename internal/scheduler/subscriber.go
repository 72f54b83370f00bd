package scheduler

import (
	"context"

	"movecrm_backend/internal/events"
	"movecrm_backend/platform/logger"
)

// ReminderSubscriber turns scheduled follow-ups into delayed reminder tasks.
type ReminderSubscriber struct {
	scheduler ReminderScheduler
	log       *logger.Logger
}

func NewReminderSubscriber(s ReminderScheduler, log *logger.Logger) *ReminderSubscriber {
	return &ReminderSubscriber{scheduler: s, log: log}
}

func (s *ReminderSubscriber) Subscribe(bus events.Bus) {
	bus.Subscribe(events.FollowUpScheduled{}.EventName(), s)
}

func (s *ReminderSubscriber) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.FollowUpScheduled)
	if !ok {
		return nil
	}

	err := s.scheduler.ScheduleFollowUpReminder(ctx, FollowUpReminderPayload{
		LeadID:     e.LeadID.String(),
		FollowUpID: e.FollowUpID.String(),
	}, e.ScheduledAt)
	if err != nil {
		s.log.CollaboratorFailed("reminder scheduler", err)
		return err
	}
	return nil
}
