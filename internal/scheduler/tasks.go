package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFollowUpReminder = "leads.followup.reminder"

type FollowUpReminderPayload struct {
	LeadID     string `json:"leadId"`
	FollowUpID string `json:"followUpId"`
}

func NewFollowUpReminderTask(payload FollowUpReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpReminder, data), nil
}

func ParseFollowUpReminderPayload(task *asynq.Task) (FollowUpReminderPayload, error) {
	var payload FollowUpReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpReminderPayload{}, err
	}
	return payload, nil
}
