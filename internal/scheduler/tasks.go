// Package scheduler delivers follow-up task reminders through asynq.
// Reminders are enqueued when the lifecycle engine generates follow-ups and
// processed by the worker binary when they come due.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFollowupReminder = "followups.reminder"

type FollowupReminderPayload struct {
	TaskID  string `json:"taskId"`
	LeadID  string `json:"leadId"`
	OwnerID string `json:"ownerId"`
}

func NewFollowupReminderTask(payload FollowupReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowupReminder, data), nil
}

func ParseFollowupReminderPayload(task *asynq.Task) (FollowupReminderPayload, error) {
	var payload FollowupReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowupReminderPayload{}, err
	}
	return payload, nil
}
