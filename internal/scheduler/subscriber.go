package scheduler

import (
	"context"

	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/logger"
)

// RegisterHandlers subscribes the reminder scheduler to the task lifecycle.
// Each generated follow-up gets a reminder enqueued for its due date; a
// failed enqueue is logged and skipped, reminders are best effort next to
// the committed tasks. Completions are recorded so the audit trail shows why
// a scheduled reminder will be dropped at delivery.
func RegisterHandlers(bus events.Bus, reminders ReminderScheduler, log *logger.Logger) {
	if reminders == nil {
		return
	}

	bus.Subscribe(events.TaskCompleted{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		e, ok := event.(events.TaskCompleted)
		if !ok {
			return nil
		}
		// The worker re-reads the task at delivery time and skips finished
		// ones, so there is nothing to cancel here.
		log.Info("task completed; scheduled reminder will be skipped",
			"taskId", e.TaskID, "completedAt", e.OccurredAt())
		return nil
	}))

	bus.Subscribe(events.FollowupTasksGenerated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.FollowupTasksGenerated)
		if !ok {
			return nil
		}

		for _, task := range e.Tasks {
			payload := FollowupReminderPayload{
				TaskID:  task.TaskID.String(),
				LeadID:  e.LeadID.String(),
				OwnerID: e.OwnerID.String(),
			}
			if err := reminders.ScheduleFollowupReminder(ctx, payload, task.DueAt); err != nil {
				log.Error("failed to schedule followup reminder",
					"error", err, "taskId", task.TaskID, "leadId", e.LeadID)
			}
		}
		return nil
	}))
}
