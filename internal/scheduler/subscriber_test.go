package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeBus runs handlers inline so assertions see their effects immediately.
type fakeBus struct {
	handlers map[string][]events.Handler
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string][]events.Handler)}
}

func (b *fakeBus) Subscribe(eventName string, handler events.Handler) {
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

func (b *fakeBus) Publish(ctx context.Context, event events.Event) {
	for _, h := range b.handlers[event.EventName()] {
		_ = h.Handle(ctx, event)
	}
}

type scheduledReminder struct {
	payload FollowupReminderPayload
	runAt   time.Time
}

type fakeReminders struct {
	scheduled []scheduledReminder
	err       error
}

func (f *fakeReminders) ScheduleFollowupReminder(_ context.Context, payload FollowupReminderPayload, runAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled = append(f.scheduled, scheduledReminder{payload: payload, runAt: runAt})
	return nil
}

func TestRegisterHandlers_SchedulesReminderPerGeneratedTask(t *testing.T) {
	bus := newFakeBus()
	reminders := &fakeReminders{}
	RegisterHandlers(bus, reminders, logger.New("test"))

	leadID, ownerID := uuid.New(), uuid.New()
	dueA := time.Now().AddDate(0, 0, 1)
	dueB := time.Now().AddDate(0, 0, 3)

	bus.Publish(context.Background(), events.FollowupTasksGenerated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		OwnerID:   ownerID,
		Tasks: []events.GeneratedTask{
			{TaskID: uuid.New(), Title: "Make first contact", DueAt: dueA},
			{TaskID: uuid.New(), Title: "Prepare proposal", DueAt: dueB},
		},
	})

	if len(reminders.scheduled) != 2 {
		t.Fatalf("expected a reminder per generated task, got %d", len(reminders.scheduled))
	}
	first := reminders.scheduled[0]
	if first.payload.LeadID != leadID.String() || first.payload.OwnerID != ownerID.String() {
		t.Fatalf("payload refs not carried: %+v", first.payload)
	}
	if !first.runAt.Equal(dueA) || !reminders.scheduled[1].runAt.Equal(dueB) {
		t.Fatalf("reminders must run at each task's due date: %+v", reminders.scheduled)
	}
}

func TestRegisterHandlers_EnqueueFailureIsSwallowed(t *testing.T) {
	bus := newFakeBus()
	reminders := &fakeReminders{err: errors.New("redis down")}
	RegisterHandlers(bus, reminders, logger.New("test"))

	bus.Publish(context.Background(), events.FollowupTasksGenerated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		OwnerID:   uuid.New(),
		Tasks:     []events.GeneratedTask{{TaskID: uuid.New(), DueAt: time.Now()}},
	})

	if len(reminders.scheduled) != 0 {
		t.Fatalf("failed enqueues must not be recorded: %+v", reminders.scheduled)
	}
}

func TestRegisterHandlers_ObservesTaskCompletions(t *testing.T) {
	bus := newFakeBus()
	RegisterHandlers(bus, &fakeReminders{}, logger.New("test"))

	name := events.TaskCompleted{}.EventName()
	if len(bus.handlers[name]) != 1 {
		t.Fatalf("expected a completion subscriber on %q, got %d", name, len(bus.handlers[name]))
	}

	// A completion must be absorbed without error even with no reminder
	// pending for the task.
	bus.Publish(context.Background(), events.TaskCompleted{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    uuid.New(),
		OwnerID:   uuid.New(),
	})
}
