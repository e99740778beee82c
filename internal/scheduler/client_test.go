package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "reminders" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestScheduleFollowupReminder_EnqueuesScheduledTask(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	runAt := time.Now().Add(24 * time.Hour)
	payload := FollowupReminderPayload{
		TaskID:  "0ec56b5d-9171-4d41-8cb8-6f4792f5a70e",
		LeadID:  "e5b5ec2f-6c68-4233-a2f5-9a4da2b415f8",
		OwnerID: "0b1561a5-02e7-41f0-9bbb-15e563ec2bb6",
	}
	if err := client.ScheduleFollowupReminder(context.Background(), payload, runAt); err != nil {
		t.Fatalf("failed to schedule reminder: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	scheduled, err := inspector.ListScheduledTasks("reminders")
	if err != nil {
		t.Fatalf("failed to list scheduled tasks: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("expected 1 scheduled task, got %d", len(scheduled))
	}
	if scheduled[0].Type != TaskFollowupReminder {
		t.Fatalf("unexpected task type %q", scheduled[0].Type)
	}

	parsed, err := ParseFollowupReminderPayload(asynq.NewTask(scheduled[0].Type, scheduled[0].Payload))
	if err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if parsed != payload {
		t.Fatalf("payload round trip mismatch: %+v", parsed)
	}
}
