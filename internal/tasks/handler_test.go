package tasks

import (
	"testing"
	"time"

	"crm_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

func TestTaskResponse_DueDateIsOptional(t *testing.T) {
	noDue := Task{
		ID:       uuid.New(),
		Title:    "Research prospect",
		Status:   StatusPending,
		Priority: domain.PriorityMedium,
		OwnerID:  uuid.New(),
	}

	resp := toTaskResponse(noDue)
	if resp.DueDate != nil {
		t.Fatalf("expected no due date on the wire, got %v", *resp.DueDate)
	}

	due := time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)
	noDue.DueDate = &due

	resp = toTaskResponse(noDue)
	if resp.DueDate == nil || *resp.DueDate != "2026-05-04" {
		t.Fatalf("due date not rendered: %+v", resp.DueDate)
	}
}

func TestNewTaskCompleted_CarriesTimestampAndRefs(t *testing.T) {
	leadID := uuid.New()
	task := Task{ID: uuid.New(), LeadID: &leadID, OwnerID: uuid.New()}

	event := newTaskCompleted(task)
	if event.OccurredAt().IsZero() {
		t.Fatal("completion event must carry a publication timestamp")
	}
	if event.TaskID != task.ID || event.OwnerID != task.OwnerID {
		t.Fatalf("task refs not carried: %+v", event)
	}
	if event.LeadID == nil || *event.LeadID != leadID {
		t.Fatalf("lead ref not carried: %+v", event)
	}
}

func TestFinished(t *testing.T) {
	if Finished(StatusPending) || Finished(StatusInProgress) {
		t.Fatal("open statuses must not count as finished")
	}
	if !Finished(StatusDone) || !Finished(StatusCancelled) {
		t.Fatal("done and cancelled must count as finished")
	}
}
