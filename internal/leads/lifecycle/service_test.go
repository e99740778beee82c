package lifecycle

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/internal/leads/repository"
	"crm_pipeline_backend/internal/leads/transport"
	"crm_pipeline_backend/platform/apperr"
	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	leads        map[uuid.UUID]repository.Lead
	similar      bool
	failTitles   map[string]bool
	tasks        []repository.TaskRecord
	interactions []repository.InteractionRecord
	statusWrites []repository.StatusChangeParams
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:      make(map[uuid.UUID]repository.Lead),
		failTitles: make(map[string]bool),
	}
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) ExistsSimilar(context.Context, string, *uuid.UUID) (bool, error) {
	return f.similar, nil
}

func (f *fakeStore) writeTasks(tasks []repository.TaskRecord) []repository.TaskFailure {
	var failures []repository.TaskFailure
	for _, t := range tasks {
		if f.failTitles[t.Title] {
			failures = append(failures, repository.TaskFailure{Title: t.Title, Err: context.DeadlineExceeded})
			continue
		}
		f.tasks = append(f.tasks, t)
	}
	return failures
}

func (f *fakeStore) CreateWithFollowups(_ context.Context, params repository.CreateLeadParams, tasks []repository.TaskRecord) (repository.Lead, []repository.TaskFailure, error) {
	now := time.Now()
	lead := repository.Lead{
		ID: params.ID, Title: params.Title, Description: params.Description,
		Value: params.Value, Status: params.Status, Priority: params.Priority,
		Source: params.Source, ExpectedCloseDate: params.ExpectedCloseDate,
		ClientID: params.ClientID, OwnerID: params.OwnerID,
		CreatedAt: now, UpdatedAt: now,
	}
	f.leads[lead.ID] = lead
	return lead, f.writeTasks(tasks), nil
}

func (f *fakeStore) ApplyStatusChange(_ context.Context, params repository.StatusChangeParams) ([]repository.TaskFailure, error) {
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	lead.Status = params.NewStatus
	lead.UpdatedAt = time.Now()
	f.leads[params.LeadID] = lead
	f.interactions = append(f.interactions, params.Interaction)
	f.statusWrites = append(f.statusWrites, params)
	return f.writeTasks(params.Tasks), nil
}

// recordingBus captures published events synchronously for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) generated() []events.FollowupTasksGenerated {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.FollowupTasksGenerated
	for _, e := range b.events {
		if g, ok := e.(events.FollowupTasksGenerated); ok {
			out = append(out, g)
		}
	}
	return out
}

func newTestService(store *fakeStore, bus events.Bus) *Service {
	svc := New(store, domain.DefaultRules(), bus, logger.New("development"))
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreate_NewLeadGetsOneFollowupTask(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := newTestService(store, bus)
	owner := uuid.New()

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{Title: "Acme Expansion"}, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lead.Status != "new" {
		t.Fatalf("expected status new, got %q", lead.Status)
	}
	if lead.Priority != "medium" {
		t.Fatalf("expected default priority medium, got %q", lead.Priority)
	}
	if len(store.tasks) != 1 {
		t.Fatalf("expected exactly 1 follow-up task, got %d", len(store.tasks))
	}

	task := store.tasks[0]
	if task.Title != "Initial follow-up: Acme Expansion" {
		t.Fatalf("unexpected task title %q", task.Title)
	}
	if task.Priority != domain.PriorityHigh {
		t.Fatalf("expected high priority, got %q", task.Priority)
	}
	wantDue := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	if !task.DueAt.Equal(wantDue) {
		t.Fatalf("expected due %v (1 day out), got %v", wantDue, task.DueAt)
	}
	if task.OwnerID != owner || task.LeadID != lead.ID {
		t.Fatalf("task references wrong owner/lead: %+v", task)
	}
}

func TestCreate_BlankTitleIsValidationError(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingBus{})

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := svc.Create(context.Background(), transport.CreateLeadRequest{Title: title}, uuid.New())
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("title %q: expected validation error, got %v", title, err)
		}
	}
	if len(store.leads) != 0 || len(store.tasks) != 0 {
		t.Fatal("validation failure must not write state")
	}
}

func TestCreate_NegativeValueIsValidationError(t *testing.T) {
	svc := newTestService(newFakeStore(), &recordingBus{})

	value := -100.0
	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{Title: "Deal", Value: &value}, uuid.New())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreate_SimilarTitleIsConflict(t *testing.T) {
	store := newFakeStore()
	store.similar = true
	svc := newTestService(store, &recordingBus{})

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{Title: "acme expansion deal"}, uuid.New())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(store.leads) != 0 {
		t.Fatal("conflict must not write state")
	}
}

func TestCreate_TaskFailureDoesNotBlockLead(t *testing.T) {
	store := newFakeStore()
	store.failTitles["Initial follow-up: Acme"] = true
	bus := &recordingBus{}
	svc := newTestService(store, bus)

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{Title: "Acme"}, uuid.New())
	if err != nil {
		t.Fatalf("lead creation must not fail on task failure: %v", err)
	}
	if _, ok := store.leads[lead.ID]; !ok {
		t.Fatal("lead must be persisted")
	}
	if len(store.tasks) != 0 {
		t.Fatalf("expected no tasks persisted, got %d", len(store.tasks))
	}

	generated := bus.generated()
	if len(generated) != 1 {
		t.Fatalf("expected 1 generation event, got %d", len(generated))
	}
	if len(generated[0].Failed) != 1 || generated[0].Failed[0] != "Initial follow-up: Acme" {
		t.Fatalf("failure must be reported out-of-band: %+v", generated[0])
	}
	if len(generated[0].Tasks) != 0 {
		t.Fatalf("failed task must not appear as generated: %+v", generated[0].Tasks)
	}
}

func seedLead(store *fakeStore, status domain.LeadStatus) repository.Lead {
	lead := repository.Lead{
		ID:        uuid.New(),
		Title:     "Acme Expansion",
		Status:    status,
		Priority:  domain.PriorityMedium,
		OwnerID:   uuid.New(),
		CreatedAt: time.Now().Add(-48 * time.Hour),
		UpdatedAt: time.Now().Add(-48 * time.Hour),
	}
	store.leads[lead.ID] = lead
	return lead
}

func TestUpdateStatus_QualifiedWritesAuditAndTwoTasks(t *testing.T) {
	store := newFakeStore()
	lead := seedLead(store, domain.StatusNew)
	bus := &recordingBus{}
	svc := newTestService(store, bus)
	actor := uuid.New()

	err := svc.UpdateStatus(context.Background(), lead.ID, transport.UpdateStatusRequest{Status: "qualified"}, actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.interactions) != 1 {
		t.Fatalf("expected exactly 1 audit interaction, got %d", len(store.interactions))
	}
	in := store.interactions[0]
	if in.Type != InteractionTypeSystem {
		t.Fatalf("expected system interaction, got %q", in.Type)
	}
	if in.Subject != "Status changed: new → qualified" {
		t.Fatalf("unexpected subject %q", in.Subject)
	}
	if !strings.Contains(in.Description, "new") || !strings.Contains(in.Description, "qualified") {
		t.Fatalf("default description must mention both statuses: %q", in.Description)
	}
	if in.UserID != actor || in.LeadID != lead.ID {
		t.Fatalf("interaction references wrong actor/lead: %+v", in)
	}

	if len(store.tasks) != 2 {
		t.Fatalf("expected 2 generated tasks for qualified, got %d", len(store.tasks))
	}
	if store.leads[lead.ID].Status != domain.StatusQualified {
		t.Fatalf("status not applied: %q", store.leads[lead.ID].Status)
	}
}

func TestUpdateStatus_NotesBecomeInteractionDescription(t *testing.T) {
	store := newFakeStore()
	lead := seedLead(store, domain.StatusNew)
	svc := newTestService(store, &recordingBus{})

	notes := "Call went well, decision maker engaged"
	err := svc.UpdateStatus(context.Background(), lead.ID, transport.UpdateStatusRequest{Status: "qualified", Notes: &notes}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.interactions[0].Description != notes {
		t.Fatalf("expected notes as description, got %q", store.interactions[0].Description)
	}
}

func TestUpdateStatus_LostGeneratesNoTasks(t *testing.T) {
	store := newFakeStore()
	lead := seedLead(store, domain.StatusNegotiation)
	svc := newTestService(store, &recordingBus{})

	err := svc.UpdateStatus(context.Background(), lead.ID, transport.UpdateStatusRequest{Status: "lost"}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.interactions) != 1 {
		t.Fatalf("expected the audit interaction, got %d", len(store.interactions))
	}
	if len(store.tasks) != 0 {
		t.Fatalf("lost must generate zero tasks, got %d", len(store.tasks))
	}
}

func TestUpdateStatus_ReopeningToNewGeneratesNoTasks(t *testing.T) {
	store := newFakeStore()
	lead := seedLead(store, domain.StatusClosed)
	svc := newTestService(store, &recordingBus{})

	err := svc.UpdateStatus(context.Background(), lead.ID, transport.UpdateStatusRequest{Status: "new"}, uuid.New())
	if err != nil {
		t.Fatalf("re-opening must be permitted: %v", err)
	}
	if store.leads[lead.ID].Status != domain.StatusNew {
		t.Fatalf("status not applied: %q", store.leads[lead.ID].Status)
	}
	if len(store.tasks) != 0 {
		t.Fatalf("creation-only rules must not fire on re-open, got %d tasks", len(store.tasks))
	}
}

func TestUpdateStatus_UnknownLeadIsNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &recordingBus{})

	err := svc.UpdateStatus(context.Background(), uuid.New(), transport.UpdateStatusRequest{Status: "qualified"}, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateStatus_UnknownStatusIsValidationError(t *testing.T) {
	store := newFakeStore()
	lead := seedLead(store, domain.StatusNew)
	svc := newTestService(store, &recordingBus{})

	err := svc.UpdateStatus(context.Background(), lead.ID, transport.UpdateStatusRequest{Status: "archived"}, uuid.New())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.interactions) != 0 {
		t.Fatal("invalid status must not write state")
	}
}
