// Package lifecycle implements the lead lifecycle engine: validated lead
// creation, status transitions with audit interactions, and dispatch of the
// follow-up task generator.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/internal/leads/repository"
	"crm_pipeline_backend/internal/leads/transport"
	"crm_pipeline_backend/platform/apperr"
	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

// InteractionTypeSystem marks engine-authored audit interactions, distinct
// from user-authored client interactions.
const InteractionTypeSystem = "system"

// Store defines the data access interface needed by the lifecycle engine.
// This is a consumer-driven interface - only what lifecycle needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	ExistsSimilar(ctx context.Context, title string, clientID *uuid.UUID) (bool, error)
	CreateWithFollowups(ctx context.Context, params repository.CreateLeadParams, tasks []repository.TaskRecord) (repository.Lead, []repository.TaskFailure, error)
	ApplyStatusChange(ctx context.Context, params repository.StatusChangeParams) ([]repository.TaskFailure, error)
}

// Service applies lead lifecycle operations.
type Service struct {
	repo  Store
	rules domain.RuleSet
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// New creates the lifecycle engine.
func New(repo Store, rules domain.RuleSet, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		rules: rules,
		bus:   bus,
		log:   log,
		now:   time.Now,
	}
}

// Create validates and persists a new lead. The lead always starts in status
// new, and the initial follow-up task is generated in the same transaction.
// Task-generation failure never blocks lead creation: it is logged and
// reported on the event bus instead.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest, ownerID uuid.UUID) (transport.LeadResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return transport.LeadResponse{}, apperr.Validation("lead title is required")
	}
	if req.Value != nil && *req.Value < 0 {
		return transport.LeadResponse{}, apperr.Validation("lead value must not be negative")
	}

	priority := transport.PriorityOrDefault(req.Priority)
	if !domain.IsKnownPriority(priority) {
		return transport.LeadResponse{}, apperr.Validation("unknown lead priority")
	}

	closeDate, err := transport.ParseDate(req.ExpectedCloseDate)
	if err != nil {
		return transport.LeadResponse{}, apperr.Validation("expected close date must be formatted as YYYY-MM-DD")
	}

	exists, err := s.repo.ExistsSimilar(ctx, title, req.ClientID)
	if err != nil {
		return transport.LeadResponse{}, apperr.Operation("failed to check for similar leads", err)
	}
	if exists {
		return transport.LeadResponse{}, apperr.Conflict("a similar lead already exists")
	}

	now := s.now()
	leadID := uuid.New()
	planned := s.rules.Plan(domain.StatusNew, title, now)
	tasks := s.taskRecords(planned, leadID, ownerID, req.ClientID)

	lead, failures, err := s.repo.CreateWithFollowups(ctx, repository.CreateLeadParams{
		ID:                leadID,
		Title:             title,
		Description:       req.Description,
		Value:             req.Value,
		Status:            domain.StatusNew,
		Priority:          priority,
		Source:            req.Source,
		ExpectedCloseDate: closeDate,
		ClientID:          req.ClientID,
		OwnerID:           ownerID,
	}, tasks)
	if err != nil {
		return transport.LeadResponse{}, apperr.Operation("failed to create lead", err)
	}

	s.reportFailures(lead.ID, failures)
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Title:     lead.Title,
		OwnerID:   ownerID,
		ClientID:  lead.ClientID,
	})
	s.publishGenerated(ctx, lead.ID, ownerID, domain.StatusNew, tasks, failures)

	return transport.ToLeadResponse(lead), nil
}

// UpdateStatus applies a lifecycle transition. The status update and the
// audit interaction are atomic; follow-up tasks are the best-effort phase.
// Any known status may be assigned, including re-opening a closed lead, but
// task generation is keyed only to forward-progress states.
func (s *Service) UpdateStatus(ctx context.Context, leadID uuid.UUID, req transport.UpdateStatusRequest, actorID uuid.UUID) error {
	newStatus := domain.LeadStatus(req.Status)
	if !domain.IsKnownStatus(newStatus) {
		return apperr.Validation("unknown lead status")
	}

	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return apperr.Operation("failed to load lead", err)
	}

	oldStatus := lead.Status
	now := s.now()

	description := fmt.Sprintf("Lead status changed from %s to %s", oldStatus, newStatus)
	if req.Notes != nil && strings.TrimSpace(*req.Notes) != "" {
		description = *req.Notes
	}

	var planned []domain.PlannedTask
	if newStatus != domain.StatusNew {
		// the new-status rules fire on creation only
		planned = s.rules.Plan(newStatus, lead.Title, now)
	}
	tasks := s.taskRecords(planned, lead.ID, actorID, lead.ClientID)

	failures, err := s.repo.ApplyStatusChange(ctx, repository.StatusChangeParams{
		LeadID:    lead.ID,
		NewStatus: newStatus,
		Interaction: repository.InteractionRecord{
			ID:          uuid.New(),
			Type:        InteractionTypeSystem,
			Subject:     fmt.Sprintf("Status changed: %s → %s", oldStatus, newStatus),
			Description: description,
			ClientID:    lead.ClientID,
			LeadID:      lead.ID,
			UserID:      actorID,
			Date:        now,
		},
		Tasks: tasks,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return apperr.Operation("failed to update lead status", err)
	}

	s.log.StatusTransition(lead.ID.String(), string(oldStatus), string(newStatus), len(tasks)-len(failures))
	s.reportFailures(lead.ID, failures)
	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		ActorID:   actorID,
	})
	if len(tasks) > 0 {
		s.publishGenerated(ctx, lead.ID, actorID, newStatus, tasks, failures)
	}

	return nil
}

func (s *Service) taskRecords(planned []domain.PlannedTask, leadID, ownerID uuid.UUID, clientID *uuid.UUID) []repository.TaskRecord {
	records := make([]repository.TaskRecord, 0, len(planned))
	for _, p := range planned {
		records = append(records, repository.TaskRecord{
			ID:          uuid.New(),
			Title:       p.Title,
			Description: p.Description,
			DueAt:       p.DueAt,
			Priority:    p.Priority,
			OwnerID:     ownerID,
			LeadID:      leadID,
			ClientID:    clientID,
		})
	}
	return records
}

func (s *Service) reportFailures(leadID uuid.UUID, failures []repository.TaskFailure) {
	for _, f := range failures {
		s.log.FollowupFailure(leadID.String(), f.Title, f.Err)
	}
}

func (s *Service) publishGenerated(ctx context.Context, leadID, ownerID uuid.UUID, trigger domain.LeadStatus, tasks []repository.TaskRecord, failures []repository.TaskFailure) {
	failedTitles := make(map[string]struct{}, len(failures))
	failed := make([]string, 0, len(failures))
	for _, f := range failures {
		failedTitles[f.Title] = struct{}{}
		failed = append(failed, f.Title)
	}

	generated := make([]events.GeneratedTask, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := failedTitles[t.Title]; ok {
			continue
		}
		generated = append(generated, events.GeneratedTask{TaskID: t.ID, Title: t.Title, DueAt: t.DueAt})
	}

	s.bus.Publish(ctx, events.FollowupTasksGenerated{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        leadID,
		OwnerID:       ownerID,
		TriggerStatus: string(trigger),
		Tasks:         generated,
		Failed:        failed,
	})
}
