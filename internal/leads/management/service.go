// Package management implements lead CRUD outside the status machine.
// Creation and status transitions live in the lifecycle package; this
// service covers reads, field updates, and deletion.
package management

import (
	"context"
	"errors"
	"strings"

	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/internal/leads/repository"
	"crm_pipeline_backend/internal/leads/transport"
	"crm_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// Store defines the data access interface needed by lead management.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	ListByFilter(ctx context.Context, filter repository.Filter) ([]repository.Lead, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service provides lead reads, partial updates, and deletion.
type Service struct {
	repo Store
}

// New creates the lead management service.
func New(repo Store) *Service {
	return &Service{repo: repo}
}

// GetByID fetches one lead.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return transport.LeadResponse{}, apperr.Operation("failed to load lead", err)
	}
	return transport.ToLeadResponse(lead), nil
}

// ListParams narrows the lead listing.
type ListParams struct {
	Status  string
	OwnerID *uuid.UUID
}

// List returns leads matching the optional status and owner filters,
// newest first.
func (s *Service) List(ctx context.Context, params ListParams) ([]transport.LeadResponse, error) {
	filter := repository.Filter{OwnerID: params.OwnerID}
	if params.Status != "" {
		status := domain.LeadStatus(params.Status)
		if !domain.IsKnownStatus(status) {
			return nil, apperr.Validation("unknown status filter: " + params.Status)
		}
		filter.Statuses = []domain.LeadStatus{status}
	}

	leads, err := s.repo.ListByFilter(ctx, filter)
	if err != nil {
		return nil, apperr.Operation("failed to list leads", err)
	}
	return transport.ToLeadResponses(leads), nil
}

// Update applies a partial update. Status is intentionally absent from the
// update request; transitions go through the lifecycle service.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	params := repository.UpdateLeadParams{
		Description: req.Description,
		Source:      req.Source,
		OwnerID:     req.OwnerID,
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return transport.LeadResponse{}, apperr.Validation("title must not be blank")
		}
		params.Title = &title
	}
	if req.ValueSet {
		if req.Value != nil && *req.Value < 0 {
			return transport.LeadResponse{}, apperr.Validation("value must not be negative")
		}
		params.Value = req.Value
		params.ValueSet = true
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		if !domain.IsKnownPriority(priority) {
			return transport.LeadResponse{}, apperr.Validation("unknown priority: " + *req.Priority)
		}
		params.Priority = &priority
	}
	if req.CloseDateSet {
		parsed, err := transport.ParseDate(req.ExpectedCloseDate)
		if err != nil {
			return transport.LeadResponse{}, apperr.Validation("expected_close_date must be YYYY-MM-DD")
		}
		params.ExpectedCloseDate = parsed
		params.CloseDateSet = true
	}
	if req.ClientIDSet {
		params.ClientID = req.ClientID
		params.ClientIDSet = true
	}

	lead, err := s.repo.Update(ctx, id, params)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return transport.LeadResponse{}, apperr.Operation("failed to update lead", err)
	}
	return transport.ToLeadResponse(lead), nil
}

// Delete removes a lead permanently.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	if err != nil {
		return apperr.Operation("failed to delete lead", err)
	}
	return nil
}
