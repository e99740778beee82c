package dashboard

import (
	"context"

	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Summary is the dashboard counter set.
type Summary struct {
	LeadsByStatus      map[string]int `json:"leads_by_status"`
	OpenLeads          int            `json:"open_leads"`
	TotalLeads         int            `json:"total_leads"`
	PipelineValue      float64        `json:"pipeline_value"`
	PendingTasks       int            `json:"pending_tasks"`
	OverdueTasks       int            `json:"overdue_tasks"`
	TotalClients       int            `json:"total_clients"`
	RecentInteractions int            `json:"recent_interactions"`
	RecentLeads        []LeadSummary  `json:"recent_leads"`
	UpcomingTasks      []TaskSummary  `json:"upcoming_tasks"`
}

// Store defines the counter queries the dashboard aggregates.
type Store interface {
	CountLeadsByStatus(ctx context.Context, ownerID *uuid.UUID) (map[string]int, error)
	PipelineValue(ctx context.Context, ownerID *uuid.UUID) (float64, error)
	CountPendingTasks(ctx context.Context, ownerID *uuid.UUID) (pending, overdue int, err error)
	CountClients(ctx context.Context) (int, error)
	RecentInteractions(ctx context.Context, ownerID *uuid.UUID) (int, error)
	RecentLeads(ctx context.Context, ownerID *uuid.UUID) ([]LeadSummary, error)
	UpcomingTasks(ctx context.Context, ownerID *uuid.UUID) ([]TaskSummary, error)
}

type Service struct {
	repo Store
}

func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// GetSummary fans the counter queries out in parallel and assembles the
// result. One failing query fails the whole summary.
func (s *Service) GetSummary(ctx context.Context, ownerID *uuid.UUID) (Summary, error) {
	var summary Summary

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.repo.CountLeadsByStatus(gctx, ownerID)
		if err != nil {
			return err
		}
		summary.LeadsByStatus = counts
		return nil
	})
	g.Go(func() error {
		value, err := s.repo.PipelineValue(gctx, ownerID)
		if err != nil {
			return err
		}
		summary.PipelineValue = domain.Round2(value)
		return nil
	})
	g.Go(func() error {
		pending, overdue, err := s.repo.CountPendingTasks(gctx, ownerID)
		if err != nil {
			return err
		}
		summary.PendingTasks = pending
		summary.OverdueTasks = overdue
		return nil
	})
	g.Go(func() error {
		count, err := s.repo.CountClients(gctx)
		if err != nil {
			return err
		}
		summary.TotalClients = count
		return nil
	})
	g.Go(func() error {
		count, err := s.repo.RecentInteractions(gctx, ownerID)
		if err != nil {
			return err
		}
		summary.RecentInteractions = count
		return nil
	})
	g.Go(func() error {
		leads, err := s.repo.RecentLeads(gctx, ownerID)
		if err != nil {
			return err
		}
		summary.RecentLeads = leads
		return nil
	})
	g.Go(func() error {
		tasks, err := s.repo.UpcomingTasks(gctx, ownerID)
		if err != nil {
			return err
		}
		summary.UpcomingTasks = tasks
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summary{}, apperr.Operation("failed to build dashboard summary", err)
	}

	for status, count := range summary.LeadsByStatus {
		summary.TotalLeads += count
		for _, open := range domain.OpenStatuses() {
			if status == string(open) {
				summary.OpenLeads += count
			}
		}
	}

	return summary, nil
}
