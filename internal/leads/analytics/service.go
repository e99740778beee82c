// Package analytics implements the reporting engine over the lead
// population: conversion metrics, prioritized work queues, and overdue
// tracking. All operations are read-only and tolerate snapshot consistency.
package analytics

import (
	"context"
	"sort"
	"time"

	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/internal/leads/repository"
	"crm_pipeline_backend/internal/leads/transport"
	"crm_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

const defaultPeriodDays = 30

// Store defines the data access interface needed by the analytics engine.
type Store interface {
	ListByFilter(ctx context.Context, filter repository.Filter) ([]repository.Lead, error)
}

// UserDirectory resolves owner display names.
type UserDirectory interface {
	NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// Service computes aggregate lead metrics.
type Service struct {
	repo  Store
	users UserDirectory
	now   func() time.Time
}

// New creates the analytics engine.
func New(repo Store, users UserDirectory) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

// GetAnalytics computes the aggregate report over leads created within the
// trailing periodDays window, optionally restricted to one owner.
func (s *Service) GetAnalytics(ctx context.Context, ownerID *uuid.UUID, periodDays int) (transport.AnalyticsReport, error) {
	if periodDays <= 0 {
		periodDays = defaultPeriodDays
	}
	cutoff := s.now().AddDate(0, 0, -periodDays)

	leads, err := s.repo.ListByFilter(ctx, repository.Filter{
		OwnerID:      ownerID,
		CreatedAfter: &cutoff,
	})
	if err != nil {
		return transport.AnalyticsReport{}, &apperr.Error{Kind: apperr.KindInternal, Message: "failed to compute lead analytics", Err: err}
	}

	report := transport.AnalyticsReport{
		TotalLeads:    len(leads),
		LeadsByStatus: make(map[string]int),
		TopPerformers: []transport.TopPerformer{},
		PeriodDays:    periodDays,
	}

	openSet := make(map[domain.LeadStatus]struct{})
	for _, st := range domain.OpenStatuses() {
		openSet[st] = struct{}{}
	}

	byOwner := make(map[uuid.UUID]*ownerAgg)

	var closedCount, lostCount int
	var pipelineValue, closedValue, conversionDays float64

	for _, lead := range leads {
		report.LeadsByStatus[string(lead.Status)]++

		value := 0.0
		if lead.Value != nil {
			value = *lead.Value
		}

		if _, open := openSet[lead.Status]; open {
			pipelineValue += value
		}

		switch lead.Status {
		case domain.StatusClosed:
			closedCount++
			closedValue += value
			conversionDays += lead.UpdatedAt.Sub(lead.CreatedAt).Hours() / 24

			agg, ok := byOwner[lead.OwnerID]
			if !ok {
				agg = &ownerAgg{}
				byOwner[lead.OwnerID] = agg
			}
			agg.leads++
			agg.value += value
		case domain.StatusLost:
			lostCount++
		}
	}

	if report.TotalLeads > 0 {
		report.ConversionRate = domain.Round2(float64(closedCount) / float64(report.TotalLeads) * 100)
		report.LossRate = domain.Round2(float64(lostCount) / float64(report.TotalLeads) * 100)
	}
	if closedCount > 0 {
		report.AvgConversionDays = domain.Round1(conversionDays / float64(closedCount))
	}
	report.TotalValue = domain.Round2(pipelineValue)
	report.ClosedValue = domain.Round2(closedValue)

	performers, err := s.topPerformers(ctx, byOwner)
	if err != nil {
		return transport.AnalyticsReport{}, &apperr.Error{Kind: apperr.KindInternal, Message: "failed to resolve performer names", Err: err}
	}
	report.TopPerformers = performers

	return report, nil
}

type ownerAgg struct {
	leads int
	value float64
}

func (s *Service) topPerformers(ctx context.Context, byOwner map[uuid.UUID]*ownerAgg) ([]transport.TopPerformer, error) {
	if len(byOwner) == 0 {
		return []transport.TopPerformer{}, nil
	}

	ids := make([]uuid.UUID, 0, len(byOwner))
	for id := range byOwner {
		ids = append(ids, id)
	}
	names, err := s.users.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	performers := make([]transport.TopPerformer, 0, len(byOwner))
	for id, agg := range byOwner {
		performers = append(performers, transport.TopPerformer{
			Name:  names[id],
			Leads: agg.leads,
			Value: domain.Round2(agg.value),
		})
	}

	// ties broken by name for a stable ordering
	sort.Slice(performers, func(i, j int) bool {
		if performers[i].Value != performers[j].Value {
			return performers[i].Value > performers[j].Value
		}
		return performers[i].Name < performers[j].Name
	})

	if len(performers) > 5 {
		performers = performers[:5]
	}
	return performers, nil
}

// GetLeadsByPriority partitions open leads into urgent / important / normal
// buckets. Urgency (close date within 7 days) takes precedence over priority.
func (s *Service) GetLeadsByPriority(ctx context.Context, ownerID *uuid.UUID) (transport.PriorityBuckets, error) {
	leads, err := s.repo.ListByFilter(ctx, repository.Filter{
		Statuses: domain.OpenStatuses(),
		OwnerID:  ownerID,
	})
	if err != nil {
		return transport.PriorityBuckets{}, &apperr.Error{Kind: apperr.KindInternal, Message: "failed to load open leads", Err: err}
	}

	// priority desc, expected close asc with nulls last, creation desc
	sort.SliceStable(leads, func(i, j int) bool {
		ri, rj := domain.PriorityRank(leads[i].Priority), domain.PriorityRank(leads[j].Priority)
		if ri != rj {
			return ri > rj
		}
		di, dj := leads[i].ExpectedCloseDate, leads[j].ExpectedCloseDate
		switch {
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		}
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})

	urgentCutoff := s.today().AddDate(0, 0, 7)

	buckets := transport.PriorityBuckets{
		Urgent:    []transport.LeadResponse{},
		Important: []transport.LeadResponse{},
		Normal:    []transport.LeadResponse{},
	}
	for _, lead := range leads {
		resp := transport.ToLeadResponse(lead)
		switch {
		case lead.ExpectedCloseDate != nil && !lead.ExpectedCloseDate.After(urgentCutoff):
			buckets.Urgent = append(buckets.Urgent, resp)
		case lead.Priority == domain.PriorityHigh:
			buckets.Important = append(buckets.Important, resp)
		default:
			buckets.Normal = append(buckets.Normal, resp)
		}
	}

	return buckets, nil
}

// GetOverdueLeads returns open leads whose expected close date has passed,
// oldest first, with the owner's display name resolved. An empty population
// yields an empty list, never an error.
func (s *Service) GetOverdueLeads(ctx context.Context) ([]transport.OverdueEntry, error) {
	today := s.today()

	leads, err := s.repo.ListByFilter(ctx, repository.Filter{
		Statuses:         domain.OpenStatuses(),
		RequireCloseDate: true,
		CloseStrictlyBy:  &today,
	})
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindInternal, Message: "failed to load overdue leads", Err: err}
	}
	if len(leads) == 0 {
		return []transport.OverdueEntry{}, nil
	}

	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].ExpectedCloseDate.Before(*leads[j].ExpectedCloseDate)
	})

	ownerIDs := make([]uuid.UUID, 0, len(leads))
	seen := make(map[uuid.UUID]struct{})
	for _, lead := range leads {
		if _, ok := seen[lead.OwnerID]; !ok {
			seen[lead.OwnerID] = struct{}{}
			ownerIDs = append(ownerIDs, lead.OwnerID)
		}
	}
	names, err := s.users.NamesByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindInternal, Message: "failed to resolve lead owners", Err: err}
	}

	entries := make([]transport.OverdueEntry, 0, len(leads))
	for _, lead := range leads {
		value := 0.0
		if lead.Value != nil {
			value = *lead.Value
		}
		entries = append(entries, transport.OverdueEntry{
			ID:           lead.ID,
			Title:        lead.Title,
			Status:       string(lead.Status),
			Value:        domain.Round2(value),
			ExpectedDate: lead.ExpectedCloseDate.Format(transport.DateLayout),
			DaysOverdue:  int(today.Sub(*lead.ExpectedCloseDate).Hours() / 24),
			AssignedUser: names[lead.OwnerID],
		})
	}

	return entries, nil
}

// today returns the current day truncated to midnight UTC.
func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
