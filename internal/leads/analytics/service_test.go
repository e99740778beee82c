package analytics

import (
	"context"
	"testing"
	"time"

	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// fakeStore honors the repository.Filter contract over an in-memory slice.
type fakeStore struct {
	leads []repository.Lead
}

func (f *fakeStore) ListByFilter(_ context.Context, filter repository.Filter) ([]repository.Lead, error) {
	statusSet := make(map[domain.LeadStatus]struct{})
	for _, st := range filter.Statuses {
		statusSet[st] = struct{}{}
	}

	out := make([]repository.Lead, 0)
	for _, lead := range f.leads {
		if len(statusSet) > 0 {
			if _, ok := statusSet[lead.Status]; !ok {
				continue
			}
		}
		if filter.OwnerID != nil && lead.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.CreatedAfter != nil && lead.CreatedAt.Before(*filter.CreatedAfter) {
			continue
		}
		if filter.RequireCloseDate && lead.ExpectedCloseDate == nil {
			continue
		}
		if filter.CloseBefore != nil && (lead.ExpectedCloseDate == nil || lead.ExpectedCloseDate.After(*filter.CloseBefore)) {
			continue
		}
		if filter.CloseStrictlyBy != nil && (lead.ExpectedCloseDate == nil || !lead.ExpectedCloseDate.Before(*filter.CloseStrictlyBy)) {
			continue
		}
		if filter.RequireValue && lead.Value == nil {
			continue
		}
		out = append(out, lead)
	}
	return out, nil
}

type fakeDirectory struct {
	names map[uuid.UUID]string
}

func (f *fakeDirectory) NamesByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string)
	for _, id := range ids {
		out[id] = f.names[id]
	}
	return out, nil
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore, dir *fakeDirectory) *Service {
	if dir == nil {
		dir = &fakeDirectory{names: map[uuid.UUID]string{}}
	}
	svc := New(store, dir)
	svc.now = func() time.Time { return testNow }
	return svc
}

func fv(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func makeLead(status domain.LeadStatus, value *float64, owner uuid.UUID, createdDaysAgo int) repository.Lead {
	created := testNow.AddDate(0, 0, -createdDaysAgo)
	return repository.Lead{
		ID:        uuid.New(),
		Title:     "Lead",
		Status:    status,
		Priority:  domain.PriorityMedium,
		Value:     value,
		OwnerID:   owner,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestGetAnalytics_EmptyPopulation(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)

	report, err := svc.GetAnalytics(context.Background(), nil, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalLeads != 0 || report.ConversionRate != 0 || report.LossRate != 0 {
		t.Fatalf("empty population must yield zeros, got %+v", report)
	}
	if len(report.TopPerformers) != 0 {
		t.Fatalf("expected no performers, got %+v", report.TopPerformers)
	}
}

func TestGetAnalytics_ConversionAndClosedValue(t *testing.T) {
	owner := uuid.New()
	store := &fakeStore{}
	for _, v := range []float64{100, 200, 300} {
		lead := makeLead(domain.StatusClosed, fv(v), owner, 5)
		lead.UpdatedAt = lead.CreatedAt.AddDate(0, 0, 2)
		store.leads = append(store.leads, lead)
	}
	for i := 0; i < 7; i++ {
		store.leads = append(store.leads, makeLead(domain.StatusNew, fv(50), owner, 3))
	}

	svc := newTestService(store, &fakeDirectory{names: map[uuid.UUID]string{owner: "Ana Souza"}})

	report, err := svc.GetAnalytics(context.Background(), nil, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalLeads != 10 {
		t.Fatalf("expected 10 leads, got %d", report.TotalLeads)
	}
	if report.ConversionRate != 30.0 {
		t.Fatalf("expected conversion rate 30.0, got %v", report.ConversionRate)
	}
	if report.ClosedValue != 600.0 {
		t.Fatalf("expected closed value 600.0, got %v", report.ClosedValue)
	}
	if report.TotalValue != 350.0 {
		t.Fatalf("expected open pipeline 350.0, got %v", report.TotalValue)
	}
	if report.LeadsByStatus["closed"] != 3 || report.LeadsByStatus["new"] != 7 {
		t.Fatalf("unexpected status counts %+v", report.LeadsByStatus)
	}
	if report.AvgConversionDays != 2.0 {
		t.Fatalf("expected 2.0 avg conversion days, got %v", report.AvgConversionDays)
	}
	if len(report.TopPerformers) != 1 || report.TopPerformers[0].Name != "Ana Souza" ||
		report.TopPerformers[0].Leads != 3 || report.TopPerformers[0].Value != 600.0 {
		t.Fatalf("unexpected performers %+v", report.TopPerformers)
	}
}

func TestGetAnalytics_WindowExcludesOldLeads(t *testing.T) {
	owner := uuid.New()
	store := &fakeStore{leads: []repository.Lead{
		makeLead(domain.StatusClosed, fv(1000), owner, 45),
		makeLead(domain.StatusClosed, fv(100), owner, 5),
	}}
	svc := newTestService(store, &fakeDirectory{names: map[uuid.UUID]string{owner: "Ana"}})

	report, err := svc.GetAnalytics(context.Background(), nil, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalLeads != 1 || report.ClosedValue != 100.0 {
		t.Fatalf("45-day-old lead must be outside the 30-day window: %+v", report)
	}
}

func TestGetAnalytics_OwnerFilter(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	store := &fakeStore{leads: []repository.Lead{
		makeLead(domain.StatusNew, nil, alice, 1),
		makeLead(domain.StatusNew, nil, bob, 1),
	}}
	svc := newTestService(store, nil)

	report, err := svc.GetAnalytics(context.Background(), &alice, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalLeads != 1 {
		t.Fatalf("expected owner filter to apply, got %d leads", report.TotalLeads)
	}
}

func TestGetAnalytics_TopPerformersCappedAndOrdered(t *testing.T) {
	store := &fakeStore{}
	names := make(map[uuid.UUID]string)
	values := []float64{700, 600, 500, 400, 300, 200, 100}
	for i, v := range values {
		owner := uuid.New()
		names[owner] = string(rune('A' + i))
		store.leads = append(store.leads, makeLead(domain.StatusClosed, fv(v), owner, 2))
	}
	svc := newTestService(store, &fakeDirectory{names: names})

	report, err := svc.GetAnalytics(context.Background(), nil, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.TopPerformers) != 5 {
		t.Fatalf("expected top 5, got %d", len(report.TopPerformers))
	}
	if report.TopPerformers[0].Value != 700.0 || report.TopPerformers[4].Value != 300.0 {
		t.Fatalf("performers not ordered by value: %+v", report.TopPerformers)
	}
}

func TestGetLeadsByPriority_UrgencyBeatsPriority(t *testing.T) {
	owner := uuid.New()
	closingSoon := makeLead(domain.StatusNew, nil, owner, 1)
	closingSoon.Priority = domain.PriorityMedium
	closingSoon.ExpectedCloseDate = date(2026, 3, 13) // today+3

	highPrio := makeLead(domain.StatusQualified, nil, owner, 1)
	highPrio.Priority = domain.PriorityHigh

	plain := makeLead(domain.StatusProposal, nil, owner, 1)

	closedLead := makeLead(domain.StatusClosed, nil, owner, 1)
	closedLead.ExpectedCloseDate = date(2026, 3, 11)

	store := &fakeStore{leads: []repository.Lead{closingSoon, highPrio, plain, closedLead}}
	svc := newTestService(store, nil)

	buckets, err := svc.GetLeadsByPriority(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(buckets.Urgent) != 1 || buckets.Urgent[0].ID != closingSoon.ID {
		t.Fatalf("medium-priority lead closing in 3 days must be urgent: %+v", buckets.Urgent)
	}
	if len(buckets.Important) != 1 || buckets.Important[0].ID != highPrio.ID {
		t.Fatalf("high-priority lead without a close date must be important: %+v", buckets.Important)
	}
	if len(buckets.Normal) != 1 || buckets.Normal[0].ID != plain.ID {
		t.Fatalf("remaining lead must be normal: %+v", buckets.Normal)
	}
}

func TestGetLeadsByPriority_EachLeadInExactlyOneBucket(t *testing.T) {
	owner := uuid.New()
	urgentAndHigh := makeLead(domain.StatusNew, nil, owner, 1)
	urgentAndHigh.Priority = domain.PriorityHigh
	urgentAndHigh.ExpectedCloseDate = date(2026, 3, 12)

	store := &fakeStore{leads: []repository.Lead{urgentAndHigh}}
	svc := newTestService(store, nil)

	buckets, err := svc.GetLeadsByPriority(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := len(buckets.Urgent) + len(buckets.Important) + len(buckets.Normal)
	if total != 1 || len(buckets.Urgent) != 1 {
		t.Fatalf("first matching rule must win: %+v", buckets)
	}
}

func TestGetOverdueLeads_FiltersAndSorts(t *testing.T) {
	owner := uuid.New()

	older := makeLead(domain.StatusQualified, fv(500), owner, 20)
	older.Title = "Older"
	older.ExpectedCloseDate = date(2026, 3, 1)

	newer := makeLead(domain.StatusNew, nil, owner, 10)
	newer.Title = "Newer"
	newer.ExpectedCloseDate = date(2026, 3, 8)

	noDate := makeLead(domain.StatusNew, nil, owner, 10)

	closedPast := makeLead(domain.StatusClosed, nil, owner, 10)
	closedPast.ExpectedCloseDate = date(2026, 2, 1)

	lostPast := makeLead(domain.StatusLost, nil, owner, 10)
	lostPast.ExpectedCloseDate = date(2026, 2, 1)

	future := makeLead(domain.StatusNew, nil, owner, 1)
	future.ExpectedCloseDate = date(2026, 4, 1)

	store := &fakeStore{leads: []repository.Lead{newer, older, noDate, closedPast, lostPast, future}}
	svc := newTestService(store, &fakeDirectory{names: map[uuid.UUID]string{owner: "Bruno Lima"}})

	entries, err := svc.GetOverdueLeads(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 overdue leads, got %d: %+v", len(entries), entries)
	}
	if entries[0].Title != "Older" || entries[1].Title != "Newer" {
		t.Fatalf("expected ascending close-date order, got %+v", entries)
	}
	if entries[0].DaysOverdue != 9 {
		t.Fatalf("expected 9 days overdue for Mar 1, got %d", entries[0].DaysOverdue)
	}
	if entries[1].DaysOverdue != 2 {
		t.Fatalf("expected 2 days overdue for Mar 8, got %d", entries[1].DaysOverdue)
	}
	if entries[0].AssignedUser != "Bruno Lima" {
		t.Fatalf("owner name not resolved: %+v", entries[0])
	}
}

func TestGetOverdueLeads_EmptyPopulationIsEmptyList(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)

	entries, err := svc.GetOverdueLeads(context.Background())
	if err != nil {
		t.Fatalf("expected fail-closed empty list, got error %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty list, got %+v", entries)
	}
}
