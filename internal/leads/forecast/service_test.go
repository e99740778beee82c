package forecast

import (
	"context"
	"testing"
	"time"

	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/internal/leads/repository"

	"github.com/google/uuid"
)

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
		if filter.RequireCloseDate && lead.ExpectedCloseDate == nil {
			continue
		}
		if filter.CloseBefore != nil && (lead.ExpectedCloseDate == nil || lead.ExpectedCloseDate.After(*filter.CloseBefore)) {
			continue
		}
		if filter.RequireValue && lead.Value == nil {
			continue
		}
		out = append(out, lead)
	}
	return out, nil
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore) *Service {
	svc := New(store)
	svc.now = func() time.Time { return testNow }
	return svc
}

func fv(v float64) *float64 { return &v }

func makeLead(title string, status domain.LeadStatus, value *float64, closeDate *time.Time) repository.Lead {
	return repository.Lead{
		ID:                uuid.New(),
		Title:             title,
		Status:            status,
		Priority:          domain.PriorityMedium,
		Value:             value,
		ExpectedCloseDate: closeDate,
		OwnerID:           uuid.New(),
		CreatedAt:         testNow,
		UpdatedAt:         testNow,
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestForecastRevenue_SingleQualifiedLead(t *testing.T) {
	store := &fakeStore{leads: []repository.Lead{
		makeLead("Acme Expansion", domain.StatusQualified, fv(1000), date(2026, 4, 1)),
	}}
	svc := newTestService(store)

	report, err := svc.ForecastRevenue(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalForecast != 300.0 {
		t.Fatalf("expected forecast 300.0 for 1000 at qualified, got %v", report.TotalForecast)
	}
	if report.LeadsCount != 1 || report.PeriodMonths != 3 {
		t.Fatalf("unexpected report shape: %+v", report)
	}
	detail := report.Details[0]
	if detail.Probability != 0.3 || detail.ExpectedValue != 300.0 || detail.CloseDate != "2026-04-01" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestForecastRevenue_ProbabilityPerStatus(t *testing.T) {
	store := &fakeStore{leads: []repository.Lead{
		makeLead("Q", domain.StatusQualified, fv(100), date(2026, 4, 1)),
		makeLead("P", domain.StatusProposal, fv(100), date(2026, 4, 1)),
		makeLead("N", domain.StatusNegotiation, fv(100), date(2026, 4, 1)),
	}}
	svc := newTestService(store)

	report, err := svc.ForecastRevenue(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 30 + 60 + 80
	if report.TotalForecast != 170.0 {
		t.Fatalf("expected 170.0, got %v", report.TotalForecast)
	}
}

func TestForecastRevenue_ExcludesNonForecastStatuses(t *testing.T) {
	store := &fakeStore{leads: []repository.Lead{
		makeLead("New", domain.StatusNew, fv(100), date(2026, 4, 1)),
		makeLead("Closed", domain.StatusClosed, fv(100), date(2026, 4, 1)),
		makeLead("Lost", domain.StatusLost, fv(100), date(2026, 4, 1)),
	}}
	svc := newTestService(store)

	report, err := svc.ForecastRevenue(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalForecast != 0 || report.LeadsCount != 0 {
		t.Fatalf("only qualified, proposal, and negotiation should contribute: %+v", report)
	}
}

func TestForecastRevenue_ExcludesLeadsMissingValueOrDate(t *testing.T) {
	store := &fakeStore{leads: []repository.Lead{
		makeLead("NoValue", domain.StatusProposal, nil, date(2026, 4, 1)),
		makeLead("NoDate", domain.StatusProposal, fv(100), nil),
		makeLead("Counted", domain.StatusProposal, fv(100), date(2026, 4, 1)),
	}}
	svc := newTestService(store)

	report, err := svc.ForecastRevenue(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.LeadsCount != 1 || report.TotalForecast != 60.0 {
		t.Fatalf("leads without value or close date must be excluded: %+v", report)
	}
}

func TestForecastRevenue_WindowBoundsAndDefault(t *testing.T) {
	store := &fakeStore{leads: []repository.Lead{
		makeLead("Inside", domain.StatusNegotiation, fv(100), date(2026, 4, 1)),
		makeLead("Outside", domain.StatusNegotiation, fv(100), date(2026, 9, 1)),
	}}
	svc := newTestService(store)

	report, err := svc.ForecastRevenue(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.PeriodMonths != 3 {
		t.Fatalf("expected default window of 3 months, got %d", report.PeriodMonths)
	}
	if report.LeadsCount != 1 || report.TotalForecast != 80.0 {
		t.Fatalf("lead beyond the window must be excluded: %+v", report)
	}
}
