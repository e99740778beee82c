// Package forecast implements probability-weighted revenue projection over
// open leads. Read-only; snapshot consistency is acceptable.
package forecast

import (
	"context"
	"time"

	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/internal/leads/repository"
	"crm_pipeline_backend/internal/leads/transport"
	"crm_pipeline_backend/platform/apperr"
)

const defaultMonths = 3

// Store defines the data access interface needed by the forecast engine.
type Store interface {
	ListByFilter(ctx context.Context, filter repository.Filter) ([]repository.Lead, error)
}

// Service projects probable revenue from the open pipeline.
type Service struct {
	repo Store
	now  func() time.Time
}

// New creates the forecast engine.
func New(repo Store) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ForecastRevenue projects revenue over the next months. The window uses a
// fixed 30-day month approximation. Only qualified, proposal, and negotiation
// leads with a value and an expected close date inside the window contribute;
// selection is the filter - there is no zero-weight fallback.
func (s *Service) ForecastRevenue(ctx context.Context, months int) (transport.ForecastReport, error) {
	if months <= 0 {
		months = defaultMonths
	}
	windowEnd := s.now().AddDate(0, 0, months*30)

	leads, err := s.repo.ListByFilter(ctx, repository.Filter{
		Statuses:         domain.ForecastStatuses(),
		RequireCloseDate: true,
		CloseBefore:      &windowEnd,
		RequireValue:     true,
	})
	if err != nil {
		return transport.ForecastReport{}, &apperr.Error{Kind: apperr.KindInternal, Message: "failed to compute revenue forecast", Err: err}
	}

	report := transport.ForecastReport{
		PeriodMonths: months,
		Details:      []transport.ForecastDetail{},
	}

	var total float64
	for _, lead := range leads {
		probability, ok := domain.WinProbability(lead.Status)
		if !ok {
			continue
		}

		expected := *lead.Value * probability
		total += expected
		report.LeadsCount++
		report.Details = append(report.Details, transport.ForecastDetail{
			Title:         lead.Title,
			Value:         domain.Round2(*lead.Value),
			Status:        string(lead.Status),
			Probability:   probability,
			ExpectedValue: domain.Round2(expected),
			CloseDate:     lead.ExpectedCloseDate.Format(transport.DateLayout),
		})
	}
	report.TotalForecast = domain.Round2(total)

	return report, nil
}
