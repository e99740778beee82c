package transport

import (
	"time"

	"crm_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// DateLayout is the wire format for expected close dates.
const DateLayout = "2006-01-02"

// Request DTOs

type CreateLeadRequest struct {
	Title             string     `json:"title" validate:"required,max=200"`
	Description       string     `json:"description,omitempty" validate:"max=5000"`
	Value             *float64   `json:"value,omitempty"`
	Priority          string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Source            string     `json:"source,omitempty" validate:"max=100"`
	ExpectedCloseDate *string    `json:"expectedCloseDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClientID          *uuid.UUID `json:"clientId,omitempty"`
}

type UpdateLeadRequest struct {
	Title             *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description       *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	Value             *float64   `json:"value,omitempty"`
	ValueSet          bool       `json:"-"`
	Priority          *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Source            *string    `json:"source,omitempty" validate:"omitempty,max=100"`
	ExpectedCloseDate *string    `json:"expectedCloseDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CloseDateSet      bool       `json:"-"`
	ClientID          *uuid.UUID `json:"clientId,omitempty"`
	ClientIDSet       bool       `json:"-"`
	OwnerID           *uuid.UUID `json:"ownerId,omitempty"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=new qualified proposal negotiation closed lost"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Response DTOs

type LeadResponse struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Value             *float64   `json:"value,omitempty"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	Source            string     `json:"source,omitempty"`
	ExpectedCloseDate *string    `json:"expectedCloseDate,omitempty"`
	ClientID          *uuid.UUID `json:"clientId,omitempty"`
	OwnerID           uuid.UUID  `json:"ownerId"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// AnalyticsReport is the aggregate metric set for a trailing window.
// Monetary and rate figures are rounded to 2 decimals at this boundary.
type AnalyticsReport struct {
	TotalLeads        int            `json:"total_leads"`
	LeadsByStatus     map[string]int `json:"leads_by_status"`
	ConversionRate    float64        `json:"conversion_rate"`
	LossRate          float64        `json:"loss_rate"`
	TotalValue        float64        `json:"total_value"`
	ClosedValue       float64        `json:"closed_value"`
	AvgConversionDays float64        `json:"avg_conversion_days"`
	TopPerformers     []TopPerformer `json:"top_performers"`
	PeriodDays        int            `json:"period_days"`
}

type TopPerformer struct {
	Name  string  `json:"name"`
	Leads int     `json:"leads"`
	Value float64 `json:"value"`
}

// PriorityBuckets partitions open leads by work urgency.
type PriorityBuckets struct {
	Urgent    []LeadResponse `json:"urgent"`
	Important []LeadResponse `json:"important"`
	Normal    []LeadResponse `json:"normal"`
}

type OverdueEntry struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	Value        float64   `json:"value"`
	ExpectedDate string    `json:"expected_date"`
	DaysOverdue  int       `json:"days_overdue"`
	AssignedUser string    `json:"assigned_user"`
}

type ForecastReport struct {
	TotalForecast float64          `json:"total_forecast"`
	PeriodMonths  int              `json:"period_months"`
	LeadsCount    int              `json:"leads_count"`
	Details       []ForecastDetail `json:"details"`
}

type ForecastDetail struct {
	Title         string  `json:"title"`
	Value         float64 `json:"value"`
	Status        string  `json:"status"`
	Probability   float64 `json:"probability"`
	ExpectedValue float64 `json:"expected_value"`
	CloseDate     string  `json:"close_date"`
}

// ParseDate parses a wire-format date, returning nil for nil input.
func ParseDate(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders a date in wire format, returning nil for nil input.
func FormatDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	s := value.Format(DateLayout)
	return &s
}

// PriorityOrDefault normalizes an optional request priority.
func PriorityOrDefault(p string) domain.Priority {
	if p == "" {
		return domain.PriorityMedium
	}
	return domain.Priority(p)
}
