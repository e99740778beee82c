package transport

import (
	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/internal/leads/repository"
)

// ToLeadResponse maps a stored lead to its wire shape. Monetary values are
// rounded here, at the output boundary.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	var value *float64
	if lead.Value != nil {
		rounded := domain.Round2(*lead.Value)
		value = &rounded
	}

	return LeadResponse{
		ID:                lead.ID,
		Title:             lead.Title,
		Description:       lead.Description,
		Value:             value,
		Status:            string(lead.Status),
		Priority:          string(lead.Priority),
		Source:            lead.Source,
		ExpectedCloseDate: FormatDate(lead.ExpectedCloseDate),
		ClientID:          lead.ClientID,
		OwnerID:           lead.OwnerID,
		CreatedAt:         lead.CreatedAt,
		UpdatedAt:         lead.UpdatedAt,
	}
}

// ToLeadResponses maps a lead slice preserving order.
func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, ToLeadResponse(lead))
	}
	return out
}
