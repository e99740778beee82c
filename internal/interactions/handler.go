package interactions

import (
	"errors"
	"net/http"
	"time"

	"crm_pipeline_backend/platform/httpkit"
	"crm_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type CreateInteractionRequest struct {
	Type        string     `json:"type" validate:"required,oneof=email phone meeting visit"`
	Subject     string     `json:"subject" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"max=5000"`
	ClientID    *uuid.UUID `json:"clientId,omitempty"`
	LeadID      *uuid.UUID `json:"leadId,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

type InteractionResponse struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Subject     string     `json:"subject"`
	Description string     `json:"description,omitempty"`
	ClientID    *uuid.UUID `json:"clientId,omitempty"`
	LeadID      *uuid.UUID `json:"leadId,omitempty"`
	UserID      uuid.UUID  `json:"userId"`
	Date        time.Time  `json:"date"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toInteractionResponse(i Interaction) InteractionResponse {
	return InteractionResponse{
		ID:          i.ID,
		Type:        i.Type,
		Subject:     i.Subject,
		Description: i.Description,
		ClientID:    i.ClientID,
		LeadID:      i.LeadID,
		UserID:      i.UserID,
		Date:        i.Date,
		CreatedAt:   i.CreatedAt,
	}
}

type Handler struct {
	repo *Repository
	val  *validator.Validator
}

func NewHandler(repo *Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req CreateInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	interaction, err := h.repo.Create(c.Request.Context(), CreateParams{
		Type:        req.Type,
		Subject:     req.Subject,
		Description: req.Description,
		ClientID:    req.ClientID,
		LeadID:      req.LeadID,
		UserID:      identity.UserID(),
		Date:        date,
	})
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to record interaction", nil)
		return
	}

	httpkit.JSON(c, http.StatusCreated, toInteractionResponse(interaction))
}

func (h *Handler) List(c *gin.Context) {
	filter := Filter{Type: c.Query("type")}
	if raw := c.Query("leadId"); raw != "" {
		leadID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.LeadID = &leadID
	}
	if raw := c.Query("clientId"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.ClientID = &clientID
	}

	interactions, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list interactions", nil)
		return
	}

	out := make([]InteractionResponse, 0, len(interactions))
	for _, interaction := range interactions {
		out = append(out, toInteractionResponse(interaction))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, "failed to delete interaction", nil)
		return
	}

	httpkit.JSON(c, http.StatusNoContent, nil)
}
