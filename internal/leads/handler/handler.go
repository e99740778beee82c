package handler

import (
	"net/http"
	"strconv"

	"crm_pipeline_backend/internal/leads/analytics"
	"crm_pipeline_backend/internal/leads/forecast"
	"crm_pipeline_backend/internal/leads/lifecycle"
	"crm_pipeline_backend/internal/leads/management"
	"crm_pipeline_backend/internal/leads/transport"
	"crm_pipeline_backend/platform/httpkit"
	"crm_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler exposes the lead endpoints.
type Handler struct {
	lifecycle  *lifecycle.Service
	management *management.Service
	analytics  *analytics.Service
	forecast   *forecast.Service
	val        *validator.Validator
}

func New(lc *lifecycle.Service, mgmt *management.Service, an *analytics.Service, fc *forecast.Service, val *validator.Validator) *Handler {
	return &Handler{lifecycle: lc, management: mgmt, analytics: an, forecast: fc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/analytics", h.Analytics)
	rg.GET("/by-priority", h.ByPriority)
	rg.GET("/overdue", h.Overdue)
	rg.GET("/forecast", h.Forecast)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.lifecycle.Create(c.Request.Context(), req, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) List(c *gin.Context) {
	params := management.ListParams{Status: c.Query("status")}
	if raw := c.Query("ownerId"); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		params.OwnerID = &ownerID
	}

	leads, err := h.management.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, leads)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.management.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	req, err := transport.DecodeUpdateLeadRequest(raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.management.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.management.Delete(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusNoContent, nil)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.lifecycle.UpdateStatus(c.Request.Context(), id, req, identity.UserID()); httpkit.HandleError(c, err) {
		return
	}

	lead, err := h.management.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Analytics(c *gin.Context) {
	periodDays, ok := h.intQuery(c, "periodDays", 30)
	if !ok {
		return
	}

	var ownerID *uuid.UUID
	if raw := c.Query("ownerId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		ownerID = &parsed
	}

	report, err := h.analytics.GetAnalytics(c.Request.Context(), ownerID, periodDays)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, report)
}

func (h *Handler) ByPriority(c *gin.Context) {
	var ownerID *uuid.UUID
	if raw := c.Query("ownerId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		ownerID = &parsed
	}

	buckets, err := h.analytics.GetLeadsByPriority(c.Request.Context(), ownerID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, buckets)
}

func (h *Handler) Overdue(c *gin.Context) {
	entries, err := h.analytics.GetOverdueLeads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, entries)
}

func (h *Handler) Forecast(c *gin.Context) {
	months, ok := h.intQuery(c, "months", 3)
	if !ok {
		return
	}

	report, err := h.forecast.ForecastRevenue(c.Request.Context(), months)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, report)
}

func (h *Handler) intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return 0, false
	}
	return value, true
}
