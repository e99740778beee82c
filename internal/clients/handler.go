package clients

import (
	"errors"
	"net/http"
	"time"

	"crm_pipeline_backend/platform/httpkit"
	"crm_pipeline_backend/platform/phone"
	"crm_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type CreateClientRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Company string `json:"company,omitempty" validate:"max=120"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty" validate:"max=30"`
	Status  string `json:"status,omitempty" validate:"omitempty,oneof=active inactive prospect"`
	Notes   string `json:"notes,omitempty" validate:"max=5000"`
}

type UpdateClientRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=120"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Status  *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive prospect"`
	Notes   *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type ClientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toClientResponse(client Client) ClientResponse {
	return ClientResponse{
		ID:        client.ID,
		Name:      client.Name,
		Company:   client.Company,
		Email:     client.Email,
		Phone:     client.Phone,
		Status:    client.Status,
		Notes:     client.Notes,
		CreatedAt: client.CreatedAt,
		UpdatedAt: client.UpdatedAt,
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
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = StatusProspect
	}

	client, err := h.repo.Create(c.Request.Context(), CreateParams{
		Name:    req.Name,
		Company: req.Company,
		Email:   req.Email,
		Phone:   phone.NormalizeE164(req.Phone),
		Status:  status,
		Notes:   req.Notes,
	})
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to create client", nil)
		return
	}

	httpkit.JSON(c, http.StatusCreated, toClientResponse(client))
}

func (h *Handler) List(c *gin.Context) {
	filter := Filter{Search: c.Query("search"), Status: c.Query("status")}
	if filter.Status != "" && !KnownStatus(filter.Status) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	clients, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list clients", nil)
		return
	}

	out := make([]ClientResponse, 0, len(clients))
	for _, client := range clients {
		out = append(out, toClientResponse(client))
	}
	httpkit.OK(c, out)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	client, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to load client", nil)
		return
	}

	httpkit.OK(c, toClientResponse(client))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		req.Phone = &normalized
	}

	client, err := h.repo.Update(c.Request.Context(), id, UpdateParams{
		Name:    req.Name,
		Company: req.Company,
		Email:   req.Email,
		Phone:   req.Phone,
		Status:  req.Status,
		Notes:   req.Notes,
	})
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to update client", nil)
		return
	}

	httpkit.OK(c, toClientResponse(client))
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
		httpkit.Error(c, http.StatusInternalServerError, "failed to delete client", nil)
		return
	}

	httpkit.JSON(c, http.StatusNoContent, nil)
}
