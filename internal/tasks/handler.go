package tasks

import (
	"errors"
	"net/http"
	"time"

	"crm_pipeline_backend/internal/events"
	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/internal/leads/transport"
	"crm_pipeline_backend/platform/httpkit"
	"crm_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	upcomingWindowDays = 7
)

type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress done cancelled"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"max=5000"`
	DueDate     *string    `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Priority    string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	LeadID      *uuid.UUID `json:"leadId,omitempty"`
	ClientID    *uuid.UUID `json:"clientId,omitempty"`
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *string    `json:"dueDate,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	OwnerID     uuid.UUID  `json:"ownerId"`
	LeadID      *uuid.UUID `json:"leadId,omitempty"`
	ClientID    *uuid.UUID `json:"clientId,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toTaskResponse(task Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     transport.FormatDate(task.DueDate),
		Status:      task.Status,
		Priority:    string(task.Priority),
		OwnerID:     task.OwnerID,
		LeadID:      task.LeadID,
		ClientID:    task.ClientID,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func newTaskCompleted(task Task) events.TaskCompleted {
	return events.TaskCompleted{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    task.ID,
		LeadID:    task.LeadID,
		OwnerID:   task.OwnerID,
	}
}

func toTaskResponses(tasks []Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task))
	}
	return out
}

type Handler struct {
	repo *Repository
	bus  events.Bus
	val  *validator.Validator
}

func NewHandler(repo *Repository, bus events.Bus, val *validator.Validator) *Handler {
	return &Handler{repo: repo, bus: bus, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/upcoming", h.Upcoming)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.POST("/:id/complete", h.Complete)
	rg.DELETE("/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	dueDate, err := transport.ParseDate(req.DueDate)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	priority := domain.PriorityMedium
	if req.Priority != "" {
		priority = domain.Priority(req.Priority)
	}

	task, err := h.repo.Create(c.Request.Context(), CreateParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    priority,
		OwnerID:     identity.UserID(),
		LeadID:      req.LeadID,
		ClientID:    req.ClientID,
	})
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to create task", nil)
		return
	}

	httpkit.JSON(c, http.StatusCreated, toTaskResponse(task))
}

func (h *Handler) List(c *gin.Context) {
	filter := Filter{Status: c.Query("status")}
	if filter.Status != "" && !KnownStatus(filter.Status) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if raw := c.Query("ownerId"); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.OwnerID = &ownerID
	}
	if raw := c.Query("leadId"); raw != "" {
		leadID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.LeadID = &leadID
	}

	tasks, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list tasks", nil)
		return
	}

	httpkit.OK(c, toTaskResponses(tasks))
}

// Upcoming lists the caller's unfinished tasks due within the next week.
func (h *Handler) Upcoming(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	ownerID := identity.UserID()
	dueBy := time.Now().AddDate(0, 0, upcomingWindowDays)

	tasks, err := h.repo.List(c.Request.Context(), Filter{
		Unfinished: true,
		OwnerID:    &ownerID,
		DueBy:      &dueBy,
	})
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list tasks", nil)
		return
	}

	httpkit.OK(c, toTaskResponses(tasks))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	task, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to load task", nil)
		return
	}

	httpkit.OK(c, toTaskResponse(task))
}

// UpdateStatus applies a free-form status change. Moving a task to done
// stamps the completion timestamp and announces it on the bus.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	task, err := h.repo.UpdateStatus(c.Request.Context(), id, req.Status)
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to update task", nil)
		return
	}

	if task.Status == StatusDone {
		h.bus.Publish(c.Request.Context(), newTaskCompleted(task))
	}

	httpkit.OK(c, toTaskResponse(task))
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	task, err := h.repo.Complete(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to complete task", nil)
		return
	}

	h.bus.Publish(c.Request.Context(), newTaskCompleted(task))

	httpkit.OK(c, toTaskResponse(task))
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
		httpkit.Error(c, http.StatusInternalServerError, "failed to delete task", nil)
		return
	}

	httpkit.JSON(c, http.StatusNoContent, nil)
}
