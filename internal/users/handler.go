package users

import (
	"errors"
	"net/http"
	"time"

	"crm_pipeline_backend/internal/auth/password"
	"crm_pipeline_backend/platform/httpkit"
	"crm_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type CreateUserRequest struct {
	Name     string     `json:"name" validate:"required,max=120"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Role     string     `json:"role" validate:"required,oneof=admin seller"`
	TeamID   *uuid.UUID `json:"teamId,omitempty"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	TeamID    *uuid.UUID `json:"teamId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type TeamResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserResponse(user User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Active:    user.Active,
		TeamID:    user.TeamID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

type Handler struct {
	repo *Repository
	val  *validator.Validator
}

func NewHandler(repo *Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.repo.List(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list users", nil)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to hash password", nil)
		return
	}

	user, err := h.repo.Create(c.Request.Context(), CreateParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		TeamID:       req.TeamID,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		httpkit.Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to create user", nil)
		return
	}

	httpkit.JSON(c, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.repo.ListTeams(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list teams", nil)
		return
	}

	out := make([]TeamResponse, 0, len(teams))
	for _, team := range teams {
		out = append(out, TeamResponse{
			ID:          team.ID,
			Name:        team.Name,
			Description: team.Description,
			CreatedAt:   team.CreatedAt,
		})
	}
	httpkit.OK(c, out)
}

func (h *Handler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.repo.SetActive(c.Request.Context(), id, req.Active); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, "failed to update user", nil)
		return
	}

	httpkit.JSON(c, http.StatusNoContent, nil)
}
