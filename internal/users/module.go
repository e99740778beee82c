package users

import (
	apphttp "crm_pipeline_backend/internal/http"
	"crm_pipeline_backend/platform/httpkit"
	"crm_pipeline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the users bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule creates and initializes the users module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := NewRepository(pool)
	handler := NewHandler(repo, val)

	return &Module{
		handler: handler,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "users"
}

// Repository exposes the directory for cross-module name resolution.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts user routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/users")
	group.GET("", m.handler.List)

	ctx.Protected.GET("/teams", m.handler.ListTeams)

	adminOnly := group.Group("")
	adminOnly.Use(httpkit.RequireRole("admin"))
	adminOnly.POST("", m.handler.Create)
	adminOnly.PATCH("/:id/active", m.handler.SetActive)
}

var _ apphttp.Module = (*Module)(nil)
