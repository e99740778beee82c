package dashboard

import (
	"net/http"

	apphttp "crm_pipeline_backend/internal/http"
	"crm_pipeline_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the dashboard bounded context module implementing http.Module.
type Module struct {
	service *Service
}

// NewModule creates and initializes the dashboard module.
func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{service: NewService(NewRepository(pool))}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dashboard"
}

// RegisterRoutes mounts the dashboard route on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/dashboard", m.getSummary)
}

func (m *Module) getSummary(c *gin.Context) {
	var ownerID *uuid.UUID
	if raw := c.Query("ownerId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
			return
		}
		ownerID = &parsed
	}

	summary, err := m.service.GetSummary(c.Request.Context(), ownerID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, summary)
}

var _ apphttp.Module = (*Module)(nil)
