// Package leads provides the lead pipeline bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"crm_pipeline_backend/internal/events"
	apphttp "crm_pipeline_backend/internal/http"
	"crm_pipeline_backend/internal/leads/analytics"
	"crm_pipeline_backend/internal/leads/domain"
	"crm_pipeline_backend/internal/leads/forecast"
	"crm_pipeline_backend/internal/leads/handler"
	"crm_pipeline_backend/internal/leads/lifecycle"
	"crm_pipeline_backend/internal/leads/management"
	"crm_pipeline_backend/internal/leads/repository"
	"crm_pipeline_backend/platform/config"
	"crm_pipeline_backend/platform/logger"
	"crm_pipeline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	lifecycle  *lifecycle.Service
	management *management.Service
	analytics  *analytics.Service
	forecast   *forecast.Service
	repo       *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
// The follow-up rule set comes from the configured YAML override when present,
// falling back to the built-in table.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, users analytics.UserDirectory, val *validator.Validator, cfg config.RulesConfig, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)

	rules, err := domain.LoadRules(cfg.GetFollowupRulesPath())
	if err != nil {
		return nil, err
	}

	lifecycleSvc := lifecycle.New(repo, rules, eventBus, log)
	managementSvc := management.New(repo)
	analyticsSvc := analytics.New(repo, users)
	forecastSvc := forecast.New(repo)

	h := handler.New(lifecycleSvc, managementSvc, analyticsSvc, forecastSvc, val)

	return &Module{
		handler:    h,
		lifecycle:  lifecycleSvc,
		management: managementSvc,
		analytics:  analyticsSvc,
		forecast:   forecastSvc,
		repo:       repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// LifecycleService returns the lead lifecycle service for external use.
func (m *Module) LifecycleService() *lifecycle.Service {
	return m.lifecycle
}

// Repository returns the lead repository for cross-module adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
