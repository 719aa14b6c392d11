// Package catalog provides the directory catalog bounded context module:
// tenants, categories, companies and their service areas.
package catalog

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"gids_backend/internal/catalog/handler"
	"gids_backend/internal/catalog/repository"
	"gids_backend/internal/catalog/service"
	apphttp "gids_backend/internal/http"
	"gids_backend/platform/logger"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the catalog module with all its dependencies.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
