// Package leads provides the lead intake and lifecycle bounded context module.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	catalogservice "gids_backend/internal/catalog/service"
	"gids_backend/internal/events"
	apphttp "gids_backend/internal/http"
	"gids_backend/internal/leads/handler"
	"gids_backend/internal/leads/repository"
	"gids_backend/internal/leads/service"
	"gids_backend/platform/logger"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	catalogSvc *catalogservice.Service,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc)
	ph := handler.NewPublicHandler(svc, catalogSvc)

	return &Module{handler: h, publicHandler: ph, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)

	// Public intake for consumer contact forms (no auth, rate limited per IP)
	publicGroup := ctx.V1.Group("/public/leads", ctx.IntakeRateLimiter.RateLimit())
	m.publicHandler.RegisterRoutes(publicGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
