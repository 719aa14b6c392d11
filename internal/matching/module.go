// Package matching provides the lead distribution engine bounded context
// module: candidate filtering, scoring, planning and the assignment
// lifecycle.
package matching

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"gids_backend/internal/events"
	apphttp "gids_backend/internal/http"
	"gids_backend/internal/matching/handler"
	"gids_backend/internal/matching/repository"
	"gids_backend/internal/matching/scoring"
	"gids_backend/internal/matching/service"
	"gids_backend/platform/config"
	"gids_backend/platform/logger"
)

// Module is the matching bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the matching module with all its
// dependencies. Scoring weights come from the configured weights file,
// falling back to the defaults.
func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	cfg config.MatchingConfig,
	log *logger.Logger,
) (*Module, error) {
	weights, err := scoring.LoadWeights(cfg.GetMatchWeightsFile())
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, eventBus, weights, cfg, log)
	h := handler.New(svc)

	return &Module{handler: h, service: svc}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "matching"
}

// Service returns the service layer for external use (scheduler sweep).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts matching routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	matchingGroup := ctx.Protected.Group("/matching")
	m.handler.RegisterRoutes(matchingGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
