// Package activity records the engine's domain events into a per-lead
// timeline. It subscribes on the event bus, so the domain modules publish
// and forget; operators read the trail back per lead.
package activity

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gids_backend/internal/activity/handler"
	"gids_backend/internal/activity/repository"
	"gids_backend/internal/events"
	apphttp "gids_backend/internal/http"
	"gids_backend/platform/logger"
)

// Module is the activity bounded context module: an event subscriber plus
// the timeline read endpoint.
type Module struct {
	repo    repository.Repository
	handler *handler.Handler
	log     *logger.Logger
}

// New wires the module from its dependencies; used directly in tests.
func New(repo repository.Repository, log *logger.Logger) *Module {
	return &Module{repo: repo, handler: handler.New(repo), log: log}
}

// NewModule creates the activity module backed by Postgres.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return New(repository.New(pool), log)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activity"
}

// RegisterRoutes mounts the timeline route on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/activity"))
}

// RegisterHandlers subscribes to every engine event that belongs on a lead's
// timeline.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.LeadReceived{}.EventName(), m)
	bus.Subscribe(events.LeadUnmatched{}.EventName(), m)
	bus.Subscribe(events.LeadWon{}.EventName(), m)

	bus.Subscribe(events.MatchPlanCreated{}.EventName(), m)
	bus.Subscribe(events.AssignmentsCreated{}.EventName(), m)
	bus.Subscribe(events.AssignmentAccepted{}.EventName(), m)
	bus.Subscribe(events.AssignmentDeclined{}.EventName(), m)
	bus.Subscribe(events.AssignmentExpired{}.EventName(), m)

	m.log.Info("activity module registered event handlers")
}

// Handle records one event as a timeline entry.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	var tenantID, leadID uuid.UUID
	switch e := event.(type) {
	case events.LeadReceived:
		tenantID, leadID = e.TenantID, e.LeadID
	case events.LeadUnmatched:
		tenantID, leadID = e.TenantID, e.LeadID
	case events.LeadWon:
		tenantID, leadID = e.TenantID, e.LeadID
	case events.MatchPlanCreated:
		tenantID, leadID = e.TenantID, e.LeadID
	case events.AssignmentsCreated:
		tenantID, leadID = e.TenantID, e.LeadID
	case events.AssignmentAccepted:
		tenantID, leadID = e.TenantID, e.LeadID
	case events.AssignmentDeclined:
		tenantID, leadID = e.TenantID, e.LeadID
	case events.AssignmentExpired:
		tenantID, leadID = e.TenantID, e.LeadID
	default:
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return m.repo.Insert(ctx, repository.Entry{
		TenantID:   tenantID,
		LeadID:     leadID,
		EventName:  event.EventName(),
		Payload:    payload,
		OccurredAt: event.OccurredAt(),
	})
}

var _ apphttp.Module = (*Module)(nil)
var _ events.Handler = (*Module)(nil)
