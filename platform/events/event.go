// Package events provides the in-process event bus the engine's modules
// communicate over. Intake publishes, matching publishes, the activity
// timeline subscribes; none of them import each other.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event. EventName doubles as the
// subscription key on the bus, so it must be stable and unique per type.
type Event interface {
	EventName() string
	// OccurredAt is when the underlying state change happened, not when a
	// handler got around to it.
	OccurredAt() time.Time
}

// BaseEvent carries the occurrence timestamp; embed it in concrete events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events. A single handler may subscribe to many event
// names and dispatch on the concrete type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish dispatches asynchronously; handler failures are logged, never
	// surfaced to the publisher.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches inline and collects handler errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the name the event reports from
	// EventName().
	Subscribe(eventName string, handler Handler)
}
