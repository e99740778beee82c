// Package events carries domain events between modules through a small
// publish/subscribe bus. Payload types live with the modules that emit them;
// this package defines only the plumbing.
package events

import (
	"context"
	"time"
)

// Event is implemented by every published payload.
type Event interface {
	// EventName identifies the payload type; subscribers key on it.
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the publication timestamp shared by all payloads. Embed
// it and fill it with NewBaseEvent at the publish site.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events published under a subscribed name.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus decouples publishers from subscribers. Publishing never blocks on a
// subscriber and never surfaces its errors; failures stay on the consuming
// side, where they are logged.
type Bus interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventName string, handler Handler)
}
