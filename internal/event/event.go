package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/formtoolbar/internal/event/topic"
)

// Event is an immutable notification with a typed payload.
type Event[T any] struct {
	// Type is the hierarchical event type.
	Type topic.Topic

	// Payload is the event-specific data.
	Payload T

	// Metadata holds standard event information.
	Metadata Metadata
}

// Metadata is attached to every event.
type Metadata struct {
	ID        string
	Timestamp time.Time
	Source    string
}

// NewEvent creates an event with a fresh ID and timestamp.
func NewEvent[T any](eventType topic.Topic, payload T, source string) Event[T] {
	return Event[T]{
		Type:    eventType,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// EventTopic returns the event's topic for type-erased handling.
func (e Event[T]) EventTopic() topic.Topic {
	return e.Type
}

// TopicProvider is implemented by anything the bus can route.
type TopicProvider interface {
	EventTopic() topic.Topic
}

// Payload extracts a typed payload from a type-erased event.
func Payload[T any](e any) (T, bool) {
	ev, ok := e.(Event[T])
	if !ok {
		var zero T
		return zero, false
	}
	return ev.Payload, true
}
