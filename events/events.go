package events

import (
	"context"
	"time"
)

// Event types published after successful writes.
const (
	PublicationCreated   = "publication.created"
	PublicationCommented = "publication.commented"
	PublicationDeleted   = "publication.deleted"
)

// Event is the JSON message body. Type doubles as the routing key.
type Event struct {
	Type          string    `json:"type"`
	PublicationID string    `json:"publicationId"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       any       `json:"payload,omitempty"`
}

// New stamps an event with the current time.
func New(eventType, publicationID string, payload any) Event {
	return Event{
		Type:          eventType,
		PublicationID: publicationID,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}
}

// Publisher delivers events to subscribers outside the process.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
