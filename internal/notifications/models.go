package notifications

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a registry event pushed to subscribers.
type EventType string

const (
	EventProjectRegistered EventType = "project.registered"
	EventProjectVerified   EventType = "project.verified"
	EventProjectRejected   EventType = "project.rejected"
	EventCreditsPurchased  EventType = "credits.purchased"
	EventCreditsRetired    EventType = "credits.retired"
	EventPriceUpdated      EventType = "price.updated"
)

// Event is one registry notification.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"type"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent builds a timestamped event.
func NewEvent(t EventType, message string, payload map[string]any) Event {
	return Event{
		ID:        uuid.New(),
		Type:      t,
		Message:   message,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
