package notifications

import (
	"go.uber.org/zap"
)

// Broadcaster is the transport the service pushes events through.
type Broadcaster interface {
	Broadcast(event Event)
}

// Service publishes registry events to connected subscribers.
type Service struct {
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewService creates a notification service.
func NewService(b Broadcaster, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{broadcaster: b, logger: logger}
}

// Publish broadcasts an event. A nil broadcaster makes Publish a no-op so
// callers need no wiring in tests.
func (s *Service) Publish(t EventType, message string, payload map[string]any) {
	event := NewEvent(t, message, payload)
	s.logger.Debug("event published",
		zap.String("type", string(t)),
		zap.String("message", message),
	)
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(event)
	}
}
