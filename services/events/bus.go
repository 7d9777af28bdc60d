// Package events carries booking lifecycle events from the services that
// produce them to the subscribers that react: the webhook dispatcher and any
// in-process listener.
package events

import (
	"sync"
	"time"

	"stitchtherapy/models"
	"stitchtherapy/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler consumes a domain event. Handlers run on the publisher's goroutine
// for in-order delivery and must not block.
type Handler func(event models.DomainEvent)

// Bus is a minimal in-process publish/subscribe fan-out.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *zap.Logger
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{logger: utils.GetLogger().Named("events")}
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish stamps and fans an event out to every subscriber.
func (b *Bus) Publish(eventType string, payload map[string]any) {
	event := models.DomainEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	b.logger.Debug("event published", zap.String("type", eventType), zap.String("id", event.ID))

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
