// internal/handler/event_bus.go
package handler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event represents a system event pushed to websocket clients
type Event struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventBus fans connection and print events out to subscribers. It
// satisfies the print service's publisher interface.
type EventBus struct {
	subscribers []chan Event
	events      chan Event
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		events: make(chan Event, 1000),
		logger: logger,
	}
}

// Start runs the distribution loop until the event channel closes
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}
}

// Publish enqueues an event. Publishing never blocks; a full bus drops
// the event.
func (eb *EventBus) Publish(eventType string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	select {
	case eb.events <- event:
	default:
		if eb.logger != nil {
			eb.logger.Warn("Event bus full, dropping event",
				zap.String("event_type", eventType),
			)
		}
	}
}

// Subscribe returns a channel receiving every published event
func (eb *EventBus) Subscribe() <-chan Event {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan Event, 100)
	eb.subscribers = append(eb.subscribers, subscriber)
	return subscriber
}

// distributeEvent delivers an event to every subscriber
func (eb *EventBus) distributeEvent(event Event) {
	eb.mutex.RLock()
	subscribers := eb.subscribers
	eb.mutex.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
