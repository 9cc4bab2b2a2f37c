// Package events provides the in-process event bus connecting the signal
// pipeline to the websocket hub and the history writer.
package events

import (
	"sync"
	"time"
)

// EventType represents the different event types in the system
type EventType string

const (
	EventSignalGenerated  EventType = "SIGNAL_GENERATED"
	EventValidationFailed EventType = "VALIDATION_FAILED"
	EventEngineDegraded   EventType = "ENGINE_DEGRADED"
	EventServerStarted    EventType = "SERVER_STARTED"
	EventServerStopping   EventType = "SERVER_STOPPING"
	EventError            EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers. Subscribers run in their own
// goroutines so a slow consumer never blocks the pipeline.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event)
		}
	}

	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishSignalGenerated publishes a generated signal event
func (eb *EventBus) PublishSignalGenerated(signalID, strategyID, assetID, action string, finalScore, confidence float64) {
	eb.Publish(Event{
		Type: EventSignalGenerated,
		Data: map[string]interface{}{
			"signal_id":   signalID,
			"strategy_id": strategyID,
			"asset_id":    assetID,
			"action":      action,
			"final_score": finalScore,
			"confidence":  confidence,
		},
	})
}

// PublishValidationFailed publishes a rejected-request event
func (eb *EventBus) PublishValidationFailed(assetID string, errors []string) {
	eb.Publish(Event{
		Type: EventValidationFailed,
		Data: map[string]interface{}{
			"asset_id": assetID,
			"errors":   errors,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
