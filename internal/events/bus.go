// Package events provides a lightweight in-process event bus that carries
// property changes and device lifecycle transitions from the host to its
// transports (WebSocket hub, MQTT bridge).
package events

import (
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of event.
type EventType string

const (
	// Property events
	PropertyChanged EventType = "property.changed"

	// Device lifecycle events
	DeviceRegistered  EventType = "device.registered"
	DeviceRemoved     EventType = "device.removed"
	DeviceInitialized EventType = "device.initialized"
	DeviceInitFailed  EventType = "device.init_failed"
	DeviceShutdown    EventType = "device.shutdown"
)

// Source of a property change.
const (
	SourceSet    = "set"
	SourceRead   = "read"
	SourceNotify = "notify"
)

// PropertyChange is the payload of a PropertyChanged event.
type PropertyChange struct {
	Device   string `json:"device"`
	Property string `json:"property"`
	Value    string `json:"value"`
	Source   string `json:"source"`
}

// DeviceLifecycle is the payload of the device.* events.
type DeviceLifecycle struct {
	Device string `json:"device"`
	Error  string `json:"error,omitempty"`
}

// Event is a single event emitted by a producer.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent creates an Event, marshaling data to JSON.
// If marshaling fails the Data field is set to null.
func NewEvent(t EventType, data any) Event {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("null")
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now(),
		Data:      raw,
	}
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Device returns the device named in the payload, or "" when the payload
// carries none.
func (e Event) Device() string {
	var d struct {
		Device string `json:"device"`
	}
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return ""
	}
	return d.Device
}

// SubscriberFunc is a callback invoked for each event.
// Implementations must not block; slow subscribers should buffer internally.
type SubscriberFunc func(Event)

// Bus is a simple synchronous fan-out event bus.
// Publishing blocks until all subscribers have been called, so subscribers
// should be fast (e.g., write to a channel).
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]SubscriberFunc
	nextID      int
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[int]SubscriberFunc),
	}
}

// Subscribe registers a callback and returns an unsubscribe function.
func (b *Bus) Subscribe(fn SubscriberFunc) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// SubscribeTypes is Subscribe restricted to the given event types.
func (b *Bus) SubscribeTypes(fn SubscriberFunc, types ...EventType) func() {
	return b.Subscribe(func(e Event) {
		if slices.Contains(types, e.Type) {
			fn(e)
		}
	})
}

// Publish sends an event to all current subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]SubscriberFunc, 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
