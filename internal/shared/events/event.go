package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Event is the interface that all domain events must implement.
type Event interface {
	// EventID returns the identifier of this event instance.
	EventID() uuid.UUID

	// EventType returns the type name of the event (e.g., "PaymentSucceeded").
	EventType() string

	// RoutingKey returns the message bus routing key of the event.
	RoutingKey() string

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() int64
}

// BaseEvent provides a base implementation of the Event interface.
// Embed this struct in domain events; its fields stay out of the payload.
type BaseEvent struct {
	ID        uuid.UUID `json:"-"`
	Type      string    `json:"-"`
	Key       string    `json:"-"`
	Timestamp time.Time `json:"-"`
	Aggregate int64     `json:"-"`
}

// EventID returns the identifier of this event instance.
func (e BaseEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type name of the event.
func (e BaseEvent) EventType() string {
	return e.Type
}

// RoutingKey returns the message bus routing key.
func (e BaseEvent) RoutingKey() string {
	return e.Key
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the ID of the aggregate that produced this event.
func (e BaseEvent) AggregateID() int64 {
	return e.Aggregate
}

// eventNamespace scopes deterministic event ids.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:paygate:events"))

// NewBaseEvent creates a BaseEvent whose ID is derived from the event type
// and aggregate ID, so every publish of the same fact carries the same ID.
func NewBaseEvent(eventType, routingKey string, aggregateID int64, at time.Time) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewSHA1(eventNamespace, []byte(eventType+":"+strconv.FormatInt(aggregateID, 10))),
		Type:      eventType,
		Key:       routingKey,
		Timestamp: at,
		Aggregate: aggregateID,
	}
}
