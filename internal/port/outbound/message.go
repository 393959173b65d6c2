package outbound

import (
	"context"
	"time"
)

// Message is a single message written to the message bus.
type Message struct {
	ID         string
	Type       string
	Payload    []byte
	OccurredAt time.Time
}

// MessagePort defines message bus operations.
type MessagePort interface {
	// Publish publishes a message under a routing key.
	Publish(ctx context.Context, routingKey string, msg *Message) error
}
