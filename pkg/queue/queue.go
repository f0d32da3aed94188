// Package queue abstracts the broker that carries inbound events from the API to the worker.
package queue

import (
	"context"
	"time"
)

// AttrURLCode carries the routing rule code on every inbound message.
const AttrURLCode = "urlCode"

// Message is one received delivery. AckHandle is the broker token needed to acknowledge it.
type Message struct {
	ID         string
	Body       []byte
	Attributes map[string]string
	AckHandle  string
}

// Receiver pulls batches and acknowledges handled messages.
type Receiver interface {
	// Receive blocks for at most wait and returns up to max messages. An empty batch is not an error.
	Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error)
	Ack(ctx context.Context, msg Message) error
}

// Publisher enqueues a message and returns the broker-assigned id.
type Publisher interface {
	Publish(ctx context.Context, body []byte, attrs map[string]string) (string, error)
}
