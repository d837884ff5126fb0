// Package messaging defines the queue abstraction used to hand work to
// worker goroutines.
package messaging

import (
	"context"
	"errors"
)

// ErrClosed is returned by a queue that no longer accepts or yields messages
var ErrClosed = errors.New("queue closed")

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue
	Consume(ctx context.Context) (Message[T], error)

	// Close stops accepting messages; queued messages can still be consumed
	Close() error
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}
