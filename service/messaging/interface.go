// Package messaging defines the queue contract used to hand status snapshots
// from the stats reporter to the user interface.
package messaging

import (
	"context"
)

// Queue delivers payloads of type T from one publisher to its consumers.
type Queue[T any] interface {
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or ctx is done.
	Consume(ctx context.Context) (Message[T], error)

	// Size returns the number of undelivered messages.
	Size() int

	// Dropped returns the number of messages evicted or given up on.
	Dropped() int
}

// Message wraps a consumed payload.
type Message[T any] interface {
	T() *T

	Ack() error

	// Nack returns the payload to the queue while retries remain.
	Nack(err error) error
}
