// Package channel defines the bounded point-to-point queue the broadcaster is written
// against. A Factory yields a (Sender, Receiver) pair; the rest of the module never
// depends on a concrete queue implementation.
package channel

import (
	"context"
	"iter"
)

// DefaultBufferSize is used whenever a factory is asked for a buffer smaller than one item.
const DefaultBufferSize = 1

type SendResult int

const (
	// Success means the item was accepted by the queue.
	Success SendResult = iota
	// Failure means the receiver is gone (or the send was abandoned) and the item was dropped.
	Failure
)

func (r SendResult) String() string {
	switch r {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Sender is the producer end of a queue.
// Send must not be called after Close, and Send calls must not overlap with Close.
type Sender[T any] interface {
	// Send blocks until the item is queued, the receiver is gone or ctx is done.
	Send(ctx context.Context, item T) SendResult
	// Close signals end-of-stream to the receiver. Calling it more than once is a no-op.
	Close()
}

// Receiver is the consumer end of a queue.
type Receiver[T any] interface {
	// Recv returns the next item, or false once the sender closed and every queued item
	// was received. It also returns false when ctx is done.
	Recv(ctx context.Context) (T, bool)
	// Close marks the receiver as gone: pending and future sends fail.
	Close()
}

type Factory[T any] interface {
	New(bufferSize int) (Sender[T], Receiver[T])
}

// FactoryFunc adapts a plain constructor to the Factory interface.
type FactoryFunc[T any] func(bufferSize int) (Sender[T], Receiver[T])

func (f FactoryFunc[T]) New(bufferSize int) (Sender[T], Receiver[T]) {
	return f(bufferSize)
}

// All turns rx into a lazy sequence. Every range over the returned sequence resumes at the
// receiver's current position and stops when the receiver reports closed.
func All[T any](ctx context.Context, rx Receiver[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			item, ok := rx.Recv(ctx)
			if !ok || !yield(item) {
				return
			}
		}
	}
}

func normaliseBufferSize(bufferSize int) int {
	if bufferSize < DefaultBufferSize {
		return DefaultBufferSize
	}
	return bufferSize
}
