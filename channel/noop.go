package channel

import "context"

// NoOp returns a factory whose senders always fail and whose receivers are always closed.
// It stands in for "nothing configured" so callers never branch on a missing queue.
func NoOp[T any]() Factory[T] {
	return FactoryFunc[T](func(int) (Sender[T], Receiver[T]) {
		return NoOpSender[T]{}, NoOpReceiver[T]{}
	})
}

type NoOpSender[T any] struct{}

func (NoOpSender[T]) Send(context.Context, T) SendResult { return Failure }
func (NoOpSender[T]) Close()                             {}

type NoOpReceiver[T any] struct{}

func (NoOpReceiver[T]) Recv(context.Context) (T, bool) {
	var zero T
	return zero, false
}
func (NoOpReceiver[T]) Close() {}
