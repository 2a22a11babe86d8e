package channel

import (
	"context"
	"sync"
)

// Go returns a factory backed by native buffered Go channels.
func Go[T any]() Factory[T] {
	return FactoryFunc[T](newChanPair[T])
}

type chanQueue[T any] struct {
	items chan T
	// gone is closed by the receiver to unblock and fail senders.
	gone      chan struct{}
	goneOnce  sync.Once
	closeOnce sync.Once
}

type chanSender[T any] struct {
	q *chanQueue[T]
}

type chanReceiver[T any] struct {
	q *chanQueue[T]
}

func newChanPair[T any](bufferSize int) (Sender[T], Receiver[T]) {
	q := &chanQueue[T]{
		items: make(chan T, normaliseBufferSize(bufferSize)),
		gone:  make(chan struct{}),
	}
	return chanSender[T]{q: q}, chanReceiver[T]{q: q}
}

func (s chanSender[T]) Send(ctx context.Context, item T) SendResult {
	// select picks randomly among ready cases, check for a dead receiver first
	select {
	case <-s.q.gone:
		return Failure
	default:
	}

	select {
	case s.q.items <- item:
		return Success
	case <-s.q.gone:
		return Failure
	case <-ctx.Done():
		return Failure
	}
}

func (s chanSender[T]) Close() {
	s.q.closeOnce.Do(func() {
		close(s.q.items)
	})
}

func (r chanReceiver[T]) Recv(ctx context.Context) (T, bool) {
	select {
	case item, ok := <-r.q.items:
		return item, ok
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

func (r chanReceiver[T]) Close() {
	r.q.goneOnce.Do(func() {
		close(r.q.gone)
	})
}
