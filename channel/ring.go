package channel

import (
	"context"
	"math/bits"
	"sync"
)

// Ring returns a factory backed by a bounded ring buffer. Waiters block on a notify
// channel that is closed and swapped on every state change, so one close wakes both
// sides without per-waiter bookkeeping.
func Ring[T any]() Factory[T] {
	return FactoryFunc[T](newRingPair[T])
}

// ringQueue holds at most limit items in a power-of-two sized slot array.
// - head: sequence of the next item to read.
// - tail: sequence of the next item to write; tail-head is the queue length.
// - notify: closed and replaced whenever head, tail or a closed flag changes.
type ringQueue[T any] struct {
	mu     sync.Mutex
	buffer []T
	mask   uint64
	limit  uint64
	head   uint64
	tail   uint64
	notify chan struct{}

	senderClosed   bool
	receiverClosed bool
}

type ringSender[T any] struct {
	q *ringQueue[T]
}

type ringReceiver[T any] struct {
	q *ringQueue[T]
}

func newRingPair[T any](bufferSize int) (Sender[T], Receiver[T]) {
	limit := uint64(normaliseBufferSize(bufferSize))
	capacity := nextPowerOfTwo(limit)
	q := &ringQueue[T]{
		buffer: make([]T, capacity),
		mask:   capacity - 1,
		limit:  limit,
		notify: make(chan struct{}),
	}
	return ringSender[T]{q: q}, ringReceiver[T]{q: q}
}

// wake must be called with mu held.
func (q *ringQueue[T]) wake() {
	close(q.notify)
	q.notify = make(chan struct{})
}

func (s ringSender[T]) Send(ctx context.Context, item T) SendResult {
	q := s.q
	for {
		q.mu.Lock()
		if q.receiverClosed || q.senderClosed {
			q.mu.Unlock()
			return Failure
		}
		if q.tail-q.head < q.limit {
			q.buffer[q.tail&q.mask] = item
			q.tail++
			q.wake()
			q.mu.Unlock()
			return Success
		}
		notify := q.notify
		q.mu.Unlock()

		select {
		case <-notify:
		case <-ctx.Done():
			return Failure
		}
	}
}

func (s ringSender[T]) Close() {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	if !s.q.senderClosed {
		s.q.senderClosed = true
		s.q.wake()
	}
}

func (r ringReceiver[T]) Recv(ctx context.Context) (T, bool) {
	q := r.q
	var zero T
	for {
		q.mu.Lock()
		if q.head < q.tail && !q.receiverClosed {
			idx := q.head & q.mask
			item := q.buffer[idx]
			q.buffer[idx] = zero
			q.head++
			q.wake()
			q.mu.Unlock()
			return item, true
		}
		if q.senderClosed || q.receiverClosed {
			q.mu.Unlock()
			return zero, false
		}
		notify := q.notify
		q.mu.Unlock()

		select {
		case <-notify:
		case <-ctx.Done():
			return zero, false
		}
	}
}

func (r ringReceiver[T]) Close() {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	if !r.q.receiverClosed {
		r.q.receiverClosed = true
		clear(r.q.buffer)
		r.q.wake()
	}
}

// nextPowerOfTwo computes the next power-of-two >= x, returning 1 for x=0.
func nextPowerOfTwo(x uint64) uint64 {
	if x == 0 {
		return 1
	}
	return 1 << uint(bits.Len64(x-1))
}
