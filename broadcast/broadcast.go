// Package broadcast implements a fan-out of one ordered item stream to any number of
// subscribers with full backpressure.
// Every subscriber gets its own bounded queue created by a channel.Factory; Broadcast
// offers the item to all queues concurrently and returns once every queue accepted it or
// its receiver is gone. Nothing is ever dropped for a live subscriber, so the slowest
// subscriber paces the producer.
// Any party holding the CancellationToken can abort the broadcast. Cancellation is checked
// with priority: if the token fires while (or right as) an item is being delivered,
// Broadcast reports ErrCancelled even when every send already completed. Cancellation only
// stops the producer: items already queued stay queued, so a subscriber that cancels after
// observing item k does not bound what the others see. With queues of size n, a faster
// subscriber may still receive up to item k+n+1 while the slow queue is full.
// Notes:
//   - A Broadcaster is owned by a single producer. Subscribe must not be called
//     concurrently with an in-flight Broadcast; subscribe everyone before production starts.
//   - Close is the end-of-stream signal: every live subscription drains its queue and then
//     reports closed.
package broadcast

import (
	"context"
	"errors"
	"iter"

	"github.com/NethermindEth/fanout/channel"
	conciter "github.com/sourcegraph/conc/iter"
)

var (
	ErrCancelled = errors.New("broadcast cancelled")
	ErrClosed    = errors.New("broadcaster closed")
)

type Broadcaster[T any] struct {
	factory    channel.Factory[T]
	bufferSize int
	clone      func(T) T
	token      *CancellationToken

	senders []channel.Sender[T]
	sent    uint64
	closed  bool
}

type Option[T any] func(*Broadcaster[T])

// WithChannel selects the queue implementation used for every subscription.
func WithChannel[T any](factory channel.Factory[T]) Option[T] {
	return func(b *Broadcaster[T]) {
		b.factory = factory
	}
}

// WithBufferSize sets the queue capacity applied uniformly to every subscription.
func WithBufferSize[T any](bufferSize int) Option[T] {
	return func(b *Broadcaster[T]) {
		b.bufferSize = bufferSize
	}
}

// WithCloner sets the function used to produce one copy of an item per subscriber.
// Items are shared as-is by default, which is fine for immutable values.
func WithCloner[T any](clone func(T) T) Option[T] {
	return func(b *Broadcaster[T]) {
		b.clone = clone
	}
}

// WithToken makes the broadcaster observe an existing token instead of a fresh one.
func WithToken[T any](token *CancellationToken) Option[T] {
	return func(b *Broadcaster[T]) {
		b.token = token
	}
}

func New[T any](opts ...Option[T]) *Broadcaster[T] {
	b := &Broadcaster[T]{
		factory:    channel.Go[T](),
		bufferSize: channel.DefaultBufferSize,
		clone:      func(item T) T { return item },
		token:      NewCancellationToken(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe creates a new queue and returns its consumer end. A late subscriber only
// receives items broadcast after it subscribed. Subscribing to a closed broadcaster yields
// an already ended subscription.
func (b *Broadcaster[T]) Subscribe() channel.Receiver[T] {
	tx, rx := b.factory.New(b.bufferSize)
	if b.closed {
		tx.Close()
		return rx
	}
	b.senders = append(b.senders, tx)
	return rx
}

// CancellationToken returns the shared token; tripping it aborts current and future
// broadcasts.
func (b *Broadcaster[T]) CancellationToken() *CancellationToken {
	return b.token
}

// Broadcast delivers item to every subscription. A subscription whose receiver is gone is
// skipped silently; the only errors are ErrCancelled, ErrClosed and ctx errors.
func (b *Broadcaster[T]) Broadcast(ctx context.Context, item T) error {
	_, err := b.send(ctx, item)
	return err
}

// BroadcastAndPrune behaves like Broadcast and afterwards forgets every subscription whose
// send failed, so later broadcasts stop paying for dead subscribers.
func (b *Broadcaster[T]) BroadcastAndPrune(ctx context.Context, item T) error {
	results, err := b.send(ctx, item)
	if err != nil {
		return err
	}

	live := b.senders[:0]
	for i, tx := range b.senders {
		if results[i] == channel.Success {
			live = append(live, tx)
		} else {
			tx.Close()
		}
	}
	clear(b.senders[len(live):])
	b.senders = live
	return nil
}

// BroadcastFrom broadcasts every item of seq in order, pruning dead subscriptions as it
// goes. It stops at the first error yielded by seq and returns it. Cancellation ends the
// loop without an error: the party that cancelled reports its own failure.
func (b *Broadcaster[T]) BroadcastFrom(ctx context.Context, seq iter.Seq2[T, error]) error {
	for item, err := range seq {
		if err != nil {
			return err
		}
		if err = b.BroadcastAndPrune(ctx, item); err != nil {
			if errors.Is(err, ErrCancelled) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Close ends the stream for every subscription. Calling it more than once is a no-op.
func (b *Broadcaster[T]) Close() {
	if b.closed {
		return
	}
	b.closed = true
	for _, tx := range b.senders {
		tx.Close()
	}
	b.senders = nil
}

// Len returns the number of subscriptions still being served.
func (b *Broadcaster[T]) Len() int {
	return len(b.senders)
}

// Sent returns the number of items successfully broadcast so far.
func (b *Broadcaster[T]) Sent() uint64 {
	return b.sent
}

func (b *Broadcaster[T]) send(ctx context.Context, item T) ([]channel.SendResult, error) {
	if b.token.IsCancelled() {
		return nil, ErrCancelled
	}
	if b.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// sends in flight are abandoned as soon as the token fires
	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(b.token.Context(), cancel)
	defer stop()

	done := make(chan []channel.SendResult, 1)
	go func() {
		mapper := conciter.Mapper[channel.Sender[T], channel.SendResult]{
			MaxGoroutines: max(len(b.senders), 1),
		}
		done <- mapper.Map(b.senders, func(tx *channel.Sender[T]) channel.SendResult {
			return (*tx).Send(sendCtx, b.clone(item))
		})
	}()

	select {
	case <-b.token.Done():
		cancel()
		// no send may still be running once we return: Close would race with it
		<-done
		return nil, ErrCancelled
	case results := <-done:
		if b.token.IsCancelled() {
			return nil, ErrCancelled
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.sent++
		return results, nil
	}
}
