package fanout

import (
	"context"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/channel"
)

//go:generate mockgen -source=consumer.go -destination=../mocks/mock_consumer.go -package=mocks
type Consumer[T, O any] interface {
	// Consume drains rx until it reports closed and returns the result. A consumer may
	// cancel token to abort the whole broadcast, it still reports its own error then.
	// sizeHint is nil when the source does not know its length.
	Consume(ctx context.Context, rx channel.Receiver[T], token *broadcast.CancellationToken,
		sizeHint *uint64) (O, error)
}

type ConsumerFunc[T, O any] func(ctx context.Context, rx channel.Receiver[T],
	token *broadcast.CancellationToken, sizeHint *uint64) (O, error)

func (f ConsumerFunc[T, O]) Consume(ctx context.Context, rx channel.Receiver[T],
	token *broadcast.CancellationToken, sizeHint *uint64,
) (O, error) {
	return f(ctx, rx, token, sizeHint)
}

// Erase hides the output type of c so that consumers with different outputs can share a
// group.
func Erase[T, O any](c Consumer[T, O]) Consumer[T, any] {
	return ConsumerFunc[T, any](func(ctx context.Context, rx channel.Receiver[T],
		token *broadcast.CancellationToken, sizeHint *uint64,
	) (any, error) {
		out, err := c.Consume(ctx, rx, token, sizeHint)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

// ConsumerOrResolved is a group member: either a consumer still to run or the output it
// produced in an earlier attempt.
type ConsumerOrResolved[T, O any] struct {
	consumer Consumer[T, O]
	output   O
	resolved bool
}

func Unresolved[T, O any](c Consumer[T, O]) ConsumerOrResolved[T, O] {
	return ConsumerOrResolved[T, O]{consumer: c}
}

func Resolved[T, O any](output O) ConsumerOrResolved[T, O] {
	return ConsumerOrResolved[T, O]{output: output, resolved: true}
}

func (m ConsumerOrResolved[T, O]) IsResolved() bool {
	return m.resolved
}

// Output returns the cached output of a resolved member.
func (m ConsumerOrResolved[T, O]) Output() (O, bool) {
	return m.output, m.resolved
}

// Consumer returns the consumer of an unresolved member, nil otherwise.
func (m ConsumerOrResolved[T, O]) Consumer() Consumer[T, O] {
	return m.consumer
}
