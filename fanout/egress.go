package fanout

import (
	"context"

	"github.com/NethermindEth/fanout/channel"
)

// EgressItem is what the egress side-channel receives: a copy of every broadcast item,
// and a final item carrying Err when the attempt failed.
type EgressItem[T any] struct {
	Item T
	Err  error
}

func (e EgressItem[T]) IsErr() bool {
	return e.Err != nil
}

// drainEgress forwards every item of rx to egress until either side goes away.
func drainEgress[T any](ctx context.Context, rx channel.Receiver[T], egress channel.Sender[EgressItem[T]]) {
	defer rx.Close()
	for item := range channel.All(ctx, rx) {
		if egress.Send(ctx, EgressItem[T]{Item: item}) == channel.Failure {
			return
		}
	}
}

// closeEgress sends the abort marker if needed, then ends the side-channel. The marker is
// sent even if ctx is done: a receiver must never mistake an aborted stream for a
// complete one.
func closeEgress[T any](ctx context.Context, egress channel.Sender[EgressItem[T]], abort bool) {
	if abort {
		egress.Send(context.WithoutCancel(ctx), EgressItem[T]{Err: ErrEgressAborted})
	}
	egress.Close()
}
