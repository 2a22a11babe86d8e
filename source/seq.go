package source

import (
	"context"
	"iter"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/fanout"
)

// Seq streams a one-shot sequence. Errors yielded by the sequence fail the attempt with
// their own retry tag. It cannot be reset.
type Seq[T any] struct {
	seq      iter.Seq2[T, error]
	sizeHint *uint64
}

var _ fanout.Source[int] = (*Seq[int])(nil)

func NewSeq[T any](seq iter.Seq2[T, error], sizeHint *uint64) *Seq[T] {
	return &Seq[T]{seq: seq, sizeHint: sizeHint}
}

func (s *Seq[T]) SizeHint(context.Context) (*uint64, error) {
	return s.sizeHint, nil
}

func (s *Seq[T]) PushAll(ctx context.Context, b *broadcast.Broadcaster[T]) error {
	return b.BroadcastFrom(ctx, s.seq)
}

func (s *Seq[T]) Reset() (fanout.Source[T], bool) {
	return nil, false
}
