package fanout

import (
	"context"

	"github.com/NethermindEth/fanout/broadcast"
)

//go:generate mockgen -source=source.go -destination=../mocks/mock_source.go -package=mocks
type Source[T any] interface {
	// SizeHint returns the total size of the stream if known. An error aborts the attempt
	// before anything is broadcast.
	SizeHint(ctx context.Context) (*uint64, error)
	// PushAll broadcasts every item in order. The caller closes b once PushAll returns.
	PushAll(ctx context.Context, b *broadcast.Broadcaster[T]) error
	// Reset returns a source that replays the stream from the start, or false when the
	// content cannot be produced again.
	Reset() (Source[T], bool)
}
