// Package source holds ready-made fanout sources of byte chunk streams.
package source

import (
	"context"
	"iter"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/fanout"
)

const DefaultChunkSize = 8192

// Bytes replays chunks held in memory. It can always be reset.
type Bytes struct {
	chunks [][]byte
}

var _ fanout.Source[[]byte] = (*Bytes)(nil)

func NewBytes(chunks ...[]byte) *Bytes {
	return &Bytes{chunks: chunks}
}

// Chunked splits data into chunks of at most chunkSize bytes without copying it.
func Chunked(data []byte, chunkSize int) *Bytes {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	var chunks [][]byte
	for len(data) > 0 {
		n := min(chunkSize, len(data))
		chunks = append(chunks, data[:n:n])
		data = data[n:]
	}
	return &Bytes{chunks: chunks}
}

func (s *Bytes) Chunks() [][]byte {
	return s.chunks
}

func (s *Bytes) SizeHint(context.Context) (*uint64, error) {
	var total uint64
	for _, chunk := range s.chunks {
		total += uint64(len(chunk))
	}
	return &total, nil
}

func (s *Bytes) PushAll(ctx context.Context, b *broadcast.Broadcaster[[]byte]) error {
	return b.BroadcastFrom(ctx, s.all())
}

func (s *Bytes) Reset() (fanout.Source[[]byte], bool) {
	return s, true
}

func (s *Bytes) all() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for _, chunk := range s.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}
