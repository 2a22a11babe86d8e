package consumer

import (
	"context"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/channel"
	"github.com/NethermindEth/fanout/fanout"
)

const (
	expectedChunkSize = 8192
	maxPreallocChunks = 1 << 16
)

// Bufferer keeps every chunk of the stream in memory. Its output can be replayed as a
// source for the next attempt.
type Bufferer struct{}

var _ fanout.Consumer[[]byte, [][]byte] = Bufferer{}

func (Bufferer) Consume(ctx context.Context, rx channel.Receiver[[]byte],
	token *broadcast.CancellationToken, sizeHint *uint64,
) ([][]byte, error) {
	var capacity uint64
	if sizeHint != nil {
		capacity = min(*sizeHint/expectedChunkSize, maxPreallocChunks)
	}

	buffer := make([][]byte, 0, capacity)
	var total uint64
	for chunk := range channel.All(ctx, rx) {
		buffer = append(buffer, chunk)
		total += uint64(len(chunk))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkComplete(token, total, sizeHint); err != nil {
		return nil, err
	}
	return buffer, nil
}
