package consumer

import (
	"context"
	"fmt"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/channel"
	"github.com/NethermindEth/fanout/fanout"
)

// BytesCounter counts the bytes of the stream. Once more than Limit bytes were seen it
// aborts the whole broadcast. A zero Limit means no limit.
type BytesCounter struct {
	Limit uint64
}

var _ fanout.Consumer[[]byte, uint64] = BytesCounter{}

func (c BytesCounter) Consume(ctx context.Context, rx channel.Receiver[[]byte],
	token *broadcast.CancellationToken, sizeHint *uint64,
) (uint64, error) {
	var total uint64
	for chunk := range channel.All(ctx, rx) {
		total += uint64(len(chunk))
		if c.Limit > 0 && total > c.Limit {
			token.Cancel()
			return 0, fanout.Retryable(fmt.Errorf("%w: %d > %d", ErrLimitExceeded, total, c.Limit))
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkComplete(token, total, sizeHint); err != nil {
		return 0, err
	}
	return total, nil
}
