// Package consumer holds ready-made fanout consumers of byte chunk streams.
package consumer

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/fanout"
)

var (
	ErrLimitExceeded = errors.New("byte limit exceeded")
	// ErrTruncated is returned when the broadcast was cancelled by someone else before the
	// whole stream was seen.
	ErrTruncated = errors.New("stream truncated by cancelled broadcast")
)

// checkComplete fails when the stream may have been cut short by a cancelled broadcast.
// Without a size hint any cancelled broadcast counts as truncated.
func checkComplete(token *broadcast.CancellationToken, received uint64, sizeHint *uint64) error {
	if !token.IsCancelled() {
		return nil
	}
	if sizeHint != nil && received >= *sizeHint {
		return nil
	}
	return fanout.Retryable(fmt.Errorf("%w after %d bytes", ErrTruncated, received))
}
