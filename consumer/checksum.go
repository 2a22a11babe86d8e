package consumer

import (
	"context"
	"encoding/hex"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/channel"
	"github.com/NethermindEth/fanout/fanout"
	"golang.org/x/crypto/sha3"
)

// Checksum returns the hex encoded Keccak-256 digest of the stream.
type Checksum struct{}

var _ fanout.Consumer[[]byte, string] = Checksum{}

func (Checksum) Consume(ctx context.Context, rx channel.Receiver[[]byte],
	token *broadcast.CancellationToken, sizeHint *uint64,
) (string, error) {
	hasher := sha3.NewLegacyKeccak256()
	var total uint64
	for chunk := range channel.All(ctx, rx) {
		hasher.Write(chunk)
		total += uint64(len(chunk))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkComplete(token, total, sizeHint); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(hasher.Sum(nil)), nil
}
