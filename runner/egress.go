package runner

import (
	"context"
	"os"

	"github.com/NethermindEth/fanout/channel"
	"github.com/NethermindEth/fanout/fanout"
	"github.com/NethermindEth/fanout/utils"
)

const partialSuffix = ".partial"

// fileEgress tees the stream of one attempt into a file. The data is written to a
// temporary file that is renamed into place only when the attempt completed.
type fileEgress struct {
	path    string
	file    *os.File
	aborted bool
	log     utils.SimpleLogger
}

var _ channel.Sender[fanout.EgressItem[[]byte]] = (*fileEgress)(nil)

func newFileEgress(path string, log utils.SimpleLogger) (*fileEgress, error) {
	file, err := os.Create(path + partialSuffix)
	if err != nil {
		return nil, err
	}
	return &fileEgress{path: path, file: file, log: log}, nil
}

func (e *fileEgress) Send(_ context.Context, item fanout.EgressItem[[]byte]) channel.SendResult {
	if e.file == nil || e.aborted {
		return channel.Failure
	}
	if item.IsErr() {
		e.aborted = true
		return channel.Success
	}
	if _, err := e.file.Write(item.Item); err != nil {
		e.log.Warnw("Failed to write egress", "path", e.path, "err", err)
		e.aborted = true
		return channel.Failure
	}
	return channel.Success
}

func (e *fileEgress) Close() {
	if e.file == nil {
		return
	}
	file := e.file
	e.file = nil

	partial := file.Name()
	if err := file.Close(); err != nil {
		e.log.Warnw("Failed to close egress", "path", e.path, "err", err)
		e.aborted = true
	}
	if e.aborted {
		if err := os.Remove(partial); err != nil {
			e.log.Warnw("Failed to remove aborted egress", "path", partial, "err", err)
		}
		return
	}
	if err := os.Rename(partial, e.path); err != nil {
		e.log.Warnw("Failed to move egress into place", "path", e.path, "err", err)
	}
}
