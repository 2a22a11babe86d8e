package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/NethermindEth/fanout/runner"
	"github.com/NethermindEth/fanout/utils"
	_ "go.uber.org/automaxprocs"
)

func newRunner(cfg *runner.Config, log utils.SimpleLogger, out io.Writer) (Runnable, error) {
	return runner.New(cfg, log, out)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewCmd(newRunner).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
