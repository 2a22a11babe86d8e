// Package runner streams every configured input to a group of byte consumers, retries the
// consumers that failed and reports what each of them produced.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NethermindEth/fanout/channel"
	"github.com/NethermindEth/fanout/consumer"
	"github.com/NethermindEth/fanout/fanout"
	"github.com/NethermindEth/fanout/metrics"
	"github.com/NethermindEth/fanout/source"
	"github.com/NethermindEth/fanout/utils"
	"github.com/NethermindEth/fanout/validator"
	"golang.org/x/sync/errgroup"
)

var ErrNoConsumers = errors.New("no consumer configured")

type Runner struct {
	cfg    *Config
	log    utils.SimpleLogger
	out    io.Writer
	client *http.Client

	factory   channel.Factory[[]byte]
	consumers []fanout.Consumer[[]byte, any]
	names     []string
	// index of the bufferer in the group, -1 without one
	bufferer int

	listener fanout.EventListener
	metrics  *httpService
}

func New(cfg *Config, log utils.SimpleLogger, out io.Writer) (*Runner, error) {
	if err := validator.Validator().Struct(cfg); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:      cfg,
		log:      log,
		out:      out,
		client:   &http.Client{},
		factory:  channel.Go[[]byte](),
		bufferer: -1,
	}
	if cfg.Channel == ChannelRing {
		r.factory = channel.Ring[[]byte]()
	}

	for _, limit := range cfg.Limits {
		r.add(counterName(limit), fanout.Erase[[]byte, uint64](consumer.BytesCounter{Limit: limit}))
	}
	if cfg.Buffer {
		r.bufferer = len(r.consumers)
		r.add("bufferer", fanout.Erase[[]byte, [][]byte](consumer.Bufferer{}))
	}
	if cfg.Checksum {
		r.add("checksum", fanout.Erase[[]byte, string](consumer.Checksum{}))
	}
	if len(r.consumers) == 0 {
		return nil, ErrNoConsumers
	}

	if cfg.Egress != "" {
		if err := os.MkdirAll(cfg.Egress, 0o755); err != nil {
			return nil, fmt.Errorf("egress directory: %w", err)
		}
	}

	if cfg.Metrics {
		metrics.Enable()
		registry := metrics.PrometheusRegistry()
		r.listener = makeFanoutMetrics(metrics.PrometheusFactory(registry))

		listener, err := net.Listen("tcp", net.JoinHostPort(cfg.MetricsHost, strconv.Itoa(int(cfg.MetricsPort))))
		if err != nil {
			return nil, fmt.Errorf("listen on metrics port: %w", err)
		}
		r.metrics = makeMetrics(listener, registry, &cfg.LogLevel)
		log.Infow("Metrics server listening", "addr", listener.Addr().String())
	} else {
		r.listener = makeFanoutMetrics(metrics.VoidFactory())
	}
	return r, nil
}

func (r *Runner) add(name string, c fanout.Consumer[[]byte, any]) {
	r.names = append(r.names, name)
	r.consumers = append(r.consumers, c)
}

func counterName(limit uint64) string {
	if limit == 0 {
		return "bytes"
	}
	return "bytes<=" + strconv.FormatUint(limit, 10)
}

// Run processes every input, writes the report and returns the failures of the inputs
// that did not complete.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if r.metrics != nil {
		g.Go(func() error {
			return r.metrics.Run(gctx)
		})
	}
	g.Go(func() error {
		// the metrics service stops with the batch
		defer cancel()
		return r.runBatch(gctx)
	})
	return g.Wait()
}

func (r *Runner) runBatch(ctx context.Context) error {
	attempts := make([]*fanout.Fanout[[]byte, any], len(r.cfg.Inputs))
	for i, input := range r.cfg.Inputs {
		src, err := r.source(input)
		if err != nil {
			return err
		}
		attempts[i] = fanout.New(src, fanout.NewGroup(r.consumers...))
	}

	r.log.Infow("Starting fanout", "inputs", len(attempts), "consumers", len(r.consumers))
	outputs, runErr := fanout.Run(ctx, attempts, fanout.RetryConfig{
		MaxAttempts: r.cfg.MaxAttempts,
		Backoff:     fanout.LinearBackoff(r.cfg.Backoff),
		Log:         r.log,
		Listener:    r.listener,
	}, r.configure)

	if err := r.report(r.out, outputs); err != nil {
		return errors.Join(runErr, fmt.Errorf("write report: %w", err))
	}
	return runErr
}

func (r *Runner) source(input string) (fanout.Source[[]byte], error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return source.NewURL(input).WithClient(r.client).WithChunkSize(r.cfg.ChunkSize), nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return source.Chunked(data, r.cfg.ChunkSize), nil
}

func (r *Runner) configure(index int, d *fanout.Driver[[]byte, any]) {
	d.WithChannel(r.factory).WithBufferSize(r.cfg.BufferSize)

	if r.bufferer >= 0 {
		d.WithReplay(r.replay)
	}

	if r.cfg.Egress != "" {
		path := filepath.Join(r.cfg.Egress, "input-"+strconv.Itoa(index))
		egress, err := newFileEgress(path, r.log)
		if err != nil {
			r.log.Warnw("Egress disabled for this attempt", "path", path, "err", err)
			return
		}
		d.WithEgress(egress)
	}
}

// replay rebuilds the stream from the bufferer output so that a retry does not fetch
// the input again.
func (r *Runner) replay(output fanout.GroupOutput[any]) (fanout.Source[[]byte], bool) {
	result := output.Results[r.bufferer]
	if result.Err != nil {
		return nil, false
	}
	chunks, ok := result.Output.([][]byte)
	if !ok {
		return nil, false
	}
	r.log.Debugw("Replaying buffered stream", "chunks", len(chunks))
	return source.NewBytes(chunks...), true
}
