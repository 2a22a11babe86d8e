// Package fanout streams one source to a group of consumers through a broadcast and
// retries the members that failed.
//
// A Fanout is a ready attempt: a source plus a consumer group. Driving it runs the
// source, the group and the optional egress side-channel concurrently over a fresh
// broadcaster and yields an Outcome. A retryable failure carries the next ready attempt,
// in which members that already succeeded are resolved and never run again.
package fanout

import (
	"context"
	"errors"
	"time"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/channel"
	"github.com/NethermindEth/fanout/utils"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

type Fanout[T, O any] struct {
	source Source[T]
	group  *Group[T, O]
}

func New[T, O any](source Source[T], group *Group[T, O]) *Fanout[T, O] {
	return &Fanout[T, O]{source: source, group: group}
}

func (f *Fanout[T, O]) Source() Source[T] {
	return f.source
}

func (f *Fanout[T, O]) Group() *Group[T, O] {
	return f.group
}

// Driver returns a driver for a single execution of f with default settings.
func (f *Fanout[T, O]) Driver() *Driver[T, O] {
	return &Driver[T, O]{
		fanout:     f,
		factory:    channel.Go[T](),
		bufferSize: channel.DefaultBufferSize,
		egress:     channel.NoOpSender[EgressItem[T]]{},
		log:        utils.NewNopZapLogger(),
		listener:   &SelectiveListener{},
	}
}

// Outcome is the result of driving one attempt.
// - Err: the source failure, if any. Member failures are only reported in Output.
// - Next: the attempt to run next, nil when the outcome is final.
type Outcome[T, O any] struct {
	Output GroupOutput[O]
	Err    error
	Next   *Fanout[T, O]
}

// Done reports whether the attempt fully succeeded.
func (o Outcome[T, O]) Done() bool {
	return o.Err == nil && !o.Output.ShouldRetry()
}

// Failure returns the source error or, failing that, the joined member errors.
func (o Outcome[T, O]) Failure() error {
	if o.Err != nil {
		return o.Err
	}
	return o.Output.Err()
}

// Retryable reports whether the failure of the attempt is worth retrying, regardless of
// whether a next attempt could be built.
func (o Outcome[T, O]) Retryable() bool {
	if o.Err != nil {
		return IsRetryable(o.Err)
	}
	return o.Output.IsRetryable()
}

func (o Outcome[T, O]) label() string {
	switch {
	case o.Done():
		return OutcomeSucceeded
	case o.Retryable():
		return OutcomeRetryable
	default:
		return OutcomeNonRetryable
	}
}

type Driver[T, O any] struct {
	fanout     *Fanout[T, O]
	factory    channel.Factory[T]
	bufferSize int
	egress     channel.Sender[EgressItem[T]]
	replay     func(GroupOutput[O]) (Source[T], bool)
	log        utils.SimpleLogger
	listener   EventListener
}

func (d *Driver[T, O]) WithChannel(factory channel.Factory[T]) *Driver[T, O] {
	d.factory = factory
	return d
}

func (d *Driver[T, O]) WithBufferSize(bufferSize int) *Driver[T, O] {
	d.bufferSize = bufferSize
	return d
}

// WithEgress sets the side-channel receiving a copy of every broadcast item. The driver
// closes it once the attempt is over.
func (d *Driver[T, O]) WithEgress(egress channel.Sender[EgressItem[T]]) *Driver[T, O] {
	d.egress = egress
	return d
}

// WithReplay sets a function that may build the source of the next attempt from a
// partially failed output, instead of resetting the original source.
func (d *Driver[T, O]) WithReplay(replay func(GroupOutput[O]) (Source[T], bool)) *Driver[T, O] {
	d.replay = replay
	return d
}

func (d *Driver[T, O]) WithLogger(log utils.SimpleLogger) *Driver[T, O] {
	d.log = log
	return d
}

func (d *Driver[T, O]) WithListener(listener EventListener) *Driver[T, O] {
	d.listener = listener
	return d
}

// Drive executes the attempt once. The driver must not be reused.
func (d *Driver[T, O]) Drive(ctx context.Context) Outcome[T, O] {
	start := time.Now()
	outcome := d.drive(ctx)
	closeEgress(ctx, d.egress, !outcome.Done())
	d.listener.OnAttempt(outcome.label(), time.Since(start))
	return outcome
}

func (d *Driver[T, O]) drive(ctx context.Context) Outcome[T, O] {
	f := d.fanout
	if f.source == nil {
		return Outcome[T, O]{Err: NonRetryable(ErrNoSource)}
	}
	if f.group.Pending() == 0 {
		return Outcome[T, O]{Output: f.group.resolved()}
	}

	start := time.Now()
	sizeHint, err := f.source.SizeHint(ctx)
	if err != nil {
		return d.sourceFailure(err)
	}

	b := broadcast.New(
		broadcast.WithChannel(d.factory),
		broadcast.WithBufferSize[T](d.bufferSize),
	)

	wait := f.group.Start(ctx, b, sizeHint)
	egressRx := b.Subscribe()

	var (
		wg      conc.WaitGroup
		pushErr error
	)
	wg.Go(func() {
		drainEgress(ctx, egressRx, d.egress)
	})
	wg.Go(func() {
		defer b.Close()
		var pc panics.Catcher
		pc.Try(func() {
			pushErr = f.source.PushAll(ctx, b)
		})
		if recovered := pc.Recovered(); recovered != nil {
			pushErr = NonRetryable(recovered.AsError())
		}
	})
	output := wait()
	wg.Wait()

	d.log.Infow("Done sending items to subscribers",
		"response_time", time.Since(start).Milliseconds(),
		"items", b.Sent(),
		"members", f.group.Pending())
	d.listener.OnBroadcast(int(b.Sent()))

	// a cancelled broadcast is reported by the member that cancelled it
	if pushErr != nil && !errors.Is(pushErr, broadcast.ErrCancelled) {
		return d.sourceFailure(pushErr)
	}

	outcome := Outcome[T, O]{Output: output}
	if output.ShouldRetry() && output.IsRetryable() {
		if source, ok := d.nextSource(output); ok {
			outcome.Next = New(source, f.group.Retry(output))
		}
	}
	return outcome
}

// sourceFailure keeps the group as is for the next attempt: members may have seen a
// truncated stream and succeeded on it.
func (d *Driver[T, O]) sourceFailure(err error) Outcome[T, O] {
	outcome := Outcome[T, O]{Err: &SourceError{Err: err}}
	if !IsRetryable(err) {
		return outcome
	}
	if source, ok := d.fanout.source.Reset(); ok {
		outcome.Next = New(source, d.fanout.group)
	}
	return outcome
}

func (d *Driver[T, O]) nextSource(output GroupOutput[O]) (Source[T], bool) {
	if d.replay != nil {
		if source, ok := d.replay(output); ok {
			return source, true
		}
	}
	return d.fanout.source.Reset()
}
