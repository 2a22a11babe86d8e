package fanout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NethermindEth/fanout/utils"
	conciter "github.com/sourcegraph/conc/iter"
)

const DefaultMaxAttempts = 5

type RetryConfig struct {
	// MaxAttempts bounds the number of rounds, the first one included.
	MaxAttempts int
	// Backoff returns the pause after the given failed round.
	Backoff  func(round int) time.Duration
	Log      utils.SimpleLogger
	Listener EventListener
}

// LinearBackoff waits round*unit after each failed round.
func LinearBackoff(unit time.Duration) func(int) time.Duration {
	return func(round int) time.Duration {
		return time.Duration(round) * unit
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Backoff == nil {
		c.Backoff = LinearBackoff(time.Second)
	}
	if c.Log == nil {
		c.Log = utils.NewNopZapLogger()
	}
	if c.Listener == nil {
		c.Listener = &SelectiveListener{}
	}
	return c
}

type pendingFanout[T, O any] struct {
	index  int
	fanout *Fanout[T, O]
}

// Run drives a batch of attempts concurrently and retries the failed ones until every
// attempt succeeded, one of them cannot be retried, or the round budget is spent. The
// batch fails as a whole: a single final failure stops every retry.
//
// outputs[i] is the last group output of attempts[i]. The error joins the failure of every
// attempt that did not succeed in the last round. configure, if set, is called with the
// attempt index on every driver before it runs.
func Run[T, O any](ctx context.Context, attempts []*Fanout[T, O], cfg RetryConfig,
	configure func(int, *Driver[T, O]),
) ([]GroupOutput[O], error) {
	cfg = cfg.withDefaults()
	outputs := make([]GroupOutput[O], len(attempts))

	current := make([]pendingFanout[T, O], len(attempts))
	for i, f := range attempts {
		current[i] = pendingFanout[T, O]{index: i, fanout: f}
	}

	for round := 1; ; round++ {
		cfg.Listener.OnRetryRound(round, len(current))
		mapper := conciter.Mapper[pendingFanout[T, O], Outcome[T, O]]{
			MaxGoroutines: max(len(current), 1),
		}
		outcomes := mapper.Map(current, func(p *pendingFanout[T, O]) Outcome[T, O] {
			d := p.fanout.Driver().WithLogger(cfg.Log).WithListener(cfg.Listener)
			if configure != nil {
				configure(p.index, d)
			}
			return d.Drive(ctx)
		})

		var (
			next     []pendingFanout[T, O]
			errs     []error
			terminal bool
		)
		for i, outcome := range outcomes {
			index := current[i].index
			// a source failure carries no member results, keep those of the previous round
			if outcome.Err == nil || len(outcome.Output.Results) > 0 {
				outputs[index] = outcome.Output
			}
			if outcome.Done() {
				continue
			}
			errs = append(errs, fmt.Errorf("fanout %d: %w", index, outcome.Failure()))
			if outcome.Next == nil {
				terminal = true
				continue
			}
			next = append(next, pendingFanout[T, O]{index: index, fanout: outcome.Next})
		}

		switch {
		case len(errs) == 0:
			return outputs, nil
		case terminal:
			cfg.Log.Warnw("Fanout failed and cannot be retried", "round", round, "failed", len(errs))
			return outputs, errors.Join(errs...)
		case round >= cfg.MaxAttempts:
			cfg.Log.Warnw("Fanout retry budget exhausted", "round", round, "failed", len(errs))
			return outputs, errors.Join(errs...)
		}

		delay := cfg.Backoff(round)
		cfg.Log.Infow("Retrying fanout", "round", round, "pending", len(next), "backoff", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return outputs, errors.Join(append(errs, ctx.Err())...)
		case <-timer.C:
		}
		current = next
	}
}
