package fanout

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Group is a fixed, ordered set of members consuming the same broadcast. Member i of the
// group always produces Results[i] of the group output.
type Group[T, O any] struct {
	members []ConsumerOrResolved[T, O]
}

func NewGroup[T, O any](consumers ...Consumer[T, O]) *Group[T, O] {
	members := make([]ConsumerOrResolved[T, O], len(consumers))
	for i, c := range consumers {
		members[i] = Unresolved(c)
	}
	return &Group[T, O]{members: members}
}

func GroupOf[T, O any](members ...ConsumerOrResolved[T, O]) *Group[T, O] {
	return &Group[T, O]{members: slices.Clone(members)}
}

func (g *Group[T, O]) Members() []ConsumerOrResolved[T, O] {
	return slices.Clone(g.members)
}

func (g *Group[T, O]) Len() int {
	return len(g.members)
}

// Pending returns the number of members that still have to run.
func (g *Group[T, O]) Pending() int {
	pending := 0
	for _, m := range g.members {
		if !m.IsResolved() {
			pending++
		}
	}
	return pending
}

// Start subscribes every unresolved member to b and runs them concurrently. It returns a
// function that blocks until every member returned. Resolved members do not subscribe and
// report their cached output.
// Subscriptions are made before Start returns, so the caller may start broadcasting right
// after.
func (g *Group[T, O]) Start(ctx context.Context, b *broadcast.Broadcaster[T], sizeHint *uint64) func() GroupOutput[O] {
	results := make([]Result[O], len(g.members))
	token := b.CancellationToken()

	var wg conc.WaitGroup
	for i, m := range g.members {
		if output, ok := m.Output(); ok {
			results[i] = Result[O]{Output: output, Cached: true}
			continue
		}

		rx := b.Subscribe()
		c := m.Consumer()
		wg.Go(func() {
			// an abandoned subscription must never stall the broadcast
			defer rx.Close()

			var (
				output O
				err    error
				pc     panics.Catcher
			)
			pc.Try(func() {
				output, err = c.Consume(ctx, rx, token, sizeHint)
			})
			if recovered := pc.Recovered(); recovered != nil {
				err = NonRetryable(recovered.AsError())
			}

			if err != nil {
				results[i] = Result[O]{Err: &ConsumerError{Member: i, Err: err}}
				return
			}
			results[i] = Result[O]{Output: output}
		})
	}

	return func() GroupOutput[O] {
		wg.Wait()
		return GroupOutput[O]{Results: results}
	}
}

// Run starts the group and waits for it. Someone else must push into b and close it.
func (g *Group[T, O]) Run(ctx context.Context, b *broadcast.Broadcaster[T], sizeHint *uint64) GroupOutput[O] {
	return g.Start(ctx, b, sizeHint)()
}

// Retry returns the group for the next attempt: members that succeeded in prev are
// resolved with their output, the others run again.
func (g *Group[T, O]) Retry(prev GroupOutput[O]) *Group[T, O] {
	members := slices.Clone(g.members)
	for i := range members {
		if i >= len(prev.Results) {
			break
		}
		if result := prev.Results[i]; result.Err == nil {
			members[i] = Resolved[T](result.Output)
		}
	}
	return &Group[T, O]{members: members}
}

// resolved returns the output of a group with nothing left to run.
func (g *Group[T, O]) resolved() GroupOutput[O] {
	results := make([]Result[O], len(g.members))
	for i, m := range g.members {
		output, _ := m.Output()
		results[i] = Result[O]{Output: output, Cached: true}
	}
	return GroupOutput[O]{Results: results}
}

type Result[O any] struct {
	Output O
	Err    error
	// Cached is set when Output comes from an earlier attempt.
	Cached bool
}

type GroupOutput[O any] struct {
	Results []Result[O]
}

// ShouldRetry reports whether any member failed.
func (o GroupOutput[O]) ShouldRetry() bool {
	return slices.ContainsFunc(o.Results, func(r Result[O]) bool {
		return r.Err != nil
	})
}

// IsRetryable reports whether every failure, if any, is retryable.
func (o GroupOutput[O]) IsRetryable() bool {
	for _, r := range o.Results {
		if r.Err != nil && !IsRetryable(r.Err) {
			return false
		}
	}
	return true
}

// Err joins the errors of all failed members.
func (o GroupOutput[O]) Err() error {
	var errs []error
	for _, r := range o.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// Outputs returns every member output, or false if any member failed.
func (o GroupOutput[O]) Outputs() ([]O, bool) {
	outputs := make([]O, len(o.Results))
	for i, r := range o.Results {
		if r.Err != nil {
			return nil, false
		}
		outputs[i] = r.Output
	}
	return outputs, true
}

func (o GroupOutput[O]) String() string {
	failed := 0
	for _, r := range o.Results {
		if r.Err != nil {
			failed++
		}
	}
	return fmt.Sprintf("%d members, %d failed", len(o.Results), failed)
}
