package broadcast_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var factories = map[string]channel.Factory[int]{
	"go":   channel.Go[int](),
	"ring": channel.Ring[int](),
}

// helper: receive with timeout to avoid hanging tests
func recvWithTimeout[T any](t *testing.T, rx channel.Receiver[T], d time.Duration) (T, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), d)
	defer cancel()
	return rx.Recv(ctx)
}

func collect(t *testing.T, rxs []channel.Receiver[int]) ([][]int, func()) {
	t.Helper()
	results := make([][]int, len(rxs))
	var wg sync.WaitGroup
	for i, rx := range rxs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer rx.Close()
			results[i] = slices.Collect(channel.All(t.Context(), rx))
		}()
	}
	return results, wg.Wait
}

func TestEverySubscriberReceivesEveryItemInOrder(t *testing.T) {
	numEvents := 100
	for name, factory := range factories {
		for _, numSubscribers := range []int{0, 1, 2, 13} {
			t.Run(fmt.Sprintf("%s subscribers=%d", name, numSubscribers), func(t *testing.T) {
				bcast := broadcast.New(broadcast.WithChannel(factory))

				rxs := make([]channel.Receiver[int], numSubscribers)
				for i := range rxs {
					rxs[i] = bcast.Subscribe()
				}
				require.Equal(t, numSubscribers, bcast.Len())
				results, wait := collect(t, rxs)

				for i := range numEvents {
					require.NoError(t, bcast.Broadcast(t.Context(), i))
				}
				bcast.Close()
				wait()

				for _, got := range results {
					require.Len(t, got, numEvents)
					for i, v := range got {
						require.Equal(t, i, v)
					}
				}
				assert.Equal(t, uint64(numEvents), bcast.Sent())
			})
		}
	}
}

func TestDroppedSubscriberDoesNotBlockOthers(t *testing.T) {
	bcast := broadcast.New[int]()
	dropped := bcast.Subscribe()
	kept := bcast.Subscribe()

	results, wait := collect(t, []channel.Receiver[int]{kept})
	dropped.Close()

	for i := range 10 {
		require.NoError(t, bcast.Broadcast(t.Context(), i))
	}
	bcast.Close()
	wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, results[0])
}

func TestBroadcastAndPrune(t *testing.T) {
	bcast := broadcast.New[int]()
	dropped := bcast.Subscribe()
	kept := bcast.Subscribe()
	results, wait := collect(t, []channel.Receiver[int]{kept})
	dropped.Close()

	require.NoError(t, bcast.BroadcastAndPrune(t.Context(), 1))
	assert.Equal(t, 1, bcast.Len())
	require.NoError(t, bcast.BroadcastAndPrune(t.Context(), 2))
	assert.Equal(t, 1, bcast.Len())

	bcast.Close()
	wait()
	assert.Equal(t, []int{1, 2}, results[0])
}

func TestLateSubscriberOnlySeesLaterItems(t *testing.T) {
	bcast := broadcast.New(broadcast.WithBufferSize[int](4))
	early := bcast.Subscribe()
	require.NoError(t, bcast.Broadcast(t.Context(), 1))

	late := bcast.Subscribe()
	require.NoError(t, bcast.Broadcast(t.Context(), 2))
	bcast.Close()

	assert.Equal(t, []int{1, 2}, slices.Collect(channel.All(t.Context(), early)))
	assert.Equal(t, []int{2}, slices.Collect(channel.All(t.Context(), late)))
}

func TestSubscribeAfterClose(t *testing.T) {
	bcast := broadcast.New[int]()
	bcast.Close()
	bcast.Close()

	_, ok := recvWithTimeout(t, bcast.Subscribe(), time.Second)
	assert.False(t, ok)
	assert.Zero(t, bcast.Len())
	assert.ErrorIs(t, bcast.Broadcast(t.Context(), 1), broadcast.ErrClosed)
}

func TestCancelledTokenFailsImmediately(t *testing.T) {
	bcast := broadcast.New[int]()
	rx := bcast.Subscribe()
	defer rx.Close()

	bcast.CancellationToken().Cancel()
	require.ErrorIs(t, bcast.Broadcast(t.Context(), 1), broadcast.ErrCancelled)
	require.ErrorIs(t, bcast.BroadcastAndPrune(t.Context(), 1), broadcast.ErrCancelled)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, ok := rx.Recv(ctx)
	assert.False(t, ok, "nothing is delivered after cancellation")
}

func TestCancellationUnblocksFullQueue(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			bcast := broadcast.New(broadcast.WithChannel(factory))
			rx := bcast.Subscribe()
			defer rx.Close()

			require.NoError(t, bcast.Broadcast(t.Context(), 1))
			go func() {
				time.Sleep(20 * time.Millisecond)
				bcast.CancellationToken().Cancel()
			}()
			// the queue is full and nobody reads it
			require.ErrorIs(t, bcast.Broadcast(t.Context(), 2), broadcast.ErrCancelled)
		})
	}
}

func TestContextCancellation(t *testing.T) {
	bcast := broadcast.New[int]()
	rx := bcast.Subscribe()
	defer rx.Close()
	require.NoError(t, bcast.Broadcast(t.Context(), 1))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, bcast.Broadcast(ctx, 2), context.DeadlineExceeded)
}

func TestAbortOnCancel(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			bcast := broadcast.New(broadcast.WithChannel(factory), broadcast.WithBufferSize[int](1))
			canceller := bcast.Subscribe()
			observer := bcast.Subscribe()
			token := bcast.CancellationToken()

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				defer canceller.Close()
				for {
					v, ok := canceller.Recv(t.Context())
					if !ok {
						return
					}
					if v == 1 {
						token.Cancel()
						return
					}
				}
			}()

			var observed []int
			go func() {
				defer wg.Done()
				defer observer.Close()
				observed = slices.Collect(channel.All(t.Context(), observer))
			}()

			failedAt := -1
			for i := range 5 {
				if err := bcast.Broadcast(t.Context(), i); err != nil {
					require.ErrorIs(t, err, broadcast.ErrCancelled)
					failedAt = i
					break
				}
			}
			bcast.Close()
			wg.Wait()

			// a slow observer may still be holding item 0 when the token fires
			assert.Contains(t, []int{1, 2, 3}, failedAt)
			for _, v := range observed {
				assert.LessOrEqual(t, v, failedAt)
			}
		})
	}
}

func TestCancelDoesNotRecallQueuedItems(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			bcast := broadcast.New(broadcast.WithChannel(factory), broadcast.WithBufferSize[int](1))
			canceller := bcast.Subscribe()
			observer := bcast.Subscribe()
			token := bcast.CancellationToken()

			require.NoError(t, bcast.Broadcast(t.Context(), 0))
			v, ok := recvWithTimeout(t, canceller, time.Second)
			require.True(t, ok)
			require.Equal(t, 0, v)

			require.NoError(t, bcast.Broadcast(t.Context(), 1))

			// the canceller queue holds 1, so 2 only reaches the observer
			done := make(chan error, 1)
			go func() {
				done <- bcast.Broadcast(t.Context(), 2)
			}()
			for want := range 3 {
				v, ok = recvWithTimeout(t, observer, time.Second)
				require.True(t, ok)
				require.Equal(t, want, v)
			}

			token.Cancel()
			require.ErrorIs(t, <-done, broadcast.ErrCancelled)
			bcast.Close()
		})
	}
}

func TestBroadcastFrom(t *testing.T) {
	seqOf := func(items []int, failAt int) iter.Seq2[int, error] {
		return func(yield func(int, error) bool) {
			for i, item := range items {
				if i == failAt {
					yield(0, errors.New("source failed"))
					return
				}
				if !yield(item, nil) {
					return
				}
			}
		}
	}

	t.Run("all items", func(t *testing.T) {
		bcast := broadcast.New[int]()
		results, wait := collect(t, []channel.Receiver[int]{bcast.Subscribe(), bcast.Subscribe()})
		require.NoError(t, bcast.BroadcastFrom(t.Context(), seqOf([]int{10, 20, 20}, -1)))
		bcast.Close()
		wait()
		for _, got := range results {
			assert.Equal(t, []int{10, 20, 20}, got)
		}
	})

	t.Run("source error", func(t *testing.T) {
		bcast := broadcast.New[int]()
		results, wait := collect(t, []channel.Receiver[int]{bcast.Subscribe()})
		require.EqualError(t, bcast.BroadcastFrom(t.Context(), seqOf([]int{1, 2, 3}, 2)), "source failed")
		bcast.Close()
		wait()
		assert.Equal(t, []int{1, 2}, results[0])
	})

	t.Run("cancelled is not an error", func(t *testing.T) {
		bcast := broadcast.New[int]()
		rx := bcast.Subscribe()
		defer rx.Close()
		bcast.CancellationToken().Cancel()
		require.NoError(t, bcast.BroadcastFrom(t.Context(), seqOf([]int{1, 2, 3}, -1)))
	})
}

func TestCloner(t *testing.T) {
	var mu sync.Mutex
	clones := 0
	bcast := broadcast.New(broadcast.WithCloner(func(v []byte) []byte {
		mu.Lock()
		clones++
		mu.Unlock()
		return slices.Clone(v)
	}), broadcast.WithBufferSize[[]byte](2))

	a, b := bcast.Subscribe(), bcast.Subscribe()
	require.NoError(t, bcast.Broadcast(t.Context(), []byte("abc")))
	bcast.Close()

	va, ok := recvWithTimeout(t, a, time.Second)
	require.True(t, ok)
	vb, ok := recvWithTimeout(t, b, time.Second)
	require.True(t, ok)

	va[0] = 'x'
	assert.Equal(t, "abc", string(vb))
	assert.Equal(t, 2, clones)
}

func TestSharedToken(t *testing.T) {
	token := broadcast.NewCancellationToken()
	first := broadcast.New(broadcast.WithToken[int](token))
	second := broadcast.New(broadcast.WithToken[string](token))
	assert.Same(t, token, first.CancellationToken())

	token.Cancel()
	token.Cancel()
	assert.True(t, token.IsCancelled())
	assert.ErrorIs(t, second.Broadcast(t.Context(), "x"), broadcast.ErrCancelled)

	select {
	case <-token.Done():
	default:
		t.Fatal("token done channel not closed")
	}
}
