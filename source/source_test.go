package source_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/channel"
	"github.com/NethermindEth/fanout/consumer"
	"github.com/NethermindEth/fanout/fanout"
	"github.com/NethermindEth/fanout/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// push runs s against a single subscriber and returns what it received.
func push[T any](t *testing.T, s fanout.Source[T]) ([]T, error) {
	t.Helper()
	b := broadcast.New[T]()
	rx := b.Subscribe()

	done := make(chan []T, 1)
	go func() {
		defer rx.Close()
		done <- slices.Collect(channel.All(t.Context(), rx))
	}()

	err := s.PushAll(t.Context(), b)
	b.Close()
	return <-done, err
}

func TestBytes(t *testing.T) {
	s := source.NewBytes([]byte("ab"), []byte("cde"))

	hint, err := s.SizeHint(t.Context())
	require.NoError(t, err)
	require.NotNil(t, hint)
	assert.Equal(t, uint64(5), *hint)

	got, err := push[[]byte](t, s)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("ab"), []byte("cde")}, got)

	reset, ok := s.Reset()
	require.True(t, ok)
	got, err = push(t, reset)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcde"), bytes.Join(got, nil))
}

func TestChunked(t *testing.T) {
	tests := map[string]struct {
		data      string
		chunkSize int
		want      []string
	}{
		"empty":          {data: "", chunkSize: 2, want: nil},
		"exact multiple": {data: "abcd", chunkSize: 2, want: []string{"ab", "cd"}},
		"remainder":      {data: "abcde", chunkSize: 2, want: []string{"ab", "cd", "e"}},
		"default size":   {data: "abc", chunkSize: 0, want: []string{"abc"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var got []string
			for _, chunk := range source.Chunked([]byte(tc.data), tc.chunkSize).Chunks() {
				got = append(got, string(chunk))
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBytesStopsOnCancel(t *testing.T) {
	s := source.NewBytes([]byte("a"), []byte("b"))
	b := broadcast.New[[]byte]()
	rx := b.Subscribe()
	defer rx.Close()
	b.CancellationToken().Cancel()

	require.NoError(t, s.PushAll(t.Context(), b))
}

func TestSeq(t *testing.T) {
	failure := fanout.Retryable(errors.New("boom"))
	seq := func(yield func(int, error) bool) {
		for i := range 3 {
			if !yield(i, nil) {
				return
			}
		}
		yield(0, failure)
	}

	s := source.NewSeq(seq, nil)
	hint, err := s.SizeHint(t.Context())
	require.NoError(t, err)
	assert.Nil(t, hint)

	got, err := push[int](t, s)
	require.ErrorIs(t, err, failure)
	assert.True(t, fanout.IsRetryable(err))
	assert.Equal(t, []int{0, 1, 2}, got)

	_, ok := s.Reset()
	assert.False(t, ok)
}

func TestURL(t *testing.T) {
	body := bytes.Repeat([]byte("0123456789"), 100)
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/file":
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.Write(body)
		case "/short":
			w.Header().Set("Content-Length", "100")
			w.Write(body[:10])
		case "/chunked":
			w.(http.Flusher).Flush()
			w.Write(body)
		default:
			code, err := strconv.Atoi(r.URL.Path[1:])
			if err != nil {
				code = http.StatusNotFound
			}
			w.WriteHeader(code)
		}
	}))
	defer srv.Close()

	t.Run("streams body", func(t *testing.T) {
		hits.Store(0)
		s := source.NewURL(srv.URL + "/file").WithClient(srv.Client()).WithChunkSize(64)

		hint, err := s.SizeHint(t.Context())
		require.NoError(t, err)
		require.NotNil(t, hint)
		assert.Equal(t, uint64(len(body)), *hint)

		got, err := push[[]byte](t, s)
		require.NoError(t, err)
		assert.Equal(t, body, bytes.Join(got, nil))
		assert.Len(t, got, (len(body)+63)/64)
		assert.Equal(t, int32(1), hits.Load(), "size hint and push share one request")
	})

	t.Run("unknown length", func(t *testing.T) {
		s := source.NewURL(srv.URL + "/chunked").WithClient(srv.Client())
		hint, err := s.SizeHint(t.Context())
		require.NoError(t, err)
		assert.Nil(t, hint)

		got, err := push[[]byte](t, s)
		require.NoError(t, err)
		assert.Equal(t, body, bytes.Join(got, nil))
	})

	t.Run("push without size hint", func(t *testing.T) {
		got, err := push[[]byte](t, source.NewURL(srv.URL+"/file").WithClient(srv.Client()))
		require.NoError(t, err)
		assert.Equal(t, body, bytes.Join(got, nil))
	})

	t.Run("reset issues a new request", func(t *testing.T) {
		hits.Store(0)
		s := source.NewURL(srv.URL + "/file").WithClient(srv.Client())
		_, err := s.SizeHint(t.Context())
		require.NoError(t, err)

		reset, ok := s.Reset()
		require.True(t, ok)
		got, err := push(t, reset)
		require.NoError(t, err)
		assert.Equal(t, body, bytes.Join(got, nil))
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("short body is a retryable failure", func(t *testing.T) {
		s := source.NewURL(srv.URL + "/short").WithClient(srv.Client())
		got, err := push[[]byte](t, s)
		require.Error(t, err)
		assert.True(t, fanout.IsRetryable(err))
		assert.Equal(t, body[:10], bytes.Join(got, nil))
	})

	t.Run("short body fails the attempt", func(t *testing.T) {
		s := source.NewURL(srv.URL + "/short").WithClient(srv.Client())
		group := fanout.NewGroup[[]byte, uint64](consumer.BytesCounter{})
		outcome := fanout.New[[]byte, uint64](s, group).Driver().Drive(t.Context())

		assert.False(t, outcome.Done())
		var sourceErr *fanout.SourceError
		require.ErrorAs(t, outcome.Err, &sourceErr)
		assert.True(t, outcome.Retryable())
		require.NotNil(t, outcome.Next, "a new request is issued on retry")
	})

	for code, retryable := range map[int]bool{
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusTooManyRequests:     true,
		http.StatusNotFound:            false,
		http.StatusForbidden:           false,
	} {
		t.Run(fmt.Sprintf("status %d", code), func(t *testing.T) {
			s := source.NewURL(fmt.Sprintf("%s/%d", srv.URL, code)).WithClient(srv.Client())
			_, err := s.SizeHint(t.Context())
			require.Error(t, err)
			assert.Equal(t, retryable, fanout.IsRetryable(err))
			assert.Contains(t, err.Error(), strconv.Itoa(code))
		})
	}

	t.Run("transport error is retryable", func(t *testing.T) {
		closed := httptest.NewServer(http.NotFoundHandler())
		closed.Close()
		_, err := source.NewURL(closed.URL).SizeHint(t.Context())
		require.Error(t, err)
		assert.True(t, fanout.IsRetryable(err))
	})

	t.Run("invalid url is final", func(t *testing.T) {
		_, err := source.NewURL("http://a b").SizeHint(t.Context())
		require.Error(t, err)
		assert.False(t, fanout.IsRetryable(err))
	})

	t.Run("cancelled context is final", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := source.NewURL(srv.URL + "/file").WithClient(srv.Client()).SizeHint(ctx)
		require.Error(t, err)
		assert.False(t, fanout.IsRetryable(err))
	})
}
