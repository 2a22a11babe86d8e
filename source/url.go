package source

import (
	"context"
	"io"
	"net/http"

	"github.com/NethermindEth/fanout/broadcast"
	"github.com/NethermindEth/fanout/fanout"
	"github.com/pkg/errors"
)

// URL streams the body of an HTTP GET response. The request is issued by whichever of
// SizeHint and PushAll runs first. Reset prepares a fresh request.
type URL struct {
	client    *http.Client
	url       string
	chunkSize int
	response  *http.Response
}

var _ fanout.Source[[]byte] = (*URL)(nil)

func NewURL(url string) *URL {
	return &URL{
		client:    http.DefaultClient,
		url:       url,
		chunkSize: DefaultChunkSize,
	}
}

func (s *URL) WithClient(client *http.Client) *URL {
	s.client = client
	return s
}

func (s *URL) WithChunkSize(chunkSize int) *URL {
	if chunkSize > 0 {
		s.chunkSize = chunkSize
	}
	return s
}

func (s *URL) String() string {
	return s.url
}

// SizeHint returns the Content-Length of the response, nil when unknown.
func (s *URL) SizeHint(ctx context.Context) (*uint64, error) {
	if s.response == nil {
		response, err := s.get(ctx)
		if err != nil {
			return nil, err
		}
		s.response = response
	}
	if s.response.ContentLength < 0 {
		return nil, nil
	}
	length := uint64(s.response.ContentLength)
	return &length, nil
}

func (s *URL) PushAll(ctx context.Context, b *broadcast.Broadcaster[[]byte]) error {
	response := s.response
	s.response = nil
	if response == nil {
		var err error
		if response, err = s.get(ctx); err != nil {
			return err
		}
	}
	defer response.Body.Close()

	return b.BroadcastFrom(ctx, func(yield func([]byte, error) bool) {
		var read int64
		for {
			chunk := make([]byte, s.chunkSize)
			n, err := readChunk(response.Body, chunk)
			read += int64(n)
			if n > 0 && !yield(chunk[:n:n], nil) {
				return
			}
			switch {
			case err == nil:
			case errors.Is(err, io.EOF):
				if response.ContentLength >= 0 && read < response.ContentLength {
					yield(nil, fanout.Retryable(errors.Errorf("short body of %s: read %d of %d bytes",
						s.url, read, response.ContentLength)))
				}
				return
			case ctx.Err() != nil:
				yield(nil, errors.Wrapf(err, "read body of %s", s.url))
				return
			default:
				// io.ErrUnexpectedEOF lands here: the connection closed before Content-Length
				yield(nil, fanout.Retryable(errors.Wrapf(err, "read body of %s", s.url)))
				return
			}
		}
	})
}

// readChunk fills chunk from r and returns the error of the underlying reader as is.
func readChunk(r io.Reader, chunk []byte) (int, error) {
	n := 0
	for n < len(chunk) {
		m, err := r.Read(chunk[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (s *URL) Reset() (fanout.Source[[]byte], bool) {
	if s.response != nil {
		s.response.Body.Close()
		s.response = nil
	}
	return &URL{client: s.client, url: s.url, chunkSize: s.chunkSize}, true
}

func (s *URL) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fanout.NonRetryable(errors.Wrapf(err, "build request for %s", s.url))
	}

	response, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(err, "get %s", s.url)
		}
		return nil, fanout.Retryable(errors.Wrapf(err, "get %s", s.url))
	}

	if response.StatusCode >= http.StatusOK && response.StatusCode < http.StatusMultipleChoices {
		return response, nil
	}
	response.Body.Close()

	err = errors.Errorf("get %s: unexpected status %s", s.url, response.Status)
	if response.StatusCode >= http.StatusInternalServerError || response.StatusCode == http.StatusTooManyRequests {
		return nil, fanout.Retryable(err)
	}
	return nil, fanout.NonRetryable(err)
}
