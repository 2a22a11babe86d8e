package fanout

import (
	"errors"
	"fmt"
)

var (
	// ErrEgressAborted is the marker sent to the egress side-channel when an attempt did not
	// produce a complete, successful stream.
	ErrEgressAborted = errors.New("egress aborted")
	ErrNoSource      = errors.New("fanout has no source")
)

type classifiedError struct {
	err       error
	retryable bool
}

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

// Retryable tags err as worth retrying. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, retryable: true}
}

// NonRetryable tags err as final. A nil err stays nil.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, retryable: false}
}

// IsRetryable reports the outermost tag found in err's chain. Untagged errors are not
// retryable.
func IsRetryable(err error) bool {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.retryable
	}
	return false
}

// SourceError is a failure to size or push the source stream.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return "source: " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// ConsumerError is the local failure of one group member.
type ConsumerError struct {
	Member int
	Err    error
}

func (e *ConsumerError) Error() string {
	return fmt.Sprintf("consumer %d: %v", e.Member, e.Err)
}

func (e *ConsumerError) Unwrap() error {
	return e.Err
}
