// Package serialize writes a sequence as an array nested under a single named key,
// encoding element by element so the whole sequence is never held in memory.
package serialize

import "iter"

type options struct {
	length int
}

type Option func(*options)

// WithLength stops the encoding after n elements.
func WithLength(n int) Option {
	return func(o *options) {
		o.length = n
	}
}

func newOptions(opts []Option) options {
	o := options{length: -1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// limited yields at most n elements of seq, all of them when n is negative.
func limited[T any](seq iter.Seq[T], n int) iter.Seq[T] {
	if n < 0 {
		return seq
	}
	return func(yield func(T) bool) {
		if n == 0 {
			return
		}
		count := 0
		for item := range seq {
			if !yield(item) {
				return
			}
			count++
			if count >= n {
				return
			}
		}
	}
}
