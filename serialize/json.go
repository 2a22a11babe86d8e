package serialize

import (
	"encoding/json"
	"io"
	"iter"
)

// JSON writes {"name":[item,...]} to w.
func JSON[T any](w io.Writer, name string, seq iter.Seq[T], opts ...Option) error {
	o := newOptions(opts)

	key, err := json.Marshal(name)
	if err != nil {
		return err
	}
	if err = write(w, []byte("{"), key, []byte(":[")); err != nil {
		return err
	}

	first := true
	for item := range limited(seq, o.length) {
		element, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if !first {
			if err = write(w, []byte(",")); err != nil {
				return err
			}
		}
		first = false
		if err = write(w, element); err != nil {
			return err
		}
	}
	return write(w, []byte("]}"))
}

func write(w io.Writer, parts ...[]byte) error {
	for _, part := range parts {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}
	return nil
}
