package serialize

import (
	"io"
	"iter"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode           cbor.EncMode
	initialiseEncoder sync.Once
)

func initEncMode() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthAllowed,
	}.EncMode()
	if err != nil {
		panic(err)
	}
}

// CBOR writes the CBOR twin of JSON: an indefinite-length map holding name and an
// indefinite-length array of items.
func CBOR[T any](w io.Writer, name string, seq iter.Seq[T], opts ...Option) error {
	initialiseEncoder.Do(initEncMode)
	o := newOptions(opts)

	enc := encMode.NewEncoder(w)
	if err := enc.StartIndefiniteMap(); err != nil {
		return err
	}
	if err := enc.Encode(name); err != nil {
		return err
	}
	if err := enc.StartIndefiniteArray(); err != nil {
		return err
	}
	for item := range limited(seq, o.length) {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	if err := enc.EndIndefinite(); err != nil {
		return err
	}
	return enc.EndIndefinite()
}
