package codec

import (
	"iter"
	"slices"

	"github.com/wippyai/hostbind/bind"
	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
)

// EncodeArray converts items to a host array, wrapping each element into an
// independent handle in order. An empty or nil slice becomes an empty array.
// If an element fails, the instances created for earlier elements are freed;
// host values passed in as elements are left alone.
func EncodeArray[T any](b *bind.Binder, items []T) (host.Value, error) {
	if items == nil {
		items = []T{}
	}
	return b.Wrap(items)
}

// EncodeSeq is EncodeArray for an iterator.
func EncodeSeq[T any](b *bind.Binder, seq iter.Seq[T]) (host.Value, error) {
	return EncodeArray(b, slices.Collect(seq))
}

// DecodeArray converts a host array to a slice without consuming any
// element. The result has one entry per array index, in order; an empty
// array gives an empty non-nil slice. The first element that does not
// convert fails the whole decode with its index.
func DecodeArray[T any](b *bind.Binder, v host.Value) ([]T, error) {
	rt := b.Runtime()
	if v == nil || !rt.IsArray(v) {
		kind := host.KindUndefined
		if v != nil {
			kind = v.Kind()
		}
		return nil, errors.NotArray(errors.PhaseDecode, kind.String())
	}

	n, err := rt.Length(v)
	if err != nil {
		return nil, errors.Rephase(errors.PhaseDecode, err, "read array length")
	}

	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		item, err := rt.Index(v, i)
		if err != nil {
			return nil, errors.Element(errors.PhaseDecode, i, err)
		}
		typed, err := bind.Recover[T](b, item)
		if err != nil {
			return nil, errors.Element(errors.PhaseDecode, i, err)
		}
		out = append(out, typed)
	}
	return out, nil
}
