package codec

import (
	"github.com/wippyai/hostbind/bind"
	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
)

// EncodeOption converts an optional Go value to a host value. nil becomes
// the Binder's absence marker; otherwise *v is wrapped into a fresh handle
// whose ownership passes to the host.
func EncodeOption[T any](b *bind.Binder, v *T) (host.Value, error) {
	if v == nil {
		return b.Absent(), nil
	}
	out, err := b.Wrap(*v)
	if err != nil {
		return nil, errors.Rephase(errors.PhaseEncode, err, "encode optional value")
	}
	return out, nil
}

// DecodeOption converts a host value to an optional Go value without
// consuming it. The absence marker decodes to nil; anything else must
// convert to T.
func DecodeOption[T any](b *bind.Binder, v host.Value) (*T, error) {
	if b.IsAbsent(v) {
		return nil, nil
	}
	out, err := bind.Recover[T](b, v)
	if err != nil {
		return nil, errors.Rephase(errors.PhaseDecode, err, "decode optional value")
	}
	return &out, nil
}
