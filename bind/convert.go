package bind

import (
	"math"
	"reflect"

	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
)

// decode converts v to a value of type t without consuming v.
func (b *Binder) decode(t reflect.Type, v host.Value) (reflect.Value, error) {
	if b.isClosed() {
		return reflect.Value{}, errors.Closed(errors.PhaseDecode, "binder")
	}

	if t == hostValueType {
		out := reflect.New(t).Elem()
		if v != nil {
			out.Set(reflect.ValueOf(v))
		}
		return out, nil
	}

	if c, ok := b.Class(t); ok {
		return b.downcast(c, v)
	}

	switch t.Kind() {
	case reflect.Pointer:
		if b.IsAbsent(v) {
			return reflect.Zero(t), nil
		}
		ev, err := b.decode(t.Elem(), v)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(ev)
		return p, nil

	case reflect.Slice:
		return b.decodeSlice(t, v)

	case reflect.Struct:
		return reflect.Value{}, errors.NotExported(errors.PhaseDecode, t.String())

	case reflect.Interface:
		return b.decodeInterface(t, v)
	}

	return b.convertPlain(t, v)
}

func (b *Binder) decodeSlice(t reflect.Type, v host.Value) (reflect.Value, error) {
	rt := b.rt
	if v == nil || !rt.IsArray(v) {
		return reflect.Value{}, errors.NotArray(errors.PhaseDecode, kindName(v))
	}
	n, err := rt.Length(v)
	if err != nil {
		return reflect.Value{}, errors.Rephase(errors.PhaseDecode, err, "read array length")
	}

	out := reflect.MakeSlice(t, n, n)
	for i := 0; i < n; i++ {
		item, err := rt.Index(v, i)
		if err != nil {
			return reflect.Value{}, errors.Element(errors.PhaseDecode, i, err)
		}
		ev, err := b.decode(t.Elem(), item)
		if err != nil {
			return reflect.Value{}, errors.Element(errors.PhaseDecode, i, err)
		}
		out.Index(i).Set(ev)
	}
	return out, nil
}

// decodeInterface fills an interface type. Primitives become their Go
// equivalents; anything else is handed over as the host.Value itself.
func (b *Binder) decodeInterface(t reflect.Type, v host.Value) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	if v == nil {
		return out, nil
	}

	if x := b.rt.Export(v); x != nil && reflect.TypeOf(x).Implements(t) {
		out.Set(reflect.ValueOf(x))
		return out, nil
	}
	if host.IsAbsent(v) && t.NumMethod() == 0 {
		return out, nil
	}
	if reflect.TypeOf(v).Implements(t) {
		out.Set(reflect.ValueOf(v))
		return out, nil
	}
	return reflect.Value{}, errors.TypeMismatch(errors.PhaseDecode, nil, t.String(), kindName(v))
}

// Bounds of the float64 values that convert to 64-bit integers exactly.
const (
	minInt64Float  = -(1 << 63)
	maxInt64Float  = 1 << 63
	maxUint64Float = 1 << 64
)

func (b *Binder) convertPlain(t reflect.Type, v host.Value) (reflect.Value, error) {
	kind := host.KindUndefined
	if v != nil {
		kind = v.Kind()
	}
	mismatch := func(want host.Kind) error {
		return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			GoType(t.String()).
			HostType(kind.String()).
			Detail("expected a %s", want).
			Build()
	}
	out := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.Bool:
		if kind != host.KindBoolean {
			return reflect.Value{}, mismatch(host.KindBoolean)
		}
		out.SetBool(b.rt.Export(v).(bool))
		return out, nil

	case reflect.String:
		if kind != host.KindString {
			return reflect.Value{}, mismatch(host.KindString)
		}
		out.SetString(b.rt.Export(v).(string))
		return out, nil

	case reflect.Float32, reflect.Float64:
		if kind != host.KindNumber {
			return reflect.Value{}, mismatch(host.KindNumber)
		}
		f := b.rt.Export(v).(float64)
		if out.OverflowFloat(f) {
			return reflect.Value{}, errors.Overflow(errors.PhaseDecode, nil, f, t.String())
		}
		out.SetFloat(f)
		return out, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, err := b.integral(t, v, kind)
		if err != nil {
			return reflect.Value{}, err
		}
		if f < minInt64Float || f >= maxInt64Float || out.OverflowInt(int64(f)) {
			return reflect.Value{}, errors.Overflow(errors.PhaseDecode, nil, f, t.String())
		}
		out.SetInt(int64(f))
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f, err := b.integral(t, v, kind)
		if err != nil {
			return reflect.Value{}, err
		}
		if f < 0 || f >= maxUint64Float || out.OverflowUint(uint64(f)) {
			return reflect.Value{}, errors.Overflow(errors.PhaseDecode, nil, f, t.String())
		}
		out.SetUint(uint64(f))
		return out, nil
	}

	return reflect.Value{}, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		GoType(t.String()).
		HostType(kind.String()).
		Detail("host values do not convert to %s", t.Kind()).
		Build()
}

func (b *Binder) integral(t reflect.Type, v host.Value, kind host.Kind) (float64, error) {
	if kind != host.KindNumber {
		return 0, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			GoType(t.String()).
			HostType(kind.String()).
			Detail("expected a number").
			Build()
	}
	f := b.rt.Export(v).(float64)
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			GoType(t.String()).
			HostType(kind.String()).
			Value(f).
			Detail("%v is not an integer", f).
			Build()
	}
	return f, nil
}
