package bind

import (
	"fmt"
	"reflect"

	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
	"github.com/wippyai/hostbind/resource"
)

// Wrap converts a Go value into a new host value.
//
// A value of an exported struct type is copied into a new slot and returned
// as a fresh host instance. A non-nil *T of an exported type moves into the
// slot as is; a nil pointer becomes the absence marker. Slices become host
// arrays, host.Value passes through and plain values are converted. nil
// becomes null.
func (b *Binder) Wrap(v any) (host.Value, error) {
	if b.isClosed() {
		return nil, errors.Closed(errors.PhaseEncode, "binder")
	}
	switch v := v.(type) {
	case nil:
		return b.rt.Null(), nil
	case host.Value:
		return v, nil
	}
	var created []host.Value
	out, err := b.encode(reflect.ValueOf(v), &created)
	if err != nil {
		b.release(created)
		return nil, err
	}
	return out, nil
}

// encode converts rv, appending every instance it allocates to created.
// Values the caller passed in as host.Value are never recorded.
func (b *Binder) encode(rv reflect.Value, created *[]host.Value) (host.Value, error) {
	t := rv.Type()

	if t.Implements(hostValueType) {
		if (t.Kind() == reflect.Interface || t.Kind() == reflect.Pointer) && rv.IsNil() {
			return b.rt.Undefined(), nil
		}
		return rv.Interface().(host.Value), nil
	}

	if c, ok := b.Class(t); ok {
		ptr := reflect.New(t)
		ptr.Elem().Set(rv)
		return b.wrapInstance(c, ptr, created)
	}

	switch t.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return b.Absent(), nil
		}
		if c, ok := b.Class(t.Elem()); ok {
			return b.wrapInstance(c, rv, created)
		}
		return b.encode(rv.Elem(), created)

	case reflect.Slice, reflect.Array:
		items := make([]host.Value, rv.Len())
		for i := range items {
			item, err := b.encode(rv.Index(i), created)
			if err != nil {
				return nil, errors.Element(errors.PhaseEncode, i, err)
			}
			items[i] = item
		}
		arr, err := b.rt.NewArray(items...)
		if err != nil {
			return nil, errors.Rephase(errors.PhaseEncode, err, "create array")
		}
		return arr, nil

	case reflect.Struct:
		return nil, errors.NotExported(errors.PhaseEncode, t.String())

	case reflect.Interface:
		if rv.IsNil() {
			return b.rt.Null(), nil
		}
		return b.encode(rv.Elem(), created)
	}

	v, err := b.rt.ToValue(rv.Interface())
	if err != nil {
		return nil, errors.Rephase(errors.PhaseEncode, err, "convert "+t.String())
	}
	return v, nil
}

// wrapInstance stores ptr in a new slot and creates the host object that
// refers to it. The object is appended to created.
func (b *Binder) wrapInstance(c *Class, ptr reflect.Value, created *[]host.Value) (host.Value, error) {
	h, err := b.slots.Insert(c.typeID, ptr.Interface())
	if err != nil {
		if errors.Is(err, resource.ErrClosed) {
			return nil, errors.Closed(errors.PhaseEncode, "binder")
		}
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindHostException, err, "allocate slot for "+c.Name)
	}

	obj, err := b.newInstance(c, h)
	if err != nil {
		_, _ = b.slots.Remove(h)
		return nil, err
	}
	*created = append(*created, obj)
	return obj, nil
}

func (b *Binder) newInstance(c *Class, h resource.Handle) (host.Value, error) {
	obj, err := b.rt.NewObject(c.proto)
	if err != nil {
		return nil, errors.Rephase(errors.PhaseEncode, err, "create instance of "+c.Name)
	}
	if err := b.setPointer(obj, h); err != nil {
		return nil, err
	}
	return obj, nil
}

func (b *Binder) setPointer(obj host.Value, h resource.Handle) error {
	pv, err := b.rt.ToValue(uint32(h))
	if err != nil {
		return errors.Rephase(errors.PhaseEncode, err, "convert slot handle")
	}
	if err := b.rt.Set(obj, b.cfg.PointerProperty, pv); err != nil {
		return errors.Rephase(errors.PhaseEncode, err, "set "+b.cfg.PointerProperty)
	}
	return nil
}

// release frees instances created for a conversion that failed part way.
func (b *Binder) release(created []host.Value) {
	for _, v := range created {
		_ = b.Free(v)
	}
}

// Take is the consuming conversion: it moves the T behind v back to Go,
// frees the slot and zeroes v's pointer property. Any later use of v,
// including Downcast, fails with a nil pointer error.
func Take[T any](b *Binder, v host.Value) (T, error) {
	var zero T
	c, err := b.classOf(reflect.TypeFor[T](), errors.PhaseDecode)
	if err != nil {
		return zero, err
	}
	if v == nil || !v.Kind().IsObject() {
		return zero, errors.NotObject(errors.PhaseDecode, c.Name, kindName(v))
	}

	h, err := b.pointerOf(c, v, errors.PhaseDecode)
	if err != nil {
		return zero, err
	}
	if _, ok := b.slots.GetTyped(h, c.typeID); !ok {
		return zero, errors.New(errors.PhaseDecode, errors.KindPointer).
			GoType(c.Type.String()).
			Value(uint32(h)).
			Detail("slot %d does not hold a live %s", h, c.Name).
			Build()
	}

	val, err := b.slots.Take(h)
	if err != nil {
		return zero, errors.Wrap(errors.PhaseDecode, errors.KindPointer, err, fmt.Sprintf("take slot %d", h))
	}
	if err := b.setPointer(v, 0); err != nil {
		b.log.Warn("could not clear pointer of taken instance")
	}
	return *(val.(*T)), nil
}

// Free releases the Go side of an exported instance and zeroes its pointer
// property. Freeing an instance that was already taken or freed is a no-op.
// Free accepts an instance of any exported class.
func (b *Binder) Free(v host.Value) error {
	return b.free(nil, v)
}

// free is Free restricted to instances of c when c is non-nil. The host
// free() method of each prototype goes through here with its own class.
func (b *Binder) free(c *Class, v host.Value) error {
	if b.isClosed() {
		return nil
	}
	h, err := b.pointerOf(c, v, errors.PhaseDecode)
	if err != nil {
		if k, _ := errors.KindOf(err); k == errors.KindNilPointer {
			return nil
		}
		return err
	}
	if c != nil {
		if _, ok := b.slots.GetTyped(h, c.typeID); !ok {
			return errors.New(errors.PhaseDecode, errors.KindPointer).
				GoType(c.Type.String()).
				Value(uint32(h)).
				Detail("slot %d does not hold a live %s", h, c.Name).
				Build()
		}
	}
	if _, err := b.slots.Remove(h); err != nil {
		return errors.Wrap(errors.PhaseDecode, errors.KindPointer, err, fmt.Sprintf("free slot %d", h))
	}
	return b.setPointer(v, 0)
}
