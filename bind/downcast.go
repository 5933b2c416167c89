package bind

import (
	"math"
	"reflect"

	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
	"github.com/wippyai/hostbind/resource"
)

// Cloner is implemented by exported types that need more than a value copy
// when they are recovered from a handle, typically to detach slices or maps
// from the original.
//
// Cloner only describes the method: recovery looks up Clone by name on the
// slot's *T and calls it when its signature is func() T, with either
// receiver kind.
type Cloner[T any] interface {
	Clone() T
}

// Downcast recovers a copy of the T behind v without consuming v.
//
// v must be an object whose identity method reports T's tag and whose
// pointer property refers to a live slot of T. The host object is only
// read; repeated downcasts of the same handle return equal copies.
func Downcast[T any](b *Binder, v host.Value) (T, error) {
	var zero T
	c, err := b.classOf(reflect.TypeFor[T](), errors.PhaseDowncast)
	if err != nil {
		return zero, err
	}
	rv, err := b.downcast(c, v)
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}

// Recover converts v to T without consuming it. Exported struct types are
// downcast, host.Value passes through, pointers decode the absence marker
// to nil, slices decode host arrays and plain Go types are converted.
func Recover[T any](b *Binder, v host.Value) (T, error) {
	var zero T
	rv, err := b.decode(reflect.TypeFor[T](), v)
	if err != nil {
		return zero, err
	}
	out, _ := rv.Interface().(T)
	return out, nil
}

func (b *Binder) classOf(t reflect.Type, phase errors.Phase) (*Class, error) {
	if b.isClosed() {
		return nil, errors.Closed(phase, "binder")
	}
	c, ok := b.Class(t)
	if !ok {
		return nil, errors.NotExported(phase, t.String())
	}
	return c, nil
}

func (b *Binder) downcast(c *Class, v host.Value) (reflect.Value, error) {
	if v == nil || !v.Kind().IsObject() {
		return reflect.Value{}, errors.NotObject(errors.PhaseDowncast, c.Name, kindName(v))
	}
	if !c.HasIdentity() {
		return reflect.Value{}, errors.New(errors.PhaseDowncast, errors.KindIdentityMissing).
			GoType(c.Type.String()).
			Detail("%s was exported without an identity tag", c.Name).
			Build()
	}
	if err := b.checkIdentity(c, v); err != nil {
		return reflect.Value{}, err
	}

	h, err := b.pointerOf(c, v, errors.PhaseDowncast)
	if err != nil {
		return reflect.Value{}, err
	}
	return b.recoverClone(c, h)
}

// checkIdentity asks v for its identity tag and compares it with c's.
func (b *Binder) checkIdentity(c *Class, v host.Value) error {
	rt := b.rt
	method := b.cfg.IdentityMethod

	missing := func(cause error) error {
		return errors.New(errors.PhaseDowncast, errors.KindIdentityMissing).
			GoType(c.Type.String()).
			Cause(cause).
			Detail("no %s method specified for object; did you forget //hostbind:identity on this type?", method).
			Build()
	}

	fn, err := rt.Get(v, method)
	if err != nil {
		return missing(err)
	}
	switch fn.Kind() {
	case host.KindUndefined:
		return missing(nil)
	case host.KindFunction:
	default:
		return errors.New(errors.PhaseDowncast, errors.KindIdentityInvalid).
			GoType(c.Type.String()).
			HostType(fn.Kind().String()).
			Detail("%s is not a function", method).
			Build()
	}

	res, err := rt.Apply(fn, v)
	if err != nil {
		return errors.New(errors.PhaseDowncast, errors.KindIdentityInvalid).
			GoType(c.Type.String()).
			Cause(err).
			Detail("failed to get classname").
			Build()
	}
	got, ok := rt.Export(res).(string)
	if !ok || res.Kind() != host.KindString {
		return errors.New(errors.PhaseDowncast, errors.KindIdentityInvalid).
			GoType(c.Type.String()).
			HostType(res.Kind().String()).
			Detail("failed to get classname").
			Build()
	}

	if got != c.Tag {
		return errors.IdentityMismatch(errors.PhaseDowncast, c.Type.String(), got, c.Tag)
	}
	return nil
}

// pointerOf reads the slot handle stored on v. c may be nil when the class
// is not known yet.
func (b *Binder) pointerOf(c *Class, v host.Value, phase errors.Phase) (resource.Handle, error) {
	goType := ""
	if c != nil {
		goType = c.Type.String()
	}
	prop := b.cfg.PointerProperty

	if v == nil || !v.Kind().IsObject() {
		return 0, errors.NotObject(phase, goType, kindName(v))
	}

	pv, err := b.rt.Get(v, prop)
	if err != nil {
		return 0, errors.New(phase, errors.KindPointer).
			GoType(goType).
			Cause(err).
			Detail("read %s", prop).
			Build()
	}
	if pv.Kind() != host.KindNumber {
		return 0, errors.New(phase, errors.KindPointer).
			GoType(goType).
			HostType(pv.Kind().String()).
			Detail("%s is missing or not a number", prop).
			Build()
	}

	f, _ := b.rt.Export(pv).(float64)
	if f != math.Trunc(f) || f < 0 || f > math.MaxUint32 {
		return 0, errors.New(phase, errors.KindPointer).
			GoType(goType).
			Value(f).
			Detail("%s holds %v, which is not a slot handle", prop, f).
			Build()
	}
	if f == 0 {
		return 0, errors.NilPointer(phase, goType)
	}
	return resource.Handle(f), nil
}

// borrow resolves v to its live *T and pins the slot. The caller must
// return the borrow with b.slots.Return.
func (b *Binder) borrow(c *Class, v host.Value, phase errors.Phase) (reflect.Value, resource.Handle, error) {
	h, err := b.pointerOf(c, v, phase)
	if err != nil {
		return reflect.Value{}, 0, err
	}
	ptr, err := b.borrowSlot(c, h, phase)
	if err != nil {
		return reflect.Value{}, 0, err
	}
	return ptr, h, nil
}

func (b *Binder) borrowSlot(c *Class, h resource.Handle, phase errors.Phase) (reflect.Value, error) {
	val, err := b.slots.Borrow(h, c.typeID)
	if err != nil {
		if errors.Is(err, resource.ErrClosed) {
			return reflect.Value{}, errors.Closed(phase, "binder")
		}
		return reflect.Value{}, errors.New(phase, errors.KindPointer).
			GoType(c.Type.String()).
			Value(uint32(h)).
			Cause(err).
			Detail("slot %d does not hold a live %s", h, c.Name).
			Build()
	}

	ptr := reflect.ValueOf(val)
	if !ptr.IsValid() || ptr.Type() != reflect.PointerTo(c.Type) || ptr.IsNil() {
		b.slots.Return(h)
		return reflect.Value{}, errors.New(phase, errors.KindPointer).
			GoType(c.Type.String()).
			Value(uint32(h)).
			Detail("slot %d holds %T", h, val).
			Build()
	}
	return ptr, nil
}

// recoverClone is the only place a slot's *T is read on behalf of a
// non-consuming conversion. It pins the slot, copies the value out and
// unpins it. The *T never escapes.
func (b *Binder) recoverClone(c *Class, h resource.Handle) (reflect.Value, error) {
	ptr, err := b.borrowSlot(c, h, errors.PhaseDowncast)
	if err != nil {
		return reflect.Value{}, err
	}
	defer b.slots.Return(h)

	return cloneValue(c.Type, ptr), nil
}

// cloneValue copies *ptr, using a Clone() T method when the type has one.
func cloneValue(t reflect.Type, ptr reflect.Value) reflect.Value {
	if m := ptr.MethodByName("Clone"); m.IsValid() {
		mt := m.Type()
		if mt.NumIn() == 0 && mt.NumOut() == 1 && mt.Out(0) == t {
			return m.Call(nil)[0]
		}
	}
	out := reflect.New(t).Elem()
	out.Set(ptr.Elem())
	return out
}

func kindName(v host.Value) string {
	if v == nil {
		return host.KindUndefined.String()
	}
	return v.Kind().String()
}
