//go:build js && wasm

package jshost

import (
	"fmt"
	"reflect"
	"syscall/js"

	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
)

// throwShim wraps a Go callback so that an Error instance returned from Go
// is thrown on the JavaScript side. syscall/js callbacks cannot throw.
const throwShim = `return function() {
	var r = fn.apply(this, arguments);
	if (r instanceof Error && r.__hostbindThrow === true) {
		delete r.__hostbindThrow;
		throw r;
	}
	return r;
};`

// Runtime implements host.Runtime with syscall/js.
type Runtime struct {
	global   js.Value
	reflect  js.Value
	array    js.Value
	object   js.Value
	errorCtr js.Value
	shim     js.Value
	funcs    []js.Func
}

// New binds to the JavaScript global object of the running host.
func New() *Runtime {
	g := js.Global()
	return &Runtime{
		global:   g,
		reflect:  g.Get("Reflect"),
		array:    g.Get("Array"),
		object:   g.Get("Object"),
		errorCtr: g.Get("Error"),
		shim:     g.Get("Function").New("fn", throwShim),
	}
}

// Release frees every callback created by NewFunction. Functions handed to
// JavaScript stop working afterwards.
func (r *Runtime) Release() {
	for _, f := range r.funcs {
		f.Release()
	}
	r.funcs = nil
}

// Value is a js.Value seen through host.Value.
type Value struct {
	v js.Value
}

// Wrap exposes a js.Value as a host.Value.
func Wrap(v js.Value) host.Value {
	return Value{v: v}
}

// Unwrap returns the js.Value behind v, or undefined.
func Unwrap(v host.Value) js.Value {
	if jv, ok := v.(Value); ok {
		return jv.v
	}
	return js.Undefined()
}

// Kind implements host.Value.
func (v Value) Kind() host.Kind {
	switch v.v.Type() {
	case js.TypeUndefined:
		return host.KindUndefined
	case js.TypeNull:
		return host.KindNull
	case js.TypeBoolean:
		return host.KindBoolean
	case js.TypeNumber:
		return host.KindNumber
	case js.TypeString:
		return host.KindString
	case js.TypeSymbol:
		return host.KindSymbol
	case js.TypeObject:
		return host.KindObject
	case js.TypeFunction:
		return host.KindFunction
	default:
		return host.KindOther
	}
}

func (r *Runtime) unwrap(v host.Value) (js.Value, error) {
	if v == nil {
		return js.Undefined(), nil
	}
	jv, ok := v.(Value)
	if !ok {
		return js.Undefined(), errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", v)).
			Detail("value does not belong to the JavaScript host").
			Build()
	}
	return jv.v, nil
}

// catch converts a js.Error panic raised by syscall/js into an error.
func catch(err *error) {
	x := recover()
	if x == nil {
		return
	}
	if jsErr, ok := x.(js.Error); ok {
		*err = errors.HostException(errors.PhaseHost, "exception in host runtime", jsErr)
		return
	}
	if e, ok := x.(error); ok {
		*err = errors.HostException(errors.PhaseHost, "panic in host runtime", e)
		return
	}
	*err = errors.HostException(errors.PhaseHost, fmt.Sprintf("panic in host runtime: %v", x), nil)
}

// Global implements host.Runtime.
func (r *Runtime) Global() host.Value { return Value{v: r.global} }

// Undefined implements host.Runtime.
func (r *Runtime) Undefined() host.Value { return Value{v: js.Undefined()} }

// Null implements host.Runtime.
func (r *Runtime) Null() host.Value { return Value{v: js.Null()} }

// NewObject implements host.Runtime.
func (r *Runtime) NewObject(proto host.Value) (res host.Value, err error) {
	p := js.Value(js.Global().Get("Object").Get("prototype"))
	if proto != nil {
		if p, err = r.unwrap(proto); err != nil {
			return nil, err
		}
	}
	defer catch(&err)
	return Value{v: r.object.Call("create", p)}, nil
}

// NewArray implements host.Runtime.
func (r *Runtime) NewArray(items ...host.Value) (res host.Value, err error) {
	vals := make([]any, len(items))
	for i, item := range items {
		jv, err := r.unwrap(item)
		if err != nil {
			return nil, errors.Element(errors.PhaseHost, i, err)
		}
		vals[i] = jv
	}
	defer catch(&err)
	arr := r.array.New()
	if len(vals) > 0 {
		arr.Call("push", vals...)
	}
	return Value{v: arr}, nil
}

// NewFunction implements host.Runtime. A Go error is thrown as a JavaScript
// Error by the shim that wraps the callback.
func (r *Runtime) NewFunction(name string, fn host.Func) (res host.Value, err error) {
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		hargs := make([]host.Value, len(args))
		for i, a := range args {
			hargs[i] = Value{v: a}
		}
		out, err := fn(Value{v: this}, hargs)
		if err == nil {
			var jv js.Value
			if jv, err = r.unwrap(out); err == nil {
				return jv
			}
		}
		e := r.errorCtr.New(err.Error())
		e.Set("__hostbindThrow", true)
		return e
	})
	r.funcs = append(r.funcs, cb)

	defer catch(&err)
	wrapped := r.shim.Invoke(cb.Value)
	if name != "" {
		desc := r.object.New()
		desc.Set("value", name)
		r.object.Call("defineProperty", wrapped, "name", desc)
	}
	return Value{v: wrapped}, nil
}

// ToValue implements host.Runtime.
func (r *Runtime) ToValue(x any) (host.Value, error) {
	switch x := x.(type) {
	case nil:
		return r.Null(), nil
	case host.Value:
		return x, nil
	case js.Value:
		return Value{v: x}, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Bool:
		return Value{v: js.ValueOf(rv.Bool())}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Value{v: js.ValueOf(float64(rv.Int()))}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Value{v: js.ValueOf(float64(rv.Uint()))}, nil
	case reflect.Float32, reflect.Float64:
		return Value{v: js.ValueOf(rv.Float())}, nil
	case reflect.String:
		return Value{v: js.ValueOf(rv.String())}, nil
	default:
		return nil, errors.New(errors.PhaseHost, errors.KindUnsupported).
			GoType(rv.Type().String()).
			Detail("only plain values convert directly").
			Build()
	}
}

// Export implements host.Runtime.
func (r *Runtime) Export(v host.Value) any {
	jv, err := r.unwrap(v)
	if err != nil {
		return nil
	}
	switch jv.Type() {
	case js.TypeBoolean:
		return jv.Bool()
	case js.TypeNumber:
		return jv.Float()
	case js.TypeString:
		return jv.String()
	default:
		return nil
	}
}

// Get implements host.Runtime using Reflect.get.
func (r *Runtime) Get(obj host.Value, name string) (res host.Value, err error) {
	jv, err := r.unwrap(obj)
	if err != nil {
		return nil, err
	}
	if t := jv.Type(); t != js.TypeObject && t != js.TypeFunction {
		return nil, errors.New(errors.PhaseHost, errors.KindNotObject).
			HostType(t.String()).
			Detail("reflection target must be an object").
			Build()
	}
	defer catch(&err)
	return Value{v: r.reflect.Call("get", jv, name)}, nil
}

// Set implements host.Runtime.
func (r *Runtime) Set(obj host.Value, name string, val host.Value) (err error) {
	jo, err := r.unwrap(obj)
	if err != nil {
		return err
	}
	jv, err := r.unwrap(val)
	if err != nil {
		return err
	}
	defer catch(&err)
	if !r.reflect.Call("set", jo, name, jv).Bool() {
		return errors.HostException(errors.PhaseHost, fmt.Sprintf("set %q rejected", name), nil)
	}
	return nil
}

// Apply implements host.Runtime using Reflect.apply.
func (r *Runtime) Apply(fn host.Value, this host.Value, args ...host.Value) (res host.Value, err error) {
	jf, err := r.unwrap(fn)
	if err != nil {
		return nil, err
	}
	if jf.Type() != js.TypeFunction {
		return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			HostType(jf.Type().String()).
			Detail("value is not a function").
			Build()
	}
	jt, err := r.unwrap(this)
	if err != nil {
		return nil, err
	}
	jargs := make([]any, len(args))
	for i, a := range args {
		if jargs[i], err = r.unwrap(a); err != nil {
			return nil, err
		}
	}
	defer catch(&err)
	return Value{v: r.reflect.Call("apply", jf, jt, r.array.New().Call("concat", jargs))}, nil
}

// IsArray implements host.Runtime.
func (r *Runtime) IsArray(v host.Value) bool {
	jv, err := r.unwrap(v)
	if err != nil {
		return false
	}
	return r.array.Call("isArray", jv).Bool()
}

// Length implements host.Runtime.
func (r *Runtime) Length(arr host.Value) (int, error) {
	if !r.IsArray(arr) {
		kind := host.KindUndefined
		if arr != nil {
			kind = arr.Kind()
		}
		return 0, errors.NotArray(errors.PhaseHost, kind.String())
	}
	return Unwrap(arr).Length(), nil
}

// Index implements host.Runtime.
func (r *Runtime) Index(arr host.Value, i int) (host.Value, error) {
	n, err := r.Length(arr)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= n {
		return nil, errors.OutOfBounds(errors.PhaseHost, nil, i, n)
	}
	return Value{v: Unwrap(arr).Index(i)}, nil
}

var _ host.Runtime = (*Runtime)(nil)
