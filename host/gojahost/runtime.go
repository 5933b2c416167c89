package gojahost

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/dop251/goja"

	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
)

// Runtime implements host.Runtime on top of a goja VM.
type Runtime struct {
	vm *goja.Runtime
}

// New wraps vm. A nil vm gets a fresh goja runtime.
func New(vm *goja.Runtime) *Runtime {
	if vm == nil {
		vm = goja.New()
	}
	return &Runtime{vm: vm}
}

// VM returns the underlying goja runtime.
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// Value is a goja value seen through host.Value.
type Value struct {
	v goja.Value
}

// Wrap exposes a goja value as a host.Value.
func Wrap(v goja.Value) host.Value {
	return Value{v: v}
}

// Unwrap returns the goja value behind v. Values from other runtimes and
// nil map to undefined.
func Unwrap(v host.Value) goja.Value {
	if gv, ok := v.(Value); ok && gv.v != nil {
		return gv.v
	}
	return goja.Undefined()
}

// Kind implements host.Value.
func (v Value) Kind() host.Kind {
	return kindOf(v.v)
}

// Goja returns the wrapped goja value.
func (v Value) Goja() goja.Value {
	if v.v == nil {
		return goja.Undefined()
	}
	return v.v
}

func kindOf(v goja.Value) host.Kind {
	if v == nil || goja.IsUndefined(v) {
		return host.KindUndefined
	}
	if goja.IsNull(v) {
		return host.KindNull
	}

	switch v := v.(type) {
	case *goja.Object:
		if _, ok := goja.AssertFunction(v); ok {
			return host.KindFunction
		}
		return host.KindObject
	case *goja.Symbol:
		return host.KindSymbol
	}

	switch v.ExportType().Kind() {
	case reflect.Bool:
		return host.KindBoolean
	case reflect.Int64, reflect.Float64:
		return host.KindNumber
	case reflect.String:
		return host.KindString
	default:
		return host.KindOther
	}
}

func kindName(v host.Value) string {
	if v == nil {
		return host.KindUndefined.String()
	}
	return v.Kind().String()
}

func (r *Runtime) unwrap(v host.Value) (goja.Value, error) {
	if v == nil {
		return goja.Undefined(), nil
	}
	gv, ok := v.(Value)
	if !ok {
		return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", v)).
			Detail("value does not belong to a goja runtime").
			Build()
	}
	if gv.v == nil {
		return goja.Undefined(), nil
	}
	return gv.v, nil
}

func (r *Runtime) object(v host.Value) (*goja.Object, error) {
	gv, err := r.unwrap(v)
	if err != nil {
		return nil, err
	}
	obj, ok := gv.(*goja.Object)
	if !ok {
		return nil, errors.New(errors.PhaseHost, errors.KindNotObject).
			HostType(kindOf(gv).String()).
			Detail("reflection target must be an object").
			Build()
	}
	return obj, nil
}

// recoverException turns a panic raised by the VM during a property access
// into an error.
func recoverException(err *error) {
	x := recover()
	if x == nil {
		return
	}
	switch x := x.(type) {
	case *goja.Exception:
		*err = errors.HostException(errors.PhaseHost, "exception in host runtime", x)
	case error:
		*err = errors.HostException(errors.PhaseHost, "panic in host runtime", x)
	default:
		*err = errors.HostException(errors.PhaseHost, fmt.Sprintf("panic in host runtime: %v", x), nil)
	}
}

// Global implements host.Runtime.
func (r *Runtime) Global() host.Value {
	return Value{v: r.vm.GlobalObject()}
}

// Undefined implements host.Runtime.
func (r *Runtime) Undefined() host.Value {
	return Value{v: goja.Undefined()}
}

// Null implements host.Runtime.
func (r *Runtime) Null() host.Value {
	return Value{v: goja.Null()}
}

// NewObject implements host.Runtime.
func (r *Runtime) NewObject(proto host.Value) (host.Value, error) {
	obj := r.vm.NewObject()
	if proto != nil {
		p, err := r.object(proto)
		if err != nil {
			return nil, err
		}
		if err := obj.SetPrototype(p); err != nil {
			return nil, errors.HostException(errors.PhaseHost, "set prototype", err)
		}
	}
	return Value{v: obj}, nil
}

// NewArray implements host.Runtime.
func (r *Runtime) NewArray(items ...host.Value) (host.Value, error) {
	vals := make([]interface{}, len(items))
	for i, item := range items {
		gv, err := r.unwrap(item)
		if err != nil {
			return nil, errors.Element(errors.PhaseHost, i, err)
		}
		vals[i] = gv
	}
	return Value{v: r.vm.NewArray(vals...)}, nil
}

// NewFunction implements host.Runtime. Errors returned by fn are thrown
// into JavaScript as GoError objects.
func (r *Runtime) NewFunction(name string, fn host.Func) (host.Value, error) {
	native := func(call goja.FunctionCall) goja.Value {
		args := make([]host.Value, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = Value{v: a}
		}
		res, err := fn(Value{v: call.This}, args)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		out, err := r.unwrap(res)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return out
	}

	obj := r.vm.ToValue(native).ToObject(r.vm)
	if name != "" {
		if err := obj.DefineDataProperty("name", r.vm.ToValue(name), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE); err != nil {
			return nil, errors.HostException(errors.PhaseHost, "name function", err)
		}
	}
	return Value{v: obj}, nil
}

// ToValue implements host.Runtime.
func (r *Runtime) ToValue(x any) (host.Value, error) {
	switch x := x.(type) {
	case nil:
		return r.Null(), nil
	case host.Value:
		return x, nil
	case goja.Value:
		return Value{v: x}, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Bool:
		return Value{v: r.vm.ToValue(rv.Bool())}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Value{v: r.vm.ToValue(rv.Int())}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Value{v: r.vm.ToValue(rv.Uint())}, nil
	case reflect.Float32, reflect.Float64:
		return Value{v: r.vm.ToValue(rv.Float())}, nil
	case reflect.String:
		return Value{v: r.vm.ToValue(rv.String())}, nil
	default:
		return nil, errors.New(errors.PhaseHost, errors.KindUnsupported).
			GoType(rv.Type().String()).
			Detail("only plain values convert directly").
			Build()
	}
}

// Export implements host.Runtime.
func (r *Runtime) Export(v host.Value) any {
	gv, err := r.unwrap(v)
	if err != nil {
		return nil
	}
	switch kindOf(gv) {
	case host.KindBoolean:
		return gv.ToBoolean()
	case host.KindNumber:
		return gv.ToFloat()
	case host.KindString:
		return gv.String()
	default:
		return nil
	}
}

// Get implements host.Runtime.
func (r *Runtime) Get(obj host.Value, name string) (res host.Value, err error) {
	o, err := r.object(obj)
	if err != nil {
		return nil, err
	}
	defer recoverException(&err)

	return Value{v: o.Get(name)}, nil
}

// Set implements host.Runtime.
func (r *Runtime) Set(obj host.Value, name string, val host.Value) (err error) {
	o, err := r.object(obj)
	if err != nil {
		return err
	}
	gv, err := r.unwrap(val)
	if err != nil {
		return err
	}
	defer recoverException(&err)

	if err := o.Set(name, gv); err != nil {
		return errors.HostException(errors.PhaseHost, fmt.Sprintf("set %q", name), err)
	}
	return nil
}

// Apply implements host.Runtime.
func (r *Runtime) Apply(fn host.Value, this host.Value, args ...host.Value) (host.Value, error) {
	fv, err := r.unwrap(fn)
	if err != nil {
		return nil, err
	}
	callable, ok := goja.AssertFunction(fv)
	if !ok {
		return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			HostType(kindOf(fv).String()).
			Detail("value is not a function").
			Build()
	}
	tv, err := r.unwrap(this)
	if err != nil {
		return nil, err
	}
	gargs := make([]goja.Value, len(args))
	for i, a := range args {
		if gargs[i], err = r.unwrap(a); err != nil {
			return nil, err
		}
	}

	res, err := callable(tv, gargs...)
	if err != nil {
		return nil, errors.HostException(errors.PhaseHost, "call failed", err)
	}
	return Value{v: res}, nil
}

// IsArray implements host.Runtime.
func (r *Runtime) IsArray(v host.Value) bool {
	gv, err := r.unwrap(v)
	if err != nil {
		return false
	}
	obj, ok := gv.(*goja.Object)
	return ok && obj.ClassName() == "Array"
}

// Length implements host.Runtime.
func (r *Runtime) Length(arr host.Value) (n int, err error) {
	if !r.IsArray(arr) {
		return 0, errors.NotArray(errors.PhaseHost, kindName(arr))
	}
	obj, err := r.object(arr)
	if err != nil {
		return 0, err
	}
	defer recoverException(&err)

	return int(obj.Get("length").ToInteger()), nil
}

// Index implements host.Runtime.
func (r *Runtime) Index(arr host.Value, i int) (res host.Value, err error) {
	n, err := r.Length(arr)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= n {
		return nil, errors.OutOfBounds(errors.PhaseHost, nil, i, n)
	}
	obj, err := r.object(arr)
	if err != nil {
		return nil, err
	}
	defer recoverException(&err)

	return Value{v: obj.Get(strconv.Itoa(i))}, nil
}

// Run evaluates JavaScript source in the VM.
func (r *Runtime) Run(src string) (host.Value, error) {
	v, err := r.vm.RunString(src)
	if err != nil {
		return nil, errors.HostException(errors.PhaseHost, "evaluate script", err)
	}
	return Value{v: v}, nil
}

var _ host.Runtime = (*Runtime)(nil)
