package bind

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
	"github.com/wippyai/hostbind/identity"
)

var (
	errorType     = reflect.TypeFor[error]()
	hostValueType = reflect.TypeFor[host.Value]()
)

// signature is the host-facing shape of a Go function: its parameters after
// the receiver, an optional result and an optional trailing error.
type signature struct {
	out    reflect.Type
	in     []reflect.Type
	hasErr bool
}

// newSignature checks that ft can be called from the host. skip drops
// leading parameters bound by Go (the method receiver). The returned string
// describes the problem when ft is unusable.
func newSignature(ft reflect.Type, skip int) (*signature, string) {
	if ft.IsVariadic() {
		return nil, "variadic functions are not supported"
	}

	sig := &signature{}
	for i := skip; i < ft.NumIn(); i++ {
		sig.in = append(sig.in, ft.In(i))
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			sig.hasErr = true
		} else {
			sig.out = ft.Out(0)
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, "second result must be error"
		}
		sig.out = ft.Out(0)
		sig.hasErr = true
	default:
		return nil, fmt.Sprintf("too many results (%d)", ft.NumOut())
	}
	return sig, ""
}

// BindFunc wraps fn as a host function without installing it anywhere.
// Parameters are converted with the same rules as Recover, so exported
// struct arguments are cloned and their handles stay valid. A non-nil
// trailing error is raised in the host as an exception.
func BindFunc(b *Binder, name string, fn any) (host.Value, error) {
	if b.isClosed() {
		return nil, errors.Closed(errors.PhaseExport, "binder")
	}
	if !identity.ValidTag(name) {
		return nil, errors.InvalidInput(errors.PhaseExport, fmt.Sprintf("invalid function name %q", name))
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, errors.New(errors.PhaseExport, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", fn)).
			Detail("handler must be a function").
			Build()
	}

	sig, problem := newSignature(rv.Type(), 0)
	if problem != "" {
		return nil, errors.New(errors.PhaseExport, errors.KindUnsupported).
			GoType(rv.Type().String()).
			Detail("function %s: %s", name, problem).
			Build()
	}

	return b.rt.NewFunction(name, func(_ host.Value, args []host.Value) (host.Value, error) {
		return b.invoke(name, rv, nil, sig, args)
	})
}

// ExportFunc binds fn and installs it on the host global object under name.
func ExportFunc(b *Binder, name string, fn any) error {
	f, err := BindFunc(b, name, fn)
	if err != nil {
		return err
	}
	if err := b.rt.Set(b.rt.Global(), name, f); err != nil {
		return errors.Rephase(errors.PhaseExport, err, "install function "+name)
	}
	b.log.Debug("exported function", zap.String("name", name))
	return nil
}

func (b *Binder) methodFunc(c *Class, m reflect.Method, sig *signature) host.Func {
	name := c.Name + "." + toCamelCase(m.Name)
	return func(this host.Value, args []host.Value) (host.Value, error) {
		ptr, h, err := b.borrow(c, this, errors.PhaseCall)
		if err != nil {
			return nil, errors.Rephase(errors.PhaseCall, err, "receiver of "+name)
		}
		defer b.slots.Return(h)

		return b.invoke(name, m.Func, []reflect.Value{ptr}, sig, args)
	}
}

// invoke lifts host arguments, calls fn and lowers its result. Missing
// arguments are undefined, extra arguments are ignored.
func (b *Binder) invoke(name string, fn reflect.Value, bound []reflect.Value, sig *signature, args []host.Value) (res host.Value, err error) {
	if b.isClosed() {
		return nil, errors.Closed(errors.PhaseCall, "binder")
	}

	in := make([]reflect.Value, 0, len(bound)+len(sig.in))
	in = append(in, bound...)
	for i, t := range sig.in {
		arg := b.rt.Undefined()
		if i < len(args) && args[i] != nil {
			arg = args[i]
		}
		v, err := b.decode(t, arg)
		if err != nil {
			return nil, errors.Rephase(errors.PhaseCall, err, fmt.Sprintf("argument %d of %s", i, name))
		}
		in = append(in, v)
	}

	defer func() {
		if x := recover(); x != nil {
			b.log.Warn("bound function panicked", zap.String("name", name), zap.Any("panic", x))
			res = nil
			err = errors.HostException(errors.PhaseCall, fmt.Sprintf("%s panicked: %v", name, x), nil)
		}
	}()

	out := fn.Call(in)

	if sig.hasErr {
		if e := out[len(out)-1]; !e.IsNil() {
			return nil, e.Interface().(error)
		}
	}
	if sig.out == nil {
		return b.rt.Undefined(), nil
	}

	var created []host.Value
	res, err = b.encode(out[0], &created)
	if err != nil {
		b.release(created)
		return nil, errors.Rephase(errors.PhaseCall, err, "result of "+name)
	}
	return res, nil
}

// toCamelCase converts a Go method name to its host name.
// Handles acronyms: GetHTTPServer -> getHttpServer, ID -> id
func toCamelCase(s string) string {
	words := splitWords(s)
	var result strings.Builder
	for i, w := range words {
		w = strings.ToLower(w)
		if i > 0 {
			r := []rune(w)
			r[0] = unicode.ToUpper(r[0])
			w = string(r)
		}
		result.WriteString(w)
	}
	return result.String()
}

// splitWords splits a PascalCase identifier into words, keeping acronyms
// together.
func splitWords(s string) []string {
	runes := []rune(s)
	var words []string

	start := 0
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) {
			words = append(words, string(runes[start:i]))
			break
		}
		r := runes[i]
		prev := runes[i-1]
		switch {
		case unicode.IsUpper(r) && unicode.IsLower(prev),
			unicode.IsUpper(r) && unicode.IsDigit(prev):
			// fooBar, v2Bar
		case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			// last capital before a lowercase run starts the next word: HTTPServer
		default:
			continue
		}
		words = append(words, string(runes[start:i]))
		start = i
	}
	return words
}
