package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // identity registration
	PhaseExport   Phase = "export"   // class export into a host runtime
	PhaseEncode   Phase = "encode"   // Go to host
	PhaseDecode   Phase = "decode"   // host to Go
	PhaseDowncast Phase = "downcast" // identity-verified recovery
	PhaseCall     Phase = "call"     // host calling a bound Go function
	PhaseGenerate Phase = "generate" // code generation
	PhaseConfig   Phase = "config"   // configuration loading
	PhaseHost     Phase = "host"     // host runtime primitives
)

// Kind categorizes the error
type Kind string

const (
	KindNotObject        Kind = "not_object"
	KindNotArray         Kind = "not_array"
	KindIdentityMissing  Kind = "identity_missing"
	KindIdentityInvalid  Kind = "identity_invalid"
	KindIdentityMismatch Kind = "identity_mismatch"
	KindElement          Kind = "element"
	KindPointer          Kind = "pointer"
	KindNilPointer       Kind = "nil_pointer"
	KindTypeMismatch     Kind = "type_mismatch"
	KindOverflow         Kind = "overflow"
	KindNotExported      Kind = "not_exported"
	KindUnsupported      Kind = "unsupported"
	KindConflict         Kind = "conflict"
	KindInvalidInput     Kind = "invalid_input"
	KindClosed           Kind = "closed"
	KindHostException    Kind = "host_exception"
)

// Category groups kinds by the failure they describe.
type Category string

const (
	CategoryShape     Category = "shape"
	CategoryIdentity  Category = "identity"
	CategoryComposite Category = "composite"
	CategoryBoundary  Category = "boundary"
	CategoryOther     Category = "other"
)

// Category returns the failure category of the kind.
func (k Kind) Category() Category {
	switch k {
	case KindNotObject, KindNotArray:
		return CategoryShape
	case KindIdentityMissing, KindIdentityInvalid, KindIdentityMismatch:
		return CategoryIdentity
	case KindElement:
		return CategoryComposite
	case KindPointer, KindNilPointer:
		return CategoryBoundary
	default:
		return CategoryOther
	}
}

// Error is the structured error type used throughout hostbind
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	HostType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.HostType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.HostType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", host type ")
			b.WriteString(e.HostType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.HostType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Category returns the failure category of the error kind.
func (e *Error) Category() Category {
	return e.Kind.Category()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the element path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// HostType sets the host-side type or identity tag
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// CategoryOf returns the category of the first *Error in err's chain.
func CategoryOf(err error) Category {
	if k, ok := KindOf(err); ok {
		return k.Category()
	}
	return CategoryOther
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, hostType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		HostType: hostType,
	}
}

// NotObject creates a shape error for a value that cannot carry identity.
func NotObject(phase Phase, goType, hostType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindNotObject,
		GoType:   goType,
		HostType: hostType,
		Detail:   fmt.Sprintf("value supplied as %s is not an object", goType),
	}
}

// NotArray creates a shape error for a value that must be an array.
func NotArray(phase Phase, hostType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindNotArray,
		HostType: hostType,
		Detail:   "the argument must be an array",
	}
}

// IdentityMismatch creates an identity mismatch error.
func IdentityMismatch(phase Phase, goType, got, want string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindIdentityMismatch,
		GoType:   goType,
		HostType: got,
		Detail:   fmt.Sprintf("identity mismatch: got %s, want %s", got, want),
		Value:    got,
	}
}

// Element wraps a per-element failure of a sequence with its index.
func Element(phase Phase, index int, cause error) *Error {
	verb := "cast"
	if phase == PhaseEncode {
		verb = "convert"
	}
	return &Error{
		Phase:  phase,
		Kind:   KindElement,
		Path:   []string{fmt.Sprintf("[%d]", index)},
		Detail: fmt.Sprintf("failed to %s item %d", verb, index),
		Value:  index,
		Cause:  cause,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NilPointer creates a null backing pointer error
func NilPointer(phase Phase, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		GoType: goType,
		Detail: "null pointer passed to Go; the handle was consumed or freed",
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		GoType: targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Rephase wraps cause under a new phase, keeping the cause's kind so
// errors.Is on kind still matches after crossing a layer.
func Rephase(phase Phase, cause error, detail string) *Error {
	kind, ok := KindOf(cause)
	if !ok {
		kind = KindHostException
	}
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotExported creates an error for a Go type that has no class in a binder.
func NotExported(phase Phase, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotExported,
		GoType: goType,
		Detail: "type is not exported to this host runtime",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Conflict creates a registration conflict error
func Conflict(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConflict,
		Detail: detail,
	}
}

// Closed creates an error for use after Close
func Closed(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", component),
	}
}

// HostException wraps an exception raised by the host runtime
func HostException(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindHostException,
		Detail: detail,
		Cause:  cause,
	}
}
