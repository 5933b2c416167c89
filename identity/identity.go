package identity

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/wippyai/hostbind/errors"
)

// Reporter is implemented by types that carry a generated identity tag.
// HostbindTag must be pure and return the same constant on every call.
type Reporter interface {
	HostbindTag() string
}

// Entry binds one Go struct type to its identity tag.
type Entry struct {
	Type reflect.Type
	Tag  string
	// Aliased is set when Tag differs from the Go type name.
	Aliased bool
}

func (e Entry) String() string {
	return fmt.Sprintf("%s => %s", e.Type, e.Tag)
}

// Registry maps Go struct types to identity tags and back.
// It is safe for concurrent use.
type Registry struct {
	byType map[reflect.Type]Entry
	byTag  map[string]reflect.Type
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]Entry),
		byTag:  make(map[string]reflect.Type),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry populated by generated init
// functions.
func Default() *Registry {
	return defaultRegistry
}

// Register binds t to alias, or to its type name when alias is empty.
// Registering the same type under the same tag again is a no-op.
func (r *Registry) Register(t reflect.Type, alias string) (Entry, error) {
	if t == nil {
		return Entry{}, errors.InvalidInput(errors.PhaseRegister, "type is nil")
	}
	if t.Kind() != reflect.Struct {
		return Entry{}, errors.New(errors.PhaseRegister, errors.KindUnsupported).
			GoType(t.String()).
			Detail("identity may only be registered for struct types, got %s", t.Kind()).
			Build()
	}
	if t.Name() == "" {
		return Entry{}, errors.New(errors.PhaseRegister, errors.KindUnsupported).
			GoType(t.String()).
			Detail("anonymous struct types have no identity").
			Build()
	}
	if strings.ContainsRune(t.Name(), '[') {
		return Entry{}, errors.New(errors.PhaseRegister, errors.KindUnsupported).
			GoType(t.String()).
			Detail("generic types have no stable identity").
			Build()
	}

	tag := alias
	if tag == "" {
		tag = t.Name()
	}
	if !ValidTag(tag) {
		return Entry{}, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			GoType(t.String()).
			Detail("invalid identity tag %q", tag).
			Build()
	}

	if got, ok := Reported(t); ok && got != tag {
		return Entry{}, errors.IdentityMismatch(errors.PhaseRegister, t.String(), got, tag)
	}

	entry := Entry{Type: t, Tag: tag, Aliased: tag != t.Name()}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byType[t]; ok {
		if prev.Tag == tag {
			return prev, nil
		}
		return Entry{}, errors.New(errors.PhaseRegister, errors.KindConflict).
			GoType(t.String()).
			Detail("type already registered as %q, cannot register as %q", prev.Tag, tag).
			Build()
	}
	if other, ok := r.byTag[tag]; ok {
		return Entry{}, errors.New(errors.PhaseRegister, errors.KindConflict).
			GoType(t.String()).
			Detail("tag %q already used by %s", tag, other).
			Build()
	}

	r.byType[t] = entry
	r.byTag[tag] = t
	return entry, nil
}

// Lookup returns the entry for t.
func (r *Registry) Lookup(t reflect.Type) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byType[t]
	return e, ok
}

// Resolve returns the entry registered under tag.
func (r *Registry) Resolve(tag string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byTag[tag]
	if !ok {
		return Entry{}, false
	}
	return r.byType[t], true
}

// Entries returns every entry sorted by tag.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.byType))
	for _, e := range r.byType {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byType)
}

// Register binds T in the default registry.
func Register[T any](alias string) (Entry, error) {
	return defaultRegistry.Register(reflect.TypeFor[T](), alias)
}

// MustRegister is Register for generated init functions. It panics on error,
// since a bad tag there is a build defect.
func MustRegister[T any](alias string) Entry {
	e, err := Register[T](alias)
	if err != nil {
		panic(err)
	}
	return e
}

// TagOf returns the tag of T in the default registry.
func TagOf[T any]() (string, bool) {
	e, ok := defaultRegistry.Lookup(reflect.TypeFor[T]())
	return e.Tag, ok
}

// Reported calls HostbindTag on the zero value of t, if t or *t implements
// Reporter.
func Reported(t reflect.Type) (string, bool) {
	reporter := reflect.TypeFor[Reporter]()
	switch {
	case t.Implements(reporter):
		return reflect.Zero(t).Interface().(Reporter).HostbindTag(), true
	case reflect.PointerTo(t).Implements(reporter):
		return reflect.New(t).Interface().(Reporter).HostbindTag(), true
	}
	return "", false
}

// ValidTag reports whether tag is usable as a host class name: a non-empty
// identifier of letters, digits, '_' and '$' not starting with a digit.
func ValidTag(tag string) bool {
	if tag == "" {
		return false
	}
	for i, r := range tag {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}
