package host

// Kind is the dynamic type of a host value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindSymbol
	KindObject
	KindFunction
	KindOther
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBoolean:   "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindSymbol:    "symbol",
	KindObject:    "object",
	KindFunction:  "function",
	KindOther:     "other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsObject reports whether values of this kind can carry properties set by
// the boundary. Functions are excluded, matching typeof semantics.
func (k Kind) IsObject() bool {
	return k == KindObject
}

// Value is an opaque handle to a value owned by a host runtime.
// Go code reads through it but never frees it.
type Value interface {
	Kind() Kind
}

// Func is a Go function callable from the host. A returned error is raised
// in the host as an exception carrying err.Error().
type Func func(this Value, args []Value) (Value, error)

// Runtime exposes the reflection and plain-value primitives of a host
// runtime. Implementations are not safe for concurrent use.
type Runtime interface {
	// Global returns the global object.
	Global() Value

	Undefined() Value
	Null() Value

	// NewObject creates an empty object. A non-nil proto becomes its prototype.
	NewObject(proto Value) (Value, error)

	// NewArray creates a host array holding items in order.
	NewArray(items ...Value) (Value, error)

	// NewFunction wraps fn as a host function.
	NewFunction(name string, fn Func) (Value, error)

	// ToValue converts a plain Go value (nil, bool, integers, floats, string).
	ToValue(x any) (Value, error)

	// Export converts a primitive host value to Go: nil for undefined and
	// null, bool, float64 for numbers, string. Other kinds return nil.
	Export(v Value) any

	// Get reads a named property, following the prototype chain.
	// A missing property yields undefined.
	Get(obj Value, name string) (Value, error)

	// Set writes an own property.
	Set(obj Value, name string, val Value) error

	// Apply calls fn with the given receiver and arguments.
	Apply(fn Value, this Value, args ...Value) (Value, error)

	// IsArray reports whether v is a host array.
	IsArray(v Value) bool

	// Length returns the length of a host array.
	Length(arr Value) (int, error)

	// Index returns the element at i of a host array.
	Index(arr Value, i int) (Value, error)
}

// IsAbsent reports whether v is undefined or null.
func IsAbsent(v Value) bool {
	if v == nil {
		return true
	}
	k := v.Kind()
	return k == KindUndefined || k == KindNull
}
