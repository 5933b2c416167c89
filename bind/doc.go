// Package bind exports Go struct types into a host runtime and converts
// values across the boundary.
//
// A Binder owns a slot table. Every exported instance handed to the host is
// a host object whose prototype carries the class methods and whose own
// pointer property holds the handle of the slot owning the Go value.
//
//	b, _ := bind.New(gojahost.New(nil), bind.DefaultConfig())
//	bind.Export[MyType](b)
//
//	h, _ := b.Wrap(MyType{N: 1})             // new slot, new host object
//	v, _ := bind.Downcast[MyType](b, h)     // copy, h stays valid
//	v, _ = bind.Take[MyType](b, h)          // move, h is now null
//
// # Conversions
//
// Downcast verifies identity before it touches the slot: the value must be
// an object, its identity method must report the tag of T, and its pointer
// property must name a live slot of T. Recover applies the same check to
// exported struct types and extends it to pointers (absence marker to nil),
// slices (host arrays) and plain Go types.
//
// Take is the consuming conversion. It frees the slot and zeroes the
// pointer, so the handle fails every later conversion.
//
// # Functions and Methods
//
// ExportFunc installs a Go function on the host global object. Exported
// methods of *T are bound on the prototype under their camelCase names and
// run against the live slot value, so pointer receivers mutate the
// instance. A returned error is thrown in the host with its full message.
package bind
