// Package host abstracts the dynamically-typed runtime on the other side of
// the boundary.
//
// A host runtime owns every Value it hands out. Go code inspects values only
// through the reflection primitives on Runtime:
//
//	Get(obj, name)           read a named property
//	Apply(fn, this, args...) invoke a value as a function
//	Kind().IsObject()        object-shape test
//	IsArray(v)               array-shape test
//
// and converts plain values with ToValue and Export.
//
// Two implementations ship with hostbind:
//
//	host/gojahost   embedded goja JavaScript engine
//	host/jshost     syscall/js when built for GOOS=js GOARCH=wasm
package host
