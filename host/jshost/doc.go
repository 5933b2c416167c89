//go:build js && wasm

// Package jshost implements host.Runtime with syscall/js for Go programs
// compiled to GOOS=js GOARCH=wasm.
//
// Property reads and calls go through Reflect.get and Reflect.apply so that
// getters and callees see the same semantics as plain JavaScript. Callbacks
// made with NewFunction hold js.Func resources until Release is called.
package jshost
