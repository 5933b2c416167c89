// Package gojahost implements host.Runtime on the goja JavaScript engine.
//
// It lets Go programs embed a JavaScript host in-process:
//
//	rt := gojahost.New(nil)
//	v, err := rt.Run(`[1, 2, 3]`)
//
// Errors returned from host functions created with NewFunction are thrown
// into JavaScript as GoError objects whose message is the Go error text.
// A Runtime is bound to one goja VM and must not be used concurrently.
package gojahost
