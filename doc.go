// Package hostbind exposes typed Go values to a dynamically typed host
// runtime (a JavaScript engine) and recovers them on the way back without
// consuming the host-owned handle.
//
// # Architecture Overview
//
//	hostbind/            Root package with the reserved host-side names
//	├── identity/        Startup registry binding Go struct types to identity tags
//	├── bind/            Binder: class export, wrapping, Take, Free, Downcast
//	├── codec/           Optional and array codecs built on Downcast
//	├── host/            Host runtime abstraction
//	│   ├── gojahost/    goja backend (in-process)
//	│   └── jshost/      syscall/js backend (GOOS=js GOARCH=wasm)
//	├── resource/        Slot table owning the Go side of exported instances
//	├── errors/          Structured boundary errors
//	├── internal/gen/    Identity code generator
//	└── cmd/hostbind-gen Generator command line
//
// # Quick Start
//
// Mark a struct for export and identity recovery:
//
//	//hostbind:export
//	//hostbind:identity
//	type MyType struct{ N int }
//
// Run hostbind-gen in the package to produce hostbind_gen.go, then bind it:
//
//	b, err := bind.New(gojahost.New(nil), bind.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	if _, err := bind.Export[MyType](b); err != nil {
//	    log.Fatal(err)
//	}
//
//	h, _ := b.Wrap(MyType{N: 1})
//	v, err := bind.Downcast[MyType](b, h) // h stays usable
//
// # Handles and Ownership
//
// The host owns every handle. Take is the consuming conversion: it frees the
// Go-side slot and zeroes the handle's pointer property. Downcast and the
// codecs in package codec clone instead, so a handle stays valid after any
// number of recoveries.
//
// # Thread Safety
//
// A Binder and its host runtime must be used from one goroutine, matching
// goja and syscall/js. The identity registry is safe for concurrent use.
package hostbind
