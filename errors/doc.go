// Package errors provides structured error types for hostbind.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: element path, Go type and host type names,
// and cause chain. Kinds are further grouped into Categories: shape, identity,
// composite and boundary.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDowncast, errors.KindIdentityMismatch).
//		GoType("MyType").
//		HostType("Other").
//		Detail("identity mismatch: got %s, want %s", "Other", "MyType").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotArray(errors.PhaseDecode, "object")
//	err := errors.Element(errors.PhaseDecode, 2, cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
