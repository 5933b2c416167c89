// Package identity binds Go struct types to the identity tags their host
// instances report.
//
// Code generated by hostbind-gen registers every identity type at startup:
//
//	func (MyType) HostbindTag() string { return "MyType" }
//
//	func init() {
//	    identity.MustRegister[MyType]("MyType")
//	}
//
// A tag is the Go type name unless the type was exported under an alias.
// The registry rejects a type whose HostbindTag disagrees with the tag it is
// registered under, and a tag claimed by two types.
package identity
