// Package gen implements hostbind-gen: it scans Go packages for
// //hostbind:export and //hostbind:identity directives and writes, per
// package, a file declaring a HostbindTag reporter for every identity type
// together with an init function registering it in identity.Default.
//
//	//hostbind:export name=Tally
//	//hostbind:identity
//	type Counter struct{ n int }
//
// generates
//
//	func (Counter) HostbindTag() string { return "Tally" }
//
//	func init() {
//		identity.MustRegister[Counter]("Tally")
//	}
//
// Problems are collected as Diagnostics positioned at the offending
// directive. Any diagnostic aborts generation before a file is written.
package gen
