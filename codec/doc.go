// Package codec converts optional values and sequences of exported values
// across the host boundary without consuming the handles they contain.
//
// An optional is *T on the Go side and either the absence marker or one
// handle on the host side:
//
//	h, _ := codec.EncodeOption(b, &MyType{N: 1})
//	v, _ := codec.DecodeOption[MyType](b, h) // h is still usable
//
// A sequence is []T on the Go side and a host array of independent handles
// on the host side:
//
//	arr, _ := codec.EncodeArray(b, []MyType{{N: 0}, {N: 1}})
//	items, _ := codec.DecodeArray[MyType](b, arr)
//
// Decoding clones each value out of its slot, so the host keeps every
// handle it passed in. An empty array and the absence marker are distinct.
package codec
