// Package mpgen defines the contract a code-generation backend
// implements to supply a precomputed Serializer for a type instead of
// letting the reflective builder construct one at runtime.
//
// No backend is implemented here: this package is the seam a separate
// generator tool plugs into, the same way the reflective aggregate
// serializer is always available as a fallback.
package mpgen

import "reflect"

// Backend is consulted by a serialization Context before it falls back
// to reflection. A Backend that does not recognize t returns ok=false
// so the next backend (or the reflective builder) gets a chance.
type Backend interface {
	Serializer(t reflect.Type) (ser any, ok bool)
}
