// Package mpserial implements the Serializer contract, the reflective
// aggregate serializer, enum handling, and the SerializationContext /
// Repository type registry.
package mpserial

import "errors"

// Sentinel errors for the serializer layer. They are
// wrapped with positional context (member name, type) on the way up via
// github.com/pkg/errors, but remain matchable with errors.Is.
var (
	ErrValueCannotBeNull          = errors.New("msgpack: value cannot be null for this member")
	ErrMissingRequiredValue       = errors.New("msgpack: required value is missing")
	ErrNoDefaultConstructor       = errors.New("msgpack: type has no usable default constructor")
	ErrAbstractType               = errors.New("msgpack: type is abstract or an interface with no default concrete type registered")
	ErrNotRegistered              = errors.New("msgpack: type has no registered or derivable serializer")
	ErrUnknownEnumMember          = errors.New("msgpack: unknown enum member")
	ErrEnumUnderlyingTypeMismatch = errors.New("msgpack: enum underlying type mismatch")
	ErrNotSupported               = errors.New("msgpack: operation not supported by this serializer")
)
