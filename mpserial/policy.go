package mpserial

// NilImplication is the per-member policy for how a missing or null
// wire entry maps onto a typed field.
type NilImplication int

const (
	// MemberDefault leaves the field at the type's zero value.
	MemberDefault NilImplication = iota
	// Null sets the field to null/zero explicitly; building a
	// serializer for a non-nullable value-typed field with this policy
	// fails.
	Null
	// Prohibit fails unpacking with ErrMissingRequiredValue.
	Prohibit
)

// SerializationMethod selects the reflective aggregate serializer's wire
// shape.
type SerializationMethod int

const (
	// MethodMap is the default shape: a MessagePack map keyed by member
	// name.
	MethodMap SerializationMethod = iota
	// MethodArray emits members positionally with no keys.
	MethodArray
)

// EnumMethod selects how an enum serializer represents its values on
// the wire.
type EnumMethod int

const (
	// ByName packs/unpacks using the enum constant's declared name.
	ByName EnumMethod = iota
	// ByUnderlyingValue packs/unpacks using the enum's underlying
	// integer representation.
	ByUnderlyingValue
)

// Default nil-implication policies: collection items
// and tuple items default to Null; map keys default to Prohibit.
const (
	DefaultCollectionItemNilImplication = Null
	DefaultMapKeyNilImplication         = Prohibit
	DefaultTupleItemNilImplication      = Null
)
