package mpobject

import "github.com/yatagarasu25/msgpack-cli/mpcodes"

// ValueKind discriminates the dynamic tagged union a MessagePack value
// can hold.
type ValueKind int

const (
	KindNil ValueKind = iota
	KindBool
	KindUint
	KindInt
	KindFloat32
	KindFloat64
	KindString
	KindBinary
	KindArray
	KindMap
	KindExtension
)

func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// KeyValue is one entry of a Map-kind Object; order is preserved as read
// off the wire.
type KeyValue struct {
	Key   Object
	Value Object
}

// Extension is the payload of an Extension-kind Object.
type Extension struct {
	TypeByte int8
	Payload  []byte
}

// Object is MessagePackObject: a dynamic value for callers who do not
// know the wire schema statically. It carries an "origin" wire code so
// that round-tripping preserves the narrowest encoding compatible with
// the value (e.g. a uint8 read back stays int-family rather than
// silently promoting to int64 on repack).
type Object struct {
	Kind   ValueKind
	Origin mpcodes.Code

	boolVal  bool
	uintVal  uint64
	intVal   int64
	f32      float32
	f64      float64
	str      *String
	bin      []byte
	arr      []Object
	mp       []KeyValue
	ext      Extension
}

// Nil returns the Nil-kind Object.
func Nil() Object { return Object{Kind: KindNil, Origin: mpcodes.Nil} }

// Bool wraps a bool value.
func Bool(b bool) Object {
	origin := mpcodes.False
	if b {
		origin = mpcodes.True
	}
	return Object{Kind: KindBool, Origin: origin, boolVal: b}
}

// Uint wraps a non-negative integer read from an unsigned-family token.
func Uint(v uint64, origin mpcodes.Code) Object {
	return Object{Kind: KindUint, Origin: origin, uintVal: v}
}

// Int wraps an integer read from a signed-family (or negative fixint)
// token.
func Int(v int64, origin mpcodes.Code) Object {
	return Object{Kind: KindInt, Origin: origin, intVal: v}
}

// Float32 wraps a single-precision float.
func Float32(f float32) Object {
	return Object{Kind: KindFloat32, Origin: mpcodes.Float32, f32: f}
}

// Float64 wraps a double-precision float.
func Float64(f float64) Object {
	return Object{Kind: KindFloat64, Origin: mpcodes.Float64, f64: f}
}

// StringValue wraps a dual-representation string.
func StringValue(s *String, origin mpcodes.Code) Object {
	return Object{Kind: KindString, Origin: origin, str: s}
}

// Binary wraps an opaque byte payload.
func Binary(b []byte, origin mpcodes.Code) Object {
	return Object{Kind: KindBinary, Origin: origin, bin: b}
}

// Array wraps a sequence of values.
func Array(items []Object, origin mpcodes.Code) Object {
	return Object{Kind: KindArray, Origin: origin, arr: items}
}

// Map wraps a sequence of key/value pairs in wire order.
func Map(pairs []KeyValue, origin mpcodes.Code) Object {
	return Object{Kind: KindMap, Origin: origin, mp: pairs}
}

// ExtensionValue wraps an extension type-byte and payload.
func ExtensionValue(typeByte int8, payload []byte, origin mpcodes.Code) Object {
	return Object{Kind: KindExtension, Origin: origin, ext: Extension{typeByte, payload}}
}

func (o Object) IsNil() bool { return o.Kind == KindNil }

// AsBool returns the bool payload; valid only when Kind == KindBool.
func (o Object) AsBool() bool { return o.boolVal }

// AsUint returns the value as an unsigned integer, valid for either
// KindUint or KindInt (the decoder always produces KindUint for a
// non-negative token regardless of whether the writer called PackInt
// or PackUint, so a caller reading a signed field still needs this to
// work the other way around for a KindInt value that happens to be
// non-negative).
func (o Object) AsUint() uint64 {
	if o.Kind == KindInt {
		return uint64(o.intVal)
	}
	return o.uintVal
}

// AsInt returns the value as a signed integer, valid for either
// KindInt or KindUint — a token decoded as KindUint (every non-negative
// integer on the wire) still needs to convert cleanly into a signed
// field.
func (o Object) AsInt() int64 {
	if o.Kind == KindUint {
		return int64(o.uintVal)
	}
	return o.intVal
}

// AsFloat32 returns the float32 payload; valid only when Kind == KindFloat32.
func (o Object) AsFloat32() float32 { return o.f32 }

// AsFloat64 returns the float64 payload; valid only when Kind == KindFloat64.
func (o Object) AsFloat64() float64 { return o.f64 }

// AsString returns the String payload; valid only when Kind == KindString.
func (o Object) AsString() *String { return o.str }

// AsBinary returns the binary payload; valid only when Kind == KindBinary.
func (o Object) AsBinary() []byte { return o.bin }

// AsArray returns the array payload; valid only when Kind == KindArray.
func (o Object) AsArray() []Object { return o.arr }

// AsMap returns the map payload; valid only when Kind == KindMap.
func (o Object) AsMap() []KeyValue { return o.mp }

// AsExtension returns the extension payload; valid only when
// Kind == KindExtension.
func (o Object) AsExtension() Extension { return o.ext }
