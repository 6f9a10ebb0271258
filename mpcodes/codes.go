// Package mpcodes holds the leading-byte constants of the MessagePack wire
// grammar and the small classification helpers built on top of them.
//
// Keeping these in their own package (rather than inline in the codec)
// mirrors github.com/vmihailenco/msgpack, which ships an analogous
// "codes" package alongside its Encoder/Decoder.
package mpcodes

// Code is a single MessagePack leading byte.
type Code byte

// Fixed-width families. Values follow the MessagePack specification.
const (
	PosFixIntMin Code = 0x00
	PosFixIntMax Code = 0x7f

	FixMapMin Code = 0x80
	FixMapMax Code = 0x8f

	FixArrayMin Code = 0x90
	FixArrayMax Code = 0x9f

	FixStrMin Code = 0xa0
	FixStrMax Code = 0xbf

	Nil Code = 0xc0
	// 0xc1 is unused in the MessagePack grammar.
	False Code = 0xc2
	True  Code = 0xc3

	Bin8  Code = 0xc4
	Bin16 Code = 0xc5
	Bin32 Code = 0xc6

	Ext8  Code = 0xc7
	Ext16 Code = 0xc8
	Ext32 Code = 0xc9

	Float32 Code = 0xca
	Float64 Code = 0xcb

	Uint8  Code = 0xcc
	Uint16 Code = 0xcd
	Uint32 Code = 0xce
	Uint64 Code = 0xcf

	Int8  Code = 0xd0
	Int16 Code = 0xd1
	Int32 Code = 0xd2
	Int64 Code = 0xd3

	FixExt1  Code = 0xd4
	FixExt2  Code = 0xd5
	FixExt4  Code = 0xd6
	FixExt8  Code = 0xd7
	FixExt16 Code = 0xd8

	Str8  Code = 0xd9
	Str16 Code = 0xda
	Str32 Code = 0xdb

	Array16 Code = 0xdc
	Array32 Code = 0xdd

	Map16 Code = 0xde
	Map32 Code = 0xdf

	NegFixIntMin Code = 0xe0
	NegFixIntMax Code = 0xff
)

// IsPosFixInt reports whether c encodes a 0..127 fixint.
func IsPosFixInt(c Code) bool { return c <= PosFixIntMax }

// IsNegFixInt reports whether c encodes a -32..-1 fixint.
func IsNegFixInt(c Code) bool { return c >= NegFixIntMin }

// IsFixMap reports whether c is a fixmap header.
func IsFixMap(c Code) bool { return c >= FixMapMin && c <= FixMapMax }

// IsFixArray reports whether c is a fixarray header.
func IsFixArray(c Code) bool { return c >= FixArrayMin && c <= FixArrayMax }

// IsFixStr reports whether c is a fixstr header.
func IsFixStr(c Code) bool { return c >= FixStrMin && c <= FixStrMax }

// IsFixExt reports whether c is one of the fixext headers.
func IsFixExt(c Code) bool { return c >= FixExt1 && c <= FixExt16 }

// IsStr reports whether c begins a string token of any width.
func IsStr(c Code) bool {
	return IsFixStr(c) || c == Str8 || c == Str16 || c == Str32
}

// IsBin reports whether c begins a binary token of any width.
func IsBin(c Code) bool {
	return c == Bin8 || c == Bin16 || c == Bin32
}

// IsArrayHeader reports whether c begins an array of any width.
func IsArrayHeader(c Code) bool {
	return IsFixArray(c) || c == Array16 || c == Array32
}

// IsMapHeader reports whether c begins a map of any width.
func IsMapHeader(c Code) bool {
	return IsFixMap(c) || c == Map16 || c == Map32
}

// IsExt reports whether c begins an extension token of any width.
func IsExt(c Code) bool {
	return IsFixExt(c) || c == Ext8 || c == Ext16 || c == Ext32
}

func (c Code) String() string {
	switch {
	case IsPosFixInt(c), IsNegFixInt(c):
		return "fixint"
	case IsFixMap(c):
		return "fixmap"
	case IsFixArray(c):
		return "fixarray"
	case IsFixStr(c):
		return "fixstr"
	case c == Nil:
		return "nil"
	case c == False, c == True:
		return "bool"
	case IsBin(c):
		return "bin"
	case IsExt(c):
		return "ext"
	case c == Float32:
		return "float32"
	case c == Float64:
		return "float64"
	case c >= Uint8 && c <= Uint64:
		return "uint"
	case c >= Int8 && c <= Int64:
		return "int"
	case IsFixExt(c):
		return "fixext"
	case IsStr(c):
		return "str"
	case IsArrayHeader(c):
		return "array"
	case IsMapHeader(c):
		return "map"
	default:
		return "reserved"
	}
}
