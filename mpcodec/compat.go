package mpcodec

// CompatibilityFlags controls which MessagePack dialect a Packer emits.
// The two bits are independent and combine with |.
type CompatibilityFlags uint8

const (
	// PackBinaryAsRaw makes PackBinary fall back to a string header
	// instead of the bin family, for peers that predate it.
	PackBinaryAsRaw CompatibilityFlags = 1 << iota

	// PackRawCompatible is the "classic" dialect switch: it disables
	// both the bin family and the str8 header, so every byte payload
	// (string or binary) is written using the pre-bin raw/fixstr/str16/
	// str32 headers only.
	PackRawCompatible
)

// Classic reports whether f selects the classic (pre-bin) dialect.
func (f CompatibilityFlags) Classic() bool { return f&PackRawCompatible != 0 }

// BinaryAsRaw reports whether f forces binary payloads through string
// headers even outside classic mode.
func (f CompatibilityFlags) BinaryAsRaw() bool {
	return f&PackBinaryAsRaw != 0 || f.Classic()
}

// AllowsStr8 reports whether the str8 header may be used.
func (f CompatibilityFlags) AllowsStr8() bool { return !f.Classic() }
