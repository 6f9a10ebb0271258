// Package msgpack is the user-facing facade over the codec, dynamic
// value, and serializer layers: Marshal/Unmarshal for ad hoc use, and
// GetSerializer for callers that want a cached, compile-time-typed
// handle to reuse across many values.
package msgpack

import (
	"bytes"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
	"github.com/yatagarasu25/msgpack-cli/mpobject"
	"github.com/yatagarasu25/msgpack-cli/mpserial"
)

// CompatibilityFlags re-exports mpcodec's dialect switches so callers
// need only import this package for common use.
type CompatibilityFlags = mpcodec.CompatibilityFlags

const (
	PackBinaryAsRaw   = mpcodec.PackBinaryAsRaw
	PackRawCompatible = mpcodec.PackRawCompatible
)

// Object is the dynamic MessagePack value, re-exported for callers who
// do not know a payload's schema statically.
type Object = mpobject.Object

// GetSerializer returns a cached, type-safe serializer for T from the
// process-wide default SerializationContext.
func GetSerializer[T any]() (mpserial.Typed[T], error) {
	return GetSerializerFrom[T](mpserial.DefaultContext())
}

// GetSerializerFrom is GetSerializer against an explicit Context,
// for callers running more than one independent configuration in the
// same process.
func GetSerializerFrom[T any](ctx *mpserial.Context) (mpserial.Typed[T], error) {
	return mpserial.GetSerializerFrom[T](ctx)
}

// Marshal packs v into a new byte slice using the default context.
func Marshal[T any](v T) ([]byte, error) {
	typed, err := GetSerializer[T]()
	if err != nil {
		return nil, err
	}
	return typed.PackSingleObject(v)
}

// Unmarshal unpacks a single T from b using the default context.
func Unmarshal[T any](b []byte) (T, error) {
	var zero T
	typed, err := GetSerializer[T]()
	if err != nil {
		return zero, err
	}
	return typed.UnpackSingleObject(b)
}

// NewPacker and NewUnpacker expose the codec layer directly for callers
// who need to stream multiple values over one connection rather than
// pack/unpack a single standalone payload.
var (
	NewPacker   = mpcodec.NewPacker
	NewUnpacker = mpcodec.NewUnpacker
)

// EncodeContext runs pack against a fresh Packer under flags, so that
// every value pack writes lands back to back in a single buffer, and
// returns the combined bytes. It exists mainly
// for tests and tools that need a multi-value stream without standing
// up their own Packer.
func EncodeContext(flags CompatibilityFlags, pack func(p *mpcodec.Packer) error) ([]byte, error) {
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, flags)
	if err := pack(p); err != nil {
		return nil, err
	}
	if err := p.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
