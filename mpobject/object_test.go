package mpobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yatagarasu25/msgpack-cli/mpcodes"
	"github.com/yatagarasu25/msgpack-cli/mpobject"
)

func TestObjectAsIntReadsUintKindToken(t *testing.T) {
	// The unpacker always produces KindUint for a non-negative token
	// regardless of whether the writer called PackInt or PackUint; a
	// caller decoding into a signed field still needs the value back.
	o := mpobject.Uint(7, mpcodes.PosFixIntMin)
	assert.Equal(t, int64(7), o.AsInt())
}

func TestObjectAsUintReadsIntKindToken(t *testing.T) {
	o := mpobject.Int(7, mpcodes.Int8)
	assert.Equal(t, uint64(7), o.AsUint())
}

func TestObjectAsIntOnNegativeIntKind(t *testing.T) {
	o := mpobject.Int(-3, mpcodes.NegFixIntMin)
	assert.Equal(t, int64(-3), o.AsInt())
}
