package mpobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yatagarasu25/msgpack-cli/mpobject"
)

func TestStringFromTextRoundTrips(t *testing.T) {
	s := mpobject.NewStringFromText("hello")
	assert.Equal(t, []byte("hello"), s.Bytes())
	text, ok := s.TryGetString()
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
}

func TestStringFromInvalidUTF8Bytes(t *testing.T) {
	s := mpobject.NewStringFromBytes([]byte{0xff, 0xfe})
	_, ok := s.TryGetString()
	assert.False(t, ok)
	assert.Equal(t, mpobject.IsBlob, s.Kind())

	_, err := s.StringErr()
	assert.ErrorIs(t, err, mpobject.ErrDecodeFailed)

	// Repeated calls keep returning the same outcome without reattempting.
	_, ok = s.TryGetString()
	assert.False(t, ok)
}

func TestStringEqualityPrefersDecodedText(t *testing.T) {
	a := mpobject.NewStringFromText("x")
	b := mpobject.NewStringFromBytes([]byte("x"))
	assert.True(t, a.Equal(b))
}

func TestStringEqualityFallsBackToBytesForBlobs(t *testing.T) {
	a := mpobject.NewStringFromBytes([]byte{0xff, 0xfe})
	b := mpobject.NewStringFromBytes([]byte{0xff, 0xfe})
	assert.True(t, a.Equal(b))

	c := mpobject.NewStringFromBytes([]byte{0xff, 0xfd})
	assert.False(t, a.Equal(c))
}

func TestStringHashConsistentWithEquality(t *testing.T) {
	a := mpobject.NewStringFromText("same")
	b := mpobject.NewStringFromBytes([]byte("same"))
	assert.Equal(t, a.Hash(), b.Hash())
}
