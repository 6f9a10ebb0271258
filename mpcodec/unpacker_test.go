package mpcodec_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
)

func TestUnpackScalarRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	require.NoError(t, p.PackInt(-1000))
	require.NoError(t, p.Flush())

	u := mpcodec.NewUnpacker(&buf, 0)
	ok, err := u.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, u.IsArrayHeader())
	assert.Equal(t, int64(-1000), u.LastReadData().AsInt())

	ok, err = u.Read()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnpackArrayHeaderThenElements(t *testing.T) {
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	require.NoError(t, p.PackArrayHeader(2))
	require.NoError(t, p.PackInt(1))
	require.NoError(t, p.PackInt(2))
	require.NoError(t, p.Flush())

	u := mpcodec.NewUnpacker(&buf, 0)
	ok, err := u.Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, u.IsArrayHeader())
	require.Equal(t, 2, u.ItemsCount())

	ok, err = u.MoveToNextEntry()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), u.LastReadData().AsInt())

	ok, err = u.MoveToNextEntry()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), u.LastReadData().AsInt())
}

func TestMoveToNextEntryWithoutContainerErrors(t *testing.T) {
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	require.NoError(t, p.PackInt(1))
	require.NoError(t, p.Flush())

	u := mpcodec.NewUnpacker(&buf, 0)
	_, err := u.MoveToNextEntry()
	assert.ErrorIs(t, err, mpcodec.ErrNoActiveContainer)
}

// After a subtree reader closes, the parent's cursor equals the
// position directly after the subtree's final byte, regardless of how
// many of the subtree's items the caller read.
func TestSubtreeConsumptionPartialRead(t *testing.T) {
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	require.NoError(t, p.PackArrayHeader(2)) // outer: [subtree, sentinel]
	require.NoError(t, p.PackArrayHeader(3)) // subtree: 3-element array, only 1 read
	require.NoError(t, p.PackInt(1))
	require.NoError(t, p.PackInt(2))
	require.NoError(t, p.PackInt(3))
	require.NoError(t, p.PackString("sentinel"))
	require.NoError(t, p.Flush())

	u := mpcodec.NewUnpacker(&buf, 0)
	ok, err := u.Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, u.IsArrayHeader())
	require.Equal(t, 2, u.ItemsCount())

	sub, err := u.ReadSubtree()
	require.NoError(t, err)
	require.True(t, sub.IsArrayHeader())
	require.Equal(t, 3, sub.ItemsCount())

	// Read only the first of the subtree's 3 elements.
	ok, err = sub.MoveToNextEntry()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), sub.LastReadData().AsInt())

	require.NoError(t, sub.Close())

	// Parent must now see the sentinel, not the skipped elements 2 and 3.
	ok, err = u.MoveToNextEntry()
	require.NoError(t, err)
	require.True(t, ok)
	text, ok2 := u.LastReadData().AsString().TryGetString()
	require.True(t, ok2)
	assert.Equal(t, "sentinel", text)
}

func TestSubtreeOnScalarIsImmediatelyDone(t *testing.T) {
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	require.NoError(t, p.PackInt(42))
	require.NoError(t, p.Flush())

	u := mpcodec.NewUnpacker(&buf, 0)
	sub, err := u.ReadSubtree()
	require.NoError(t, err)
	assert.Equal(t, int64(42), sub.LastReadData().AsInt())
	assert.NoError(t, sub.Close())

	_, err = sub.Read()
	assert.ErrorIs(t, err, mpcodec.ErrSubtreeOverrun)
}

func TestUnexpectedEndOfStream(t *testing.T) {
	// str8 header declares 5 bytes but only 2 are present.
	buf := bytes.NewReader([]byte{0xd9, 0x05, 'h', 'i'})
	u := mpcodec.NewUnpacker(buf, 0)
	_, err := u.Read()
	assert.ErrorIs(t, err, mpcodec.ErrUnexpectedEndOfStream)
}

// A str8 token carrying invalid UTF-8 yields a blob, not a string.
func TestDecodeInvalidUTF8AsBlob(t *testing.T) {
	buf := bytes.NewReader([]byte{0xd9, 0x02, 0xff, 0xfe})
	u := mpcodec.NewUnpacker(buf, 0)
	ok, err := u.Read()
	require.NoError(t, err)
	require.True(t, ok)

	s := u.LastReadData().AsString()
	_, ok = s.TryGetString()
	assert.False(t, ok)
	assert.Equal(t, []byte{0xff, 0xfe}, s.Bytes())
}
