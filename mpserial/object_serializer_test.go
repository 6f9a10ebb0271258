package mpserial_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
	"github.com/yatagarasu25/msgpack-cli/mpserial"
)

type Point struct {
	X int32  `msgpack:"X"`
	Y int32  `msgpack:"Y"`
	N string `msgpack:"N"`
}

func packedValue[T any](t *testing.T, ctx *mpserial.Context, v T) []byte {
	t.Helper()
	ser, err := mpserial.GetSerializerFrom[T](ctx)
	require.NoError(t, err)
	b, err := ser.PackSingleObject(v)
	require.NoError(t, err)
	return b
}

func TestObjectSerializerMapShapeRoundTrip(t *testing.T) {
	ctx := mpserial.NewContext()
	b := packedValue(t, ctx, Point{X: 1, Y: 2, N: "a"})

	ser, err := mpserial.GetSerializerFrom[Point](ctx)
	require.NoError(t, err)
	out, err := ser.UnpackSingleObject(b)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2, N: "a"}, out)
}

func TestObjectSerializerSkipsUnknownMapKey(t *testing.T) {
	ctx := mpserial.NewContext()
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	require.NoError(t, p.PackMapHeader(4))
	require.NoError(t, p.PackString("X"))
	require.NoError(t, p.PackInt(1))
	require.NoError(t, p.PackString("Extra"))
	require.NoError(t, p.PackString("ignored"))
	require.NoError(t, p.PackString("Y"))
	require.NoError(t, p.PackInt(2))
	require.NoError(t, p.PackString("N"))
	require.NoError(t, p.PackString("a"))
	require.NoError(t, p.Flush())

	ser, err := mpserial.GetSerializerFrom[Point](ctx)
	require.NoError(t, err)
	out, err := ser.UnpackSingleObject(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2, N: "a"}, out)
}

func TestObjectSerializerForgivingArrayAutoAdvance(t *testing.T) {
	ctx := mpserial.NewContext()
	ctx.DefaultMethod = mpserial.MethodArray
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	// Extra trailing element beyond the struct's 3 members.
	require.NoError(t, p.PackArrayHeader(4))
	require.NoError(t, p.PackInt(1))
	require.NoError(t, p.PackInt(2))
	require.NoError(t, p.PackString("a"))
	require.NoError(t, p.PackString("extra"))
	require.NoError(t, p.Flush())

	ser, err := mpserial.GetSerializerFrom[Point](ctx)
	require.NoError(t, err)
	out, err := ser.UnpackSingleObject(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2, N: "a"}, out)
}

type Required struct {
	Name string `msgpack:"Name,nilprohibit"`
}

func TestObjectSerializerProhibitMissingRequired(t *testing.T) {
	ctx := mpserial.NewContext()
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	require.NoError(t, p.PackMapHeader(0))
	require.NoError(t, p.Flush())

	ser, err := mpserial.GetSerializerFrom[Required](ctx)
	require.NoError(t, err)
	_, err = ser.UnpackSingleObject(buf.Bytes())
	assert.ErrorIs(t, err, mpserial.ErrMissingRequiredValue)
}

// Reordered declares Second before First but pins First to array-shape
// index 0: array shape must follow the index tag while map shape keeps
// following source declaration order.
type Reordered struct {
	Second int32 `msgpack:"Second,index=1"`
	First  int32 `msgpack:"First,index=0"`
}

func TestObjectSerializerArrayShapeFollowsIndexTagNotDeclarationOrder(t *testing.T) {
	ctx := mpserial.NewContext()
	ctx.DefaultMethod = mpserial.MethodArray

	b := packedValue(t, ctx, Reordered{Second: 2, First: 1})

	u := mpcodec.NewUnpacker(bytes.NewReader(b), 0)
	_, err := u.Read()
	require.NoError(t, err)
	require.True(t, u.IsArrayHeader())
	require.Equal(t, 2, u.ItemsCount())

	sub, err := u.ReadSubtree()
	require.NoError(t, err)
	assert.Equal(t, int64(1), sub.LastReadData().AsInt())
	require.NoError(t, sub.Close())

	sub, err = u.ReadSubtree()
	require.NoError(t, err)
	assert.Equal(t, int64(2), sub.LastReadData().AsInt())
	require.NoError(t, sub.Close())
}

func TestObjectSerializerMapShapeFollowsDeclarationOrder(t *testing.T) {
	ctx := mpserial.NewContext() // default MethodMap

	b := packedValue(t, ctx, Reordered{Second: 2, First: 1})

	u := mpcodec.NewUnpacker(bytes.NewReader(b), 0)
	_, err := u.Read()
	require.NoError(t, err)
	require.True(t, u.IsMapHeader())

	keySub, err := u.ReadSubtree()
	require.NoError(t, err)
	firstKey, kerr := keySub.LastReadData().AsString().StringErr()
	require.NoError(t, kerr)
	require.NoError(t, keySub.Close())
	assert.Equal(t, "Second", firstKey, "map shape emits in declaration order regardless of index tag")
}

type Node struct {
	Value int32 `msgpack:"Value"`
	Next  *Node `msgpack:"Next"`
}

func TestObjectSerializerSelfReferentialType(t *testing.T) {
	ctx := mpserial.NewContext()
	b := packedValue(t, ctx, Node{Value: 1, Next: &Node{Value: 2}})

	ser, err := mpserial.GetSerializerFrom[Node](ctx)
	require.NoError(t, err)
	out, err := ser.UnpackSingleObject(b)
	require.NoError(t, err)
	require.NotNil(t, out.Next)
	assert.Equal(t, int32(1), out.Value)
	assert.Equal(t, int32(2), out.Next.Value)
	assert.Nil(t, out.Next.Next)
}
