package mpserial_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
	"github.com/yatagarasu25/msgpack-cli/mpserial"
)

type Color int32

const (
	ColorRed Color = iota
	ColorGreen
	ColorBlue
)

func init() {
	mpserial.RegisterEnumNames(reflect.TypeOf(Color(0)), map[string]int64{
		"Red":   int64(ColorRed),
		"Green": int64(ColorGreen),
		"Blue":  int64(ColorBlue),
	})
}

func TestEnumSerializerByNameRoundTrip(t *testing.T) {
	ctx := mpserial.NewContext()
	ser, err := mpserial.GetSerializerFrom[Color](ctx)
	require.NoError(t, err)

	b, err := ser.PackSingleObject(ColorGreen)
	require.NoError(t, err)

	out, err := ser.UnpackSingleObject(b)
	require.NoError(t, err)
	assert.Equal(t, ColorGreen, out)
}

func TestEnumSerializerByUnderlyingValueRoundTrip(t *testing.T) {
	ctx := mpserial.NewContext()
	ctx.DefaultEnumMethod = mpserial.ByUnderlyingValue
	ser, err := mpserial.GetSerializerFrom[Color](ctx)
	require.NoError(t, err)

	b, err := ser.PackSingleObject(ColorBlue)
	require.NoError(t, err)

	out, err := ser.UnpackSingleObject(b)
	require.NoError(t, err)
	assert.Equal(t, ColorBlue, out)
}

type Unregistered int32

func TestEnumSerializerUnregisteredTypeRoundTripsByValue(t *testing.T) {
	ctx := mpserial.NewContext()
	ser, err := mpserial.GetSerializerFrom[Unregistered](ctx)
	require.NoError(t, err)

	// No name table registered: encoding falls back to underlying value,
	// and the round trip still succeeds numerically.
	b, err := ser.PackSingleObject(Unregistered(3))
	require.NoError(t, err)
	out, err := ser.UnpackSingleObject(b)
	require.NoError(t, err)
	assert.Equal(t, Unregistered(3), out)
}

func TestEnumSerializerUnknownNameTokenFails(t *testing.T) {
	ctx := mpserial.NewContext()
	ser, err := mpserial.GetSerializerFrom[Color](ctx)
	require.NoError(t, err)

	strSer, serr := mpserial.GetSerializerFrom[string](ctx)
	require.NoError(t, serr)
	wire, perr := strSer.PackSingleObject("Purple")
	require.NoError(t, perr)

	_, uerr := ser.UnpackSingleObject(wire)
	assert.ErrorIs(t, uerr, mpserial.ErrUnknownEnumMember)
}

type Badge struct {
	Tint Color `msgpack:"Tint,enumvalue"`
}

func TestEnumSerializerPerFieldMethodOverride(t *testing.T) {
	ctx := mpserial.NewContext() // default method is ByName

	ser, err := mpserial.GetSerializerFrom[Badge](ctx)
	require.NoError(t, err)
	b, err := ser.PackSingleObject(Badge{Tint: ColorBlue})
	require.NoError(t, err)

	out, err := ser.UnpackSingleObject(b)
	require.NoError(t, err)
	assert.Equal(t, ColorBlue, out.Tint)
}

func TestEnumSerializerUnderlyingTypeMismatchFails(t *testing.T) {
	ctx := mpserial.NewContext()
	ser, err := mpserial.GetSerializerFrom[Color](ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	require.NoError(t, p.PackBool(true))
	require.NoError(t, p.Flush())

	_, err = ser.UnpackSingleObject(buf.Bytes())
	assert.ErrorIs(t, err, mpserial.ErrEnumUnderlyingTypeMismatch)
}

func TestEnumSerializerDecodeAutoDetectsIntegerToken(t *testing.T) {
	ctx := mpserial.NewContext()
	ctx.DefaultEnumMethod = mpserial.ByUnderlyingValue
	ser, err := mpserial.GetSerializerFrom[Color](ctx)
	require.NoError(t, err)

	b, err := ser.PackSingleObject(ColorRed)
	require.NoError(t, err)

	// Decode with a context defaulting to ByName: decode auto-detects the
	// wire token kind rather than trusting the configured method.
	byName := mpserial.NewContext()
	serByName, err := mpserial.GetSerializerFrom[Color](byName)
	require.NoError(t, err)
	out, err := serByName.UnpackSingleObject(b)
	require.NoError(t, err)
	assert.Equal(t, ColorRed, out)
}
