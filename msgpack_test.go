package msgpack_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	msgpack "github.com/yatagarasu25/msgpack-cli"
	"github.com/yatagarasu25/msgpack-cli/mpcodec"
)

type Event struct {
	Name string `msgpack:"Name"`
	Code int32  `msgpack:"Code"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := Event{Name: "boot", Code: 7}
	b, err := msgpack.Marshal(in)
	require.NoError(t, err)

	out, err := msgpack.Unmarshal[Event](b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestGetSerializerReusableHandle(t *testing.T) {
	ser, err := msgpack.GetSerializer[Event]()
	require.NoError(t, err)

	b1, err := ser.PackSingleObject(Event{Name: "a", Code: 1})
	require.NoError(t, err)
	b2, err := ser.PackSingleObject(Event{Name: "b", Code: 2})
	require.NoError(t, err)

	v1, err := ser.UnpackSingleObject(b1)
	require.NoError(t, err)
	v2, err := ser.UnpackSingleObject(b2)
	require.NoError(t, err)

	assert.Equal(t, "a", v1.Name)
	assert.Equal(t, "b", v2.Name)
}

func TestEncodeContextMultiValueStream(t *testing.T) {
	ser, err := msgpack.GetSerializer[Event]()
	require.NoError(t, err)

	b, err := msgpack.EncodeContext(0, func(p *mpcodec.Packer) error {
		if err := ser.Pack(p, Event{Name: "first", Code: 1}); err != nil {
			return err
		}
		return ser.Pack(p, Event{Name: "second", Code: 2})
	})
	require.NoError(t, err)

	u := msgpack.NewUnpacker(bytes.NewReader(b), 0)
	first, err := ser.Unpack(u)
	require.NoError(t, err)
	second, err := ser.Unpack(u)
	require.NoError(t, err)

	assert.Equal(t, "first", first.Name)
	assert.Equal(t, "second", second.Name)
}
