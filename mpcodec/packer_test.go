package mpcodec_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
)

func packed(t *testing.T, flags mpcodec.CompatibilityFlags, f func(p *mpcodec.Packer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, flags)
	require.NoError(t, f(p))
	require.NoError(t, p.Flush())
	return buf.Bytes()
}

func TestPackNarrowestInt(t *testing.T) {
	cases := []struct {
		name string
		in   int64
		want []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"posfix max", 127, []byte{0x7f}},
		{"uint8", 128, []byte{0xcc, 0x80}},
		{"uint16", 256, []byte{0xcd, 0x01, 0x00}},
		{"uint32", 70000, []byte{0xce, 0x00, 0x01, 0x11, 0x70}},
		{"negfix min", -32, []byte{0xe0}},
		{"int8", -33, []byte{0xd0, 0xdf}},
		{"int16", -1000, []byte{0xd1, 0xfc, 0x18}},
		{"int64", -9223372036854775808, []byte{0xd3, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := packed(t, 0, func(p *mpcodec.Packer) error { return p.PackInt(c.in) })
			assert.Equal(t, c.want, got)
		})
	}
}

func TestPackUintNarrowest(t *testing.T) {
	got := packed(t, 0, func(p *mpcodec.Packer) error { return p.PackUint(18446744073709551615) })
	assert.Equal(t, []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, got)
}

func TestPackNilAndBool(t *testing.T) {
	assert.Equal(t, []byte{0xc0}, packed(t, 0, func(p *mpcodec.Packer) error { return p.PackNil() }))
	assert.Equal(t, []byte{0xc2}, packed(t, 0, func(p *mpcodec.Packer) error { return p.PackBool(false) }))
	assert.Equal(t, []byte{0xc3}, packed(t, 0, func(p *mpcodec.Packer) error { return p.PackBool(true) }))
}

func TestPackStringFixAndWide(t *testing.T) {
	got := packed(t, 0, func(p *mpcodec.Packer) error { return p.PackString("hi") })
	assert.Equal(t, []byte{0xa2, 'h', 'i'}, got)

	long := string(bytes.Repeat([]byte("a"), 32))
	got = packed(t, 0, func(p *mpcodec.Packer) error { return p.PackString(long) })
	assert.Equal(t, byte(0xd9), got[0])
	assert.Equal(t, byte(32), got[1])
}

// A single-byte raw payload packs differently depending on compatibility
// mode.
func TestPackBinaryCompatibilityModes(t *testing.T) {
	classic := packed(t, mpcodec.PackRawCompatible, func(p *mpcodec.Packer) error {
		return p.PackBinary([]byte{0x41})
	})
	assert.Equal(t, []byte{0xa1, 0x41}, classic)

	modern := packed(t, 0, func(p *mpcodec.Packer) error {
		return p.PackBinary([]byte{0x41})
	})
	assert.Equal(t, []byte{0xc4, 0x01, 0x41}, modern)
}

func TestPackArrayAndMapHeaders(t *testing.T) {
	got := packed(t, 0, func(p *mpcodec.Packer) error { return p.PackArrayHeader(1) })
	assert.Equal(t, []byte{0x91}, got)

	got = packed(t, 0, func(p *mpcodec.Packer) error { return p.PackMapHeader(1) })
	assert.Equal(t, []byte{0x81}, got)

	got = packed(t, 0, func(p *mpcodec.Packer) error { return p.PackArrayHeader(16) })
	assert.Equal(t, []byte{0xdc, 0x00, 0x10}, got)
}

// { Val = [0x41] } in map shape, with the byte-array field under classic
// compatibility (raw family), matching the classic-mode byte sequence
// used elsewhere for the same field.
func TestScenarioMapShapeRecord(t *testing.T) {
	got := packed(t, mpcodec.PackRawCompatible, func(p *mpcodec.Packer) error {
		if err := p.PackMapHeader(1); err != nil {
			return err
		}
		if err := p.PackString("Val"); err != nil {
			return err
		}
		if err := p.PackArrayHeader(1); err != nil {
			return err
		}
		return p.PackBinary([]byte{0x41})
	})
	want := []byte{0x81, 0xa3, 'V', 'a', 'l', 0x91, 0xa1, 0x41}
	assert.Equal(t, want, got)
}

func TestPackExtension(t *testing.T) {
	got := packed(t, 0, func(p *mpcodec.Packer) error {
		return p.PackExtension(9, []byte{0x01})
	})
	assert.Equal(t, []byte{0xd4, 0x09, 0x01}, got)
}
