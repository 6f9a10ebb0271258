package mpcodec

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/philhofer/fwd"

	"github.com/yatagarasu25/msgpack-cli/mpcodes"
)

// Packer is a stateless, forward-only writer over the MessagePack byte
// grammar. It holds only the destination sink and the compatibility
// flags chosen for its lifetime; callers wanting independent dialects on
// the same underlying stream create independent Packers, coordinating
// their own locking; interleaving writes from two Packers on one sink
// without synchronization is the caller's problem.
type Packer struct {
	w     *fwd.Writer
	flags CompatibilityFlags
	buf   [9]byte // scratch for header + width encoding
}

// NewPacker returns a Packer writing to w under the given compatibility
// flags.
func NewPacker(w io.Writer, flags CompatibilityFlags) *Packer {
	fw, ok := w.(*fwd.Writer)
	if !ok {
		fw = fwd.NewWriter(w)
	}
	return &Packer{w: fw, flags: flags}
}

// Flush writes any buffered bytes to the underlying sink.
func (p *Packer) Flush() error { return p.w.Flush() }

func (p *Packer) writeByte(b byte) error { return p.w.WriteByte(b) }

func (p *Packer) write(b []byte) error {
	_, err := p.w.Write(b)
	return err
}

// PackNil writes the nil token.
func (p *Packer) PackNil() error { return p.writeByte(byte(mpcodes.Nil)) }

// PackBool writes a bool token.
func (p *Packer) PackBool(b bool) error {
	if b {
		return p.writeByte(byte(mpcodes.True))
	}
	return p.writeByte(byte(mpcodes.False))
}

// PackInt writes i using the narrowest signed form that fits, choosing
// among {fixint, int8/16/32/64, uint8/16/32/64} — a non-negative value
// is always offered the unsigned family too, since it is strictly
// narrower or equal there.
func (p *Packer) PackInt(i int64) error {
	if i >= 0 {
		return p.PackUint(uint64(i))
	}
	switch {
	case i >= -32:
		return p.writeByte(byte(int8(i)))
	case i >= math.MinInt8:
		return p.writeHeaderAndByte(mpcodes.Int8, byte(int8(i)))
	case i >= math.MinInt16:
		return p.writeHeaderAndUint16(mpcodes.Int16, uint16(int16(i)))
	case i >= math.MinInt32:
		return p.writeHeaderAndUint32(mpcodes.Int32, uint32(int32(i)))
	default:
		return p.writeHeaderAndUint64(mpcodes.Int64, uint64(i))
	}
}

// PackUint writes i using the narrowest unsigned form that fits.
func (p *Packer) PackUint(i uint64) error {
	switch {
	case i <= uint64(mpcodes.PosFixIntMax):
		return p.writeByte(byte(i))
	case i <= math.MaxUint8:
		return p.writeHeaderAndByte(mpcodes.Uint8, byte(i))
	case i <= math.MaxUint16:
		return p.writeHeaderAndUint16(mpcodes.Uint16, uint16(i))
	case i <= math.MaxUint32:
		return p.writeHeaderAndUint32(mpcodes.Uint32, uint32(i))
	default:
		return p.writeHeaderAndUint64(mpcodes.Uint64, i)
	}
}

// PackFloat32 writes a single-precision float token.
func (p *Packer) PackFloat32(f float32) error {
	return p.writeHeaderAndUint32(mpcodes.Float32, math.Float32bits(f))
}

// PackFloat64 writes a double-precision float token.
func (p *Packer) PackFloat64(f float64) error {
	return p.writeHeaderAndUint64(mpcodes.Float64, math.Float64bits(f))
}

// PackString encodes text as UTF-8 and writes a string header followed
// by the bytes. str8 is only used when the compatibility flags permit
// it; classic mode shares the raw family with PackBinary.
func (p *Packer) PackString(text string) error {
	return p.packRaw([]byte(text), true)
}

// PackBinary writes bytes using the bin family, or (in classic mode, or
// with PackBinaryAsRaw set) falls back to a string header.
func (p *Packer) PackBinary(b []byte) error {
	if p.flags.BinaryAsRaw() {
		return p.packRaw(b, true)
	}
	return p.packBin(b)
}

func (p *Packer) packRaw(b []byte, allowStr8 bool) error {
	n := len(b)
	switch {
	case n <= 31:
		if err := p.writeByte(byte(mpcodes.FixStrMin) | byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint8 && allowStr8 && p.flags.AllowsStr8():
		if err := p.writeHeaderAndByte(mpcodes.Str8, byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint16:
		if err := p.writeHeaderAndUint16(mpcodes.Str16, uint16(n)); err != nil {
			return err
		}
	default:
		if err := p.writeHeaderAndUint32(mpcodes.Str32, uint32(n)); err != nil {
			return err
		}
	}
	return p.write(b)
}

func (p *Packer) packBin(b []byte) error {
	n := len(b)
	switch {
	case n <= math.MaxUint8:
		if err := p.writeHeaderAndByte(mpcodes.Bin8, byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint16:
		if err := p.writeHeaderAndUint16(mpcodes.Bin16, uint16(n)); err != nil {
			return err
		}
	default:
		if err := p.writeHeaderAndUint32(mpcodes.Bin32, uint32(n)); err != nil {
			return err
		}
	}
	return p.write(b)
}

// PackArrayHeader writes a length prefix for an array of n items. The
// caller must emit exactly n values afterwards.
func (p *Packer) PackArrayHeader(n int) error {
	switch {
	case n < 0:
		return ErrInvalidMessagePackStream
	case n <= 15:
		return p.writeByte(byte(mpcodes.FixArrayMin) | byte(n))
	case n <= math.MaxUint16:
		return p.writeHeaderAndUint16(mpcodes.Array16, uint16(n))
	default:
		return p.writeHeaderAndUint32(mpcodes.Array32, uint32(n))
	}
}

// PackMapHeader writes a length prefix for a map of n pairs. The caller
// must emit exactly 2n values afterwards (key, value, key, value, ...).
func (p *Packer) PackMapHeader(n int) error {
	switch {
	case n < 0:
		return ErrInvalidMessagePackStream
	case n <= 15:
		return p.writeByte(byte(mpcodes.FixMapMin) | byte(n))
	case n <= math.MaxUint16:
		return p.writeHeaderAndUint16(mpcodes.Map16, uint16(n))
	default:
		return p.writeHeaderAndUint32(mpcodes.Map32, uint32(n))
	}
}

// PackExtensionHeader writes an ext-family header for n payload bytes
// tagged with typeByte; the caller writes the n bytes itself.
func (p *Packer) PackExtensionHeader(typeByte int8, n int) error {
	switch {
	case n == 1:
		return p.writeHeaderAndByte(mpcodes.FixExt1, byte(typeByte))
	case n == 2:
		return p.writeHeaderAndByte(mpcodes.FixExt2, byte(typeByte))
	case n == 4:
		return p.writeHeaderAndByte(mpcodes.FixExt4, byte(typeByte))
	case n == 8:
		return p.writeHeaderAndByte(mpcodes.FixExt8, byte(typeByte))
	case n == 16:
		return p.writeHeaderAndByte(mpcodes.FixExt16, byte(typeByte))
	case n <= math.MaxUint8:
		if err := p.writeHeaderAndByte(mpcodes.Ext8, byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint16:
		if err := p.writeHeaderAndUint16(mpcodes.Ext16, uint16(n)); err != nil {
			return err
		}
	default:
		if err := p.writeHeaderAndUint32(mpcodes.Ext32, uint32(n)); err != nil {
			return err
		}
	}
	return p.writeByte(byte(typeByte))
}

// PackExtension writes a complete extension value: header plus payload.
func (p *Packer) PackExtension(typeByte int8, payload []byte) error {
	if err := p.PackExtensionHeader(typeByte, len(payload)); err != nil {
		return err
	}
	return p.write(payload)
}

func (p *Packer) writeHeaderAndByte(code mpcodes.Code, b byte) error {
	p.buf[0], p.buf[1] = byte(code), b
	return p.write(p.buf[:2])
}

func (p *Packer) writeHeaderAndUint16(code mpcodes.Code, v uint16) error {
	p.buf[0] = byte(code)
	binary.BigEndian.PutUint16(p.buf[1:3], v)
	return p.write(p.buf[:3])
}

func (p *Packer) writeHeaderAndUint32(code mpcodes.Code, v uint32) error {
	p.buf[0] = byte(code)
	binary.BigEndian.PutUint32(p.buf[1:5], v)
	return p.write(p.buf[:5])
}

func (p *Packer) writeHeaderAndUint64(code mpcodes.Code, v uint64) error {
	p.buf[0] = byte(code)
	binary.BigEndian.PutUint64(p.buf[1:9], v)
	return p.write(p.buf[:9])
}
