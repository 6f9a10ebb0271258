package mpcodec

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/philhofer/fwd"

	"github.com/yatagarasu25/msgpack-cli/mpcodes"
	"github.com/yatagarasu25/msgpack-cli/mpobject"
)

// frame tracks one currently-open container: how many more raw
// sub-tokens (2n for a map's key/value pairs, n for an array) remain to
// be read before the container is structurally complete.
type frame struct {
	isMap     bool
	remaining int
}

// Unpacker is a pull-based, forward-only cursor over a MessagePack byte
// source. Read advances one token at a time; after a
// container header, IsArrayHeader/IsMapHeader/ItemsCount describe it and
// the caller either keeps pulling (to flatten into the container) or
// calls ReadSubtree to get a bounded child reader over exactly that one
// structurally-complete value.
type Unpacker struct {
	r     *fwd.Reader
	flags CompatibilityFlags
	stack []frame

	last    mpobject.Object
	lastSet bool

	isHeader     bool
	headerIsMap  bool
	itemsCount   int
	headerOrigin mpcodes.Code
	positioned   bool

	// bounded/boundedDone implement the subtree scoping: a subtree
	// child is created already positioned on its single top value; once
	// that value (whatever its shape) is fully read, further reads on
	// this Unpacker are an overrun.
	bounded     bool
	boundedDone bool
	parent      *Unpacker
}

// NewUnpacker returns an Unpacker reading from r under the given
// compatibility flags. Compatibility flags only affect decode in that
// classic streams never carry the bin family or str8 — the decoder does
// not need to be told this; it simply never encounters those codes.
func NewUnpacker(r io.Reader, flags CompatibilityFlags) *Unpacker {
	fr, ok := r.(*fwd.Reader)
	if !ok {
		fr = fwd.NewReader(r)
	}
	return &Unpacker{r: fr, flags: flags}
}

// Read advances to the next scalar or container header, returning false
// at a clean end of stream (no more bytes, no open container). If this
// Unpacker is a subtree child whose bounded value has already been
// fully consumed, Read returns ErrSubtreeOverrun instead of advancing.
func (u *Unpacker) Read() (bool, error) {
	return u.advance()
}

// MoveToNextEntry consumes the next element of the currently open
// container: a scalar is decoded into LastReadData; a nested container
// is left positioned at its own header (not descended into) and counts
// as a single consumed element of the enclosing container once it is
// itself later fully drained. It is an error to call MoveToNextEntry
// when no container is open.
func (u *Unpacker) MoveToNextEntry() (bool, error) {
	if len(u.stack) == 0 {
		return false, ErrNoActiveContainer
	}
	return u.advance()
}

// IsArrayHeader reports whether the token just read was an array
// header.
func (u *Unpacker) IsArrayHeader() bool { return u.isHeader && !u.headerIsMap }

// IsMapHeader reports whether the token just read was a map header.
func (u *Unpacker) IsMapHeader() bool { return u.isHeader && u.headerIsMap }

// ItemsCount returns the declared length of the container header just
// read (element count for arrays, pair count for maps).
func (u *Unpacker) ItemsCount() int { return u.itemsCount }

// HeaderOrigin returns the wire code of the container header just read,
// for callers that need to preserve the narrowest encoding on repack.
func (u *Unpacker) HeaderOrigin() mpcodes.Code { return u.headerOrigin }

// LastReadData returns the most recently decoded scalar value. It is
// only valid immediately after a Read/MoveToNextEntry that did not
// produce a container header.
func (u *Unpacker) LastReadData() mpobject.Object { return u.last }

// advance decodes exactly one token and applies the container-stack
// bookkeeping: a just-finished container (its remaining children count
// reaching zero) is popped and counted
// as a single consumed element of its own enclosing frame, cascading
// upward as needed.
func (u *Unpacker) advance() (bool, error) {
	if u.bounded && u.boundedDone {
		return false, ErrSubtreeOverrun
	}

	obj, header, err := u.decodeToken()
	if err == io.EOF {
		if len(u.stack) != 0 {
			return false, ErrUnexpectedEndOfStream
		}
		if u.bounded {
			return false, ErrSubtreeOverrun
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if header != nil {
		u.isHeader = true
		u.headerIsMap = header.isMap
		u.itemsCount = header.count
		u.headerOrigin = header.code
		u.lastSet = false
		u.stack = append(u.stack, frame{isMap: header.isMap, remaining: header.raw})
		if header.raw == 0 {
			u.closeFinishedFrames()
		}
	} else {
		u.isHeader = false
		u.last = obj
		u.lastSet = true
		u.consumeOne()
	}

	if u.bounded && len(u.stack) == 0 {
		u.boundedDone = true
	}
	u.positioned = true
	return true, nil
}

// Positioned reports whether this Unpacker has decoded at least one
// token (via Read, MoveToNextEntry, or having been produced by
// ReadSubtree). It turns false again on a top-level Unpacker once its
// outermost container has been fully consumed through subtree readers,
// so the next value of a multi-value stream is read fresh; a top-level
// scalar stays positioned until the next Read. Consumers that may
// receive a freshly constructed or finished Unpacker use this to decide
// whether they must call Read once themselves before inspecting
// header/LastReadData state.
func (u *Unpacker) Positioned() bool { return u.positioned }

// consumeOne decrements the current frame (if any) by one and cascades
// frame completion upward.
func (u *Unpacker) consumeOne() {
	if len(u.stack) == 0 {
		return
	}
	top := len(u.stack) - 1
	u.stack[top].remaining--
	u.closeFinishedFrames()
}

func (u *Unpacker) closeFinishedFrames() {
	for len(u.stack) > 0 && u.stack[len(u.stack)-1].remaining == 0 {
		u.stack = u.stack[:len(u.stack)-1]
		if len(u.stack) > 0 {
			u.stack[len(u.stack)-1].remaining--
		}
	}
}

type headerInfo struct {
	isMap bool
	count int
	raw   int // 2*count for maps, count for arrays: how many raw sub-tokens follow
	code  mpcodes.Code
}

// decodeToken reads one physical token. Scalars (including nil, bool,
// numbers, strings, binaries, and extensions — extensions are
// self-contained once their declared payload is read) are returned as
// an Object; container headers are returned via headerInfo with obj
// left zero.
func (u *Unpacker) decodeToken() (mpobject.Object, *headerInfo, error) {
	b, err := u.r.ReadByte()
	if err != nil {
		return mpobject.Object{}, nil, err
	}
	c := mpcodes.Code(b)

	switch {
	case mpcodes.IsPosFixInt(c):
		return mpobject.Uint(uint64(c), c), nil, nil
	case mpcodes.IsNegFixInt(c):
		return mpobject.Int(int64(int8(c)), c), nil, nil
	case mpcodes.IsFixMap(c):
		n := int(c - mpcodes.FixMapMin)
		return mpobject.Object{}, &headerInfo{isMap: true, count: n, raw: 2 * n, code: c}, nil
	case mpcodes.IsFixArray(c):
		n := int(c - mpcodes.FixArrayMin)
		return mpobject.Object{}, &headerInfo{isMap: false, count: n, raw: n, code: c}, nil
	case mpcodes.IsFixStr(c):
		n := int(c - mpcodes.FixStrMin)
		return u.readStringBody(n, c)
	case c == mpcodes.Nil:
		return mpobject.Nil(), nil, nil
	case c == mpcodes.False:
		return mpobject.Bool(false), nil, nil
	case c == mpcodes.True:
		return mpobject.Bool(true), nil, nil
	case c == mpcodes.Bin8:
		n, err := u.readUint8()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return u.readBinBody(int(n), c)
	case c == mpcodes.Bin16:
		n, err := u.readUint16()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return u.readBinBody(int(n), c)
	case c == mpcodes.Bin32:
		n, err := u.readUint32()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return u.readBinBody(int(n), c)
	case mpcodes.IsFixExt(c):
		n := fixExtLen(c)
		return u.readExtBody(n, c)
	case c == mpcodes.Ext8:
		n, err := u.readUint8()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return u.readExtBody(int(n), c)
	case c == mpcodes.Ext16:
		n, err := u.readUint16()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return u.readExtBody(int(n), c)
	case c == mpcodes.Ext32:
		n, err := u.readUint32()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return u.readExtBody(int(n), c)
	case c == mpcodes.Float32:
		v, err := u.readUint32()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Float32(math.Float32frombits(v)), nil, nil
	case c == mpcodes.Float64:
		v, err := u.readUint64()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Float64(math.Float64frombits(v)), nil, nil
	case c == mpcodes.Uint8:
		v, err := u.readUint8()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Uint(uint64(v), c), nil, nil
	case c == mpcodes.Uint16:
		v, err := u.readUint16()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Uint(uint64(v), c), nil, nil
	case c == mpcodes.Uint32:
		v, err := u.readUint32()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Uint(uint64(v), c), nil, nil
	case c == mpcodes.Uint64:
		v, err := u.readUint64()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Uint(v, c), nil, nil
	case c == mpcodes.Int8:
		v, err := u.readUint8()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Int(int64(int8(v)), c), nil, nil
	case c == mpcodes.Int16:
		v, err := u.readUint16()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Int(int64(int16(v)), c), nil, nil
	case c == mpcodes.Int32:
		v, err := u.readUint32()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Int(int64(int32(v)), c), nil, nil
	case c == mpcodes.Int64:
		v, err := u.readUint64()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Int(int64(v), c), nil, nil
	case c == mpcodes.Str8:
		n, err := u.readUint8()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return u.readStringBody(int(n), c)
	case c == mpcodes.Str16:
		n, err := u.readUint16()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return u.readStringBody(int(n), c)
	case c == mpcodes.Str32:
		n, err := u.readUint32()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return u.readStringBody(int(n), c)
	case c == mpcodes.Array16:
		n, err := u.readUint16()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Object{}, &headerInfo{isMap: false, count: int(n), raw: int(n), code: c}, nil
	case c == mpcodes.Array32:
		n, err := u.readUint32()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		if n > maxCollectionItems {
			return mpobject.Object{}, nil, ErrTooLargeCollection
		}
		return mpobject.Object{}, &headerInfo{isMap: false, count: int(n), raw: int(n), code: c}, nil
	case c == mpcodes.Map16:
		n, err := u.readUint16()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		return mpobject.Object{}, &headerInfo{isMap: true, count: int(n), raw: 2 * int(n), code: c}, nil
	case c == mpcodes.Map32:
		n, err := u.readUint32()
		if err != nil {
			return mpobject.Object{}, nil, err
		}
		if n > maxCollectionItems {
			return mpobject.Object{}, nil, ErrTooLargeCollection
		}
		return mpobject.Object{}, &headerInfo{isMap: true, count: int(n), raw: 2 * int(n), code: c}, nil
	default:
		return mpobject.Object{}, nil, ErrInvalidMessagePackStream
	}
}

func fixExtLen(c mpcodes.Code) int {
	switch c {
	case mpcodes.FixExt1:
		return 1
	case mpcodes.FixExt2:
		return 2
	case mpcodes.FixExt4:
		return 4
	case mpcodes.FixExt8:
		return 8
	default:
		return 16
	}
}

func (u *Unpacker) readStringBody(n int, origin mpcodes.Code) (mpobject.Object, *headerInfo, error) {
	b, err := u.readN(n)
	if err != nil {
		return mpobject.Object{}, nil, err
	}
	return mpobject.StringValue(mpobject.NewStringFromBytes(b), origin), nil, nil
}

func (u *Unpacker) readBinBody(n int, origin mpcodes.Code) (mpobject.Object, *headerInfo, error) {
	b, err := u.readN(n)
	if err != nil {
		return mpobject.Object{}, nil, err
	}
	return mpobject.Binary(b, origin), nil, nil
}

func (u *Unpacker) readExtBody(n int, origin mpcodes.Code) (mpobject.Object, *headerInfo, error) {
	tb, err := u.r.ReadByte()
	if err != nil {
		return mpobject.Object{}, nil, ErrUnexpectedEndOfStream
	}
	payload, err := u.readN(n)
	if err != nil {
		return mpobject.Object{}, nil, err
	}
	return mpobject.ExtensionValue(int8(tb), payload, origin), nil, nil
}

func (u *Unpacker) readN(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrInvalidMessagePackStream
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(u.r, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrUnexpectedEndOfStream
		}
		return nil, err
	}
	return b, nil
}

func (u *Unpacker) readUint8() (uint8, error) {
	b, err := u.r.ReadByte()
	if err != nil {
		return 0, ErrUnexpectedEndOfStream
	}
	return b, nil
}

func (u *Unpacker) readUint16() (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(u.r, b[:]); err != nil {
		return 0, ErrUnexpectedEndOfStream
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (u *Unpacker) readUint32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(u.r, b[:]); err != nil {
		return 0, ErrUnexpectedEndOfStream
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (u *Unpacker) readUint64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(u.r, b[:]); err != nil {
		return 0, ErrUnexpectedEndOfStream
	}
	return binary.BigEndian.Uint64(b[:]), nil
}
