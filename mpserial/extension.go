package mpserial

import (
	"bytes"
	"reflect"
	"sync"

	"github.com/pkg/errors"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
)

// CustomEncoder lets a type bypass both the reflective aggregate
// serializer and the built-in shapes, writing its own extension
// payload directly — the Go analogue of the vendored msgpack library's
// CustomEncoder/RegisterExt pattern.
type CustomEncoder interface {
	EncodeMsgpack(p *mpcodec.Packer) error
}

// CustomDecoder is CustomEncoder's read-side counterpart.
type CustomDecoder interface {
	DecodeMsgpack(u *mpcodec.Unpacker) error
}

var (
	extMu     sync.RWMutex
	extByType = map[reflect.Type]int8{}
	extByByte = map[int8]reflect.Type{}
)

// RegisterExtension associates typeByte with t. t must implement both
// CustomEncoder and CustomDecoder on its pointer receiver. Once
// registered, Context.GetSerializer(t) returns an extensionSerializer
// instead of walking the built-in/reflective path.
func RegisterExtension(typeByte int8, t reflect.Type) {
	extMu.Lock()
	defer extMu.Unlock()
	extByType[t] = typeByte
	extByByte[typeByte] = t
}

func lookupExtensionByType(t reflect.Type) (int8, bool) {
	extMu.RLock()
	defer extMu.RUnlock()
	b, ok := extByType[t]
	return b, ok
}

// extensionSerializer delegates to a type's own CustomEncoder/
// CustomDecoder implementation: the encoded payload is framed with
// Packer.PackExtension, and on decode the Unpacker's extension value
// (LastReadData().AsExtension()) supplies the payload bytes.
type extensionSerializer struct {
	base
	typeByte int8
	t        reflect.Type
}

func newExtensionSerializer(typeByte int8, t reflect.Type) *extensionSerializer {
	s := &extensionSerializer{typeByte: typeByte, t: t}
	s.base = base{allowsNull: true, self: s}
	return s
}

func (s *extensionSerializer) PackCore(p *mpcodec.Packer, value any) error {
	enc, ok := asCustomEncoder(value)
	if !ok {
		return errors.WithStack(ErrNotSupported)
	}
	var buf bytes.Buffer
	inner := mpcodec.NewPacker(&buf, 0)
	if err := enc.EncodeMsgpack(inner); err != nil {
		return err
	}
	if err := inner.Flush(); err != nil {
		return err
	}
	return p.PackExtension(s.typeByte, buf.Bytes())
}

func (s *extensionSerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	ext := u.LastReadData().AsExtension()
	out := reflect.New(s.t)
	dec, ok := out.Interface().(CustomDecoder)
	if !ok {
		return nil, errors.WithStack(ErrNotSupported)
	}
	inner := mpcodec.NewUnpacker(bytes.NewReader(ext.Payload), 0)
	if err := dec.DecodeMsgpack(inner); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}

func asCustomEncoder(value any) (CustomEncoder, bool) {
	if enc, ok := value.(CustomEncoder); ok {
		return enc, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Ptr {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		if enc, ok := ptr.Interface().(CustomEncoder); ok {
			return enc, true
		}
	}
	return nil, false
}
