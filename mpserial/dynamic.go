package mpserial

import (
	"github.com/pkg/errors"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
	"github.com/yatagarasu25/msgpack-cli/mpobject"
)

// dynamicSerializer is the built-in shape for mpobject.Object itself:
// callers who do not know a value's wire schema statically get back
// (or pass in) the dynamic tagged union directly, recursively packing
// or unpacking whatever shape is actually on the wire.
type dynamicSerializer struct{ base }

func newDynamicSerializer() *dynamicSerializer {
	s := &dynamicSerializer{}
	s.base = base{allowsNull: true, self: s}
	return s
}

func (s *dynamicSerializer) PackCore(p *mpcodec.Packer, value any) error {
	return packObject(p, value.(mpobject.Object))
}

func packObject(p *mpcodec.Packer, obj mpobject.Object) error {
	switch obj.Kind {
	case mpobject.KindNil:
		return p.PackNil()
	case mpobject.KindBool:
		return p.PackBool(obj.AsBool())
	case mpobject.KindUint:
		return p.PackUint(obj.AsUint())
	case mpobject.KindInt:
		return p.PackInt(obj.AsInt())
	case mpobject.KindFloat32:
		return p.PackFloat32(obj.AsFloat32())
	case mpobject.KindFloat64:
		return p.PackFloat64(obj.AsFloat64())
	case mpobject.KindString:
		return p.PackString(string(obj.AsString().Bytes()))
	case mpobject.KindBinary:
		return p.PackBinary(obj.AsBinary())
	case mpobject.KindArray:
		items := obj.AsArray()
		if err := p.PackArrayHeader(len(items)); err != nil {
			return err
		}
		for _, item := range items {
			if err := packObject(p, item); err != nil {
				return err
			}
		}
		return nil
	case mpobject.KindMap:
		pairs := obj.AsMap()
		if err := p.PackMapHeader(len(pairs)); err != nil {
			return err
		}
		for _, kv := range pairs {
			if err := packObject(p, kv.Key); err != nil {
				return err
			}
			if err := packObject(p, kv.Value); err != nil {
				return err
			}
		}
		return nil
	case mpobject.KindExtension:
		ext := obj.AsExtension()
		return p.PackExtension(ext.TypeByte, ext.Payload)
	default:
		return errors.WithStack(ErrNotSupported)
	}
}

func (s *dynamicSerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	return readObject(u)
}

func readObject(u *mpcodec.Unpacker) (mpobject.Object, error) {
	if u.IsArrayHeader() {
		n := u.ItemsCount()
		items := make([]mpobject.Object, n)
		for i := 0; i < n; i++ {
			sub, err := u.ReadSubtree()
			if err != nil {
				return mpobject.Object{}, err
			}
			item, err := readObject(sub)
			sub.Close()
			if err != nil {
				return mpobject.Object{}, err
			}
			items[i] = item
		}
		return mpobject.Array(items, u.HeaderOrigin()), nil
	}
	if u.IsMapHeader() {
		n := u.ItemsCount()
		pairs := make([]mpobject.KeyValue, n)
		for i := 0; i < n; i++ {
			keySub, err := u.ReadSubtree()
			if err != nil {
				return mpobject.Object{}, err
			}
			key, err := readObject(keySub)
			keySub.Close()
			if err != nil {
				return mpobject.Object{}, err
			}
			valSub, err := u.ReadSubtree()
			if err != nil {
				return mpobject.Object{}, err
			}
			val, err := readObject(valSub)
			valSub.Close()
			if err != nil {
				return mpobject.Object{}, err
			}
			pairs[i] = mpobject.KeyValue{Key: key, Value: val}
		}
		return mpobject.Map(pairs, u.HeaderOrigin()), nil
	}
	return u.LastReadData(), nil
}
