package mpserial

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
	"github.com/yatagarasu25/msgpack-cli/mpobject"
)

var objectType = reflect.TypeOf(mpobject.Object{})
var byteSliceType = reflect.TypeOf([]byte(nil))

// buildBuiltin recognizes the "known shapes" step of the protocol:
// primitives, strings, byte slices, slices, maps, fixed-size arrays
// (tuples), pointers (nullable wrapper), and the dynamic MessagePack
// value itself. Anything else falls through to the reflective
// aggregate builder.
func (c *Context) buildBuiltin(t reflect.Type, trace *buildTrace) (Serializer, bool) {
	switch {
	case t == objectType:
		return newDynamicSerializer(), true

	case t == byteSliceType:
		return newBytesSerializer(), true

	case t.Kind() == reflect.Bool,
		t.Kind() == reflect.String,
		t.Kind() == reflect.Float32,
		t.Kind() == reflect.Float64:
		if t.PkgPath() == "" {
			return newPrimitiveSerializer(t.Kind()), true
		}

	case isIntegerKind(t.Kind()):
		if t.PkgPath() == "" {
			return newPrimitiveSerializer(t.Kind()), true
		}
		// A named integer type with no registered name table still
		// behaves like a plain integer; one may be registered later.
		return c.buildEnum(t, c.DefaultEnumMethod), true
	}

	switch t.Kind() {
	case reflect.Slice:
		elemSer, err := c.getSerializerTraced(t.Elem(), trace)
		if err != nil {
			return nil, false
		}
		return newSliceSerializer(t, elemSer, c.CollectionItemNilImplication), true

	case reflect.Array:
		elemSer, err := c.getSerializerTraced(t.Elem(), trace)
		if err != nil {
			return nil, false
		}
		return newTupleSerializer(t, elemSer, c.TupleItemNilImplication), true

	case reflect.Map:
		keySer, err := c.getSerializerTraced(t.Key(), trace)
		if err != nil {
			return nil, false
		}
		valSer, err := c.getSerializerTraced(t.Elem(), trace)
		if err != nil {
			return nil, false
		}
		return newMapSerializer(t, keySer, valSer, c.MapKeyNilImplication), true

	case reflect.Ptr:
		elemSer, err := c.getSerializerTraced(t.Elem(), trace)
		if err != nil {
			return nil, false
		}
		return newPointerSerializer(t, elemSer), true
	}

	return nil, false
}

// --- primitives ---

type primitiveSerializer struct {
	base
	kind reflect.Kind
}

func newPrimitiveSerializer(kind reflect.Kind) *primitiveSerializer {
	s := &primitiveSerializer{kind: kind}
	s.base = base{allowsNull: false, self: s}
	return s
}

func (s *primitiveSerializer) PackCore(p *mpcodec.Packer, value any) error {
	rv := reflect.ValueOf(value)
	switch s.kind {
	case reflect.Bool:
		return p.PackBool(rv.Bool())
	case reflect.String:
		return p.PackString(rv.String())
	case reflect.Float32:
		return p.PackFloat32(float32(rv.Float()))
	case reflect.Float64:
		return p.PackFloat64(rv.Float())
	default:
		if isSignedKind(s.kind) {
			return p.PackInt(rv.Int())
		}
		return p.PackUint(rv.Uint())
	}
}

func (s *primitiveSerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	data := u.LastReadData()
	switch s.kind {
	case reflect.Bool:
		return data.AsBool(), nil
	case reflect.String:
		text, err := data.AsString().StringErr()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return text, nil
	case reflect.Float32:
		return data.AsFloat32(), nil
	case reflect.Float64:
		return data.AsFloat64(), nil
	default:
		out := reflect.New(reflectKindType(s.kind)).Elem()
		if isSignedKind(s.kind) {
			out.SetInt(data.AsInt())
		} else {
			out.SetUint(data.AsUint())
		}
		return out.Interface(), nil
	}
}

func reflectKindType(k reflect.Kind) reflect.Type {
	var zero any
	switch k {
	case reflect.Int:
		zero = int(0)
	case reflect.Int8:
		zero = int8(0)
	case reflect.Int16:
		zero = int16(0)
	case reflect.Int32:
		zero = int32(0)
	case reflect.Int64:
		zero = int64(0)
	case reflect.Uint:
		zero = uint(0)
	case reflect.Uint8:
		zero = uint8(0)
	case reflect.Uint16:
		zero = uint16(0)
	case reflect.Uint32:
		zero = uint32(0)
	case reflect.Uint64:
		zero = uint64(0)
	}
	return reflect.TypeOf(zero)
}

// --- []byte ---

type bytesSerializer struct{ base }

func newBytesSerializer() *bytesSerializer {
	s := &bytesSerializer{}
	s.base = base{allowsNull: true, self: s}
	return s
}

func (s *bytesSerializer) PackCore(p *mpcodec.Packer, value any) error {
	return p.PackBinary(value.([]byte))
}

func (s *bytesSerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	data := u.LastReadData()
	if str := data.AsString(); str != nil {
		return str.Bytes(), nil
	}
	return data.AsBinary(), nil
}

// --- slices ---

type sliceSerializer struct {
	base
	t       reflect.Type
	elemSer Serializer
	itemNil NilImplication
}

func newSliceSerializer(t reflect.Type, elemSer Serializer, itemNil NilImplication) *sliceSerializer {
	s := &sliceSerializer{t: t, elemSer: elemSer, itemNil: itemNil}
	s.base = base{allowsNull: true, self: s}
	return s
}

func (s *sliceSerializer) PackCore(p *mpcodec.Packer, value any) error {
	rv := reflect.ValueOf(value)
	if err := p.PackArrayHeader(rv.Len()); err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := s.elemSer.PackTo(p, rv.Index(i).Interface()); err != nil {
			return errors.WithMessagef(err, "index %d", i)
		}
	}
	return nil
}

func (s *sliceSerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	if !u.IsArrayHeader() {
		return nil, errors.WithStack(mpcodec.ErrMessageTypeMismatch)
	}
	n := u.ItemsCount()
	out := reflect.MakeSlice(s.t, n, n)
	for i := 0; i < n; i++ {
		sub, err := u.ReadSubtree()
		if err != nil {
			return nil, err
		}
		val, err := s.elemSer.UnpackFrom(sub)
		sub.Close()
		if err != nil {
			return nil, errors.WithMessagef(err, "index %d", i)
		}
		if err := assignField(out.Index(i), val, s.itemNil); err != nil {
			return nil, errors.WithMessagef(err, "index %d", i)
		}
	}
	return out.Interface(), nil
}

func (s *sliceSerializer) UnpackInto(u *mpcodec.Unpacker, existing any) error {
	ptr := reflect.ValueOf(existing)
	if ptr.Kind() != reflect.Ptr {
		return errors.WithStack(ErrNotSupported)
	}
	if !u.Positioned() {
		if _, err := u.Read(); err != nil {
			return err
		}
	}
	v, err := s.UnpackCore(u)
	if err != nil {
		return err
	}
	ptr.Elem().Set(reflect.ValueOf(v))
	return nil
}

// --- fixed-size arrays ("tuple") ---

type tupleSerializer struct {
	base
	t       reflect.Type
	elemSer Serializer
	itemNil NilImplication
}

func newTupleSerializer(t reflect.Type, elemSer Serializer, itemNil NilImplication) *tupleSerializer {
	s := &tupleSerializer{t: t, elemSer: elemSer, itemNil: itemNil}
	s.base = base{allowsNull: false, self: s}
	return s
}

func (s *tupleSerializer) PackCore(p *mpcodec.Packer, value any) error {
	rv := reflect.ValueOf(value)
	n := rv.Len()
	if err := p.PackArrayHeader(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := s.elemSer.PackTo(p, rv.Index(i).Interface()); err != nil {
			return errors.WithMessagef(err, "index %d", i)
		}
	}
	return nil
}

func (s *tupleSerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	if !u.IsArrayHeader() {
		return nil, errors.WithStack(mpcodec.ErrMessageTypeMismatch)
	}
	n := u.ItemsCount()
	out := reflect.New(s.t).Elem()
	for i := 0; i < n && i < out.Len(); i++ {
		sub, err := u.ReadSubtree()
		if err != nil {
			return nil, err
		}
		val, err := s.elemSer.UnpackFrom(sub)
		sub.Close()
		if err != nil {
			return nil, errors.WithMessagef(err, "index %d", i)
		}
		if err := assignField(out.Index(i), val, s.itemNil); err != nil {
			return nil, errors.WithMessagef(err, "index %d", i)
		}
	}
	for i := out.Len(); i < n; i++ {
		sub, err := u.ReadSubtree()
		if err != nil {
			return nil, err
		}
		sub.Close()
	}
	return out.Interface(), nil
}

// --- maps ---

type mapSerializer struct {
	base
	t       reflect.Type
	keySer  Serializer
	valSer  Serializer
	keyNil  NilImplication
}

func newMapSerializer(t reflect.Type, keySer, valSer Serializer, keyNil NilImplication) *mapSerializer {
	s := &mapSerializer{t: t, keySer: keySer, valSer: valSer, keyNil: keyNil}
	s.base = base{allowsNull: true, self: s}
	return s
}

func (s *mapSerializer) PackCore(p *mpcodec.Packer, value any) error {
	rv := reflect.ValueOf(value)
	if err := p.PackMapHeader(rv.Len()); err != nil {
		return err
	}
	iter := rv.MapRange()
	for iter.Next() {
		if err := s.keySer.PackTo(p, iter.Key().Interface()); err != nil {
			return err
		}
		if err := s.valSer.PackTo(p, iter.Value().Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (s *mapSerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	if !u.IsMapHeader() {
		return nil, errors.WithStack(mpcodec.ErrMessageTypeMismatch)
	}
	n := u.ItemsCount()
	out := reflect.MakeMapWithSize(s.t, n)
	for i := 0; i < n; i++ {
		keySub, err := u.ReadSubtree()
		if err != nil {
			return nil, err
		}
		keyVal, err := s.keySer.UnpackFrom(keySub)
		keySub.Close()
		if err != nil {
			return nil, err
		}
		keyRV := reflect.New(s.t.Key()).Elem()
		if keyVal == nil {
			if s.keyNil == Prohibit {
				return nil, errors.WithStack(ErrMissingRequiredValue)
			}
		} else {
			keyRV.Set(reflect.ValueOf(keyVal))
		}

		valSub, err := u.ReadSubtree()
		if err != nil {
			return nil, err
		}
		val, err := s.valSer.UnpackFrom(valSub)
		valSub.Close()
		if err != nil {
			return nil, err
		}
		valRV := reflect.New(s.t.Elem()).Elem()
		if val != nil {
			valRV.Set(reflect.ValueOf(val))
		}
		out.SetMapIndex(keyRV, valRV)
	}
	return out.Interface(), nil
}

func (s *mapSerializer) UnpackInto(u *mpcodec.Unpacker, existing any) error {
	ptr := reflect.ValueOf(existing)
	if ptr.Kind() != reflect.Ptr {
		return errors.WithStack(ErrNotSupported)
	}
	if !u.Positioned() {
		if _, err := u.Read(); err != nil {
			return err
		}
	}
	v, err := s.UnpackCore(u)
	if err != nil {
		return err
	}
	ptr.Elem().Set(reflect.ValueOf(v))
	return nil
}

// --- pointers (nullable wrapper) ---

type pointerSerializer struct {
	base
	t       reflect.Type
	elemSer Serializer
}

func newPointerSerializer(t reflect.Type, elemSer Serializer) *pointerSerializer {
	s := &pointerSerializer{t: t, elemSer: elemSer}
	s.base = base{allowsNull: true, self: s}
	return s
}

func (s *pointerSerializer) PackCore(p *mpcodec.Packer, value any) error {
	rv := reflect.ValueOf(value)
	return s.elemSer.PackTo(p, rv.Elem().Interface())
}

func (s *pointerSerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	val, err := s.elemSer.UnpackFrom(u)
	if err != nil {
		return nil, err
	}
	out := reflect.New(s.t.Elem())
	if val != nil {
		out.Elem().Set(reflect.ValueOf(val))
	}
	return out.Interface(), nil
}
