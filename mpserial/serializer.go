package mpserial

import (
	"bytes"
	"reflect"

	"github.com/pkg/errors"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
)

// Serializer is the polymorphic per-type encode/decode contract.
// It operates on any so that SerializerRepository can hold
// heterogeneous serializers in one type-keyed map — see Typed[T] for a
// generic, type-safe adapter over this interface.
type Serializer interface {
	// PackTo writes value; if value is nullable-kind and absent, it
	// writes nil instead of delegating to PackCore.
	PackTo(p *mpcodec.Packer, value any) error

	// UnpackFrom reads one value. If the current token is nil and the
	// target admits null, it returns the null/default value; otherwise
	// it fails with ErrValueCannotBeNull.
	UnpackFrom(u *mpcodec.Unpacker) (any, error)

	// UnpackInto decodes into the value existing points to. Slice and
	// map serializers decode a fresh collection and store it through the
	// pointer, replacing the previous slice or map value rather than
	// adding to it; the reflective object serializer sets the fields of
	// the pointed-to struct. A nil existing, or a nil wire token, is not
	// a no-op: it fails like any other mismatched input. Serializers
	// that support none of this fail with ErrNotSupported.
	UnpackInto(u *mpcodec.Unpacker, existing any) error

	// PackCore/UnpackCore are the non-null-handling variants that a
	// generated (non-reflective) serializer overrides directly.
	PackCore(p *mpcodec.Packer, value any) error
	UnpackCore(u *mpcodec.Unpacker) (any, error)

	// AllowsNull reports whether this serializer's target type admits
	// nil/null: any non-value (reference-like) type, any explicitly
	// nullable wrapper, and the dynamic MessagePack value itself.
	AllowsNull() bool
}

// base implements the null-handling envelope (PackTo/UnpackFrom) around
// a concrete serializer's PackCore/UnpackCore: a serializer learns its
// admits-null bit once at construction. Concrete serializers embed base
// and provide PackCore, UnpackCore, and (usually) UnpackInto.
type base struct {
	allowsNull bool
	self       Serializer // set by the embedding constructor to its own outer value
}

func (b *base) AllowsNull() bool { return b.allowsNull }

// UnpackInto is the default for serializers that do not override it.
func (b *base) UnpackInto(u *mpcodec.Unpacker, existing any) error {
	return errors.WithStack(ErrNotSupported)
}

func (b *base) PackTo(p *mpcodec.Packer, value any) error {
	if b.allowsNull && isNilValue(value) {
		return p.PackNil()
	}
	return b.self.PackCore(p, value)
}

func (b *base) UnpackFrom(u *mpcodec.Unpacker) (any, error) {
	if !u.Positioned() {
		if _, err := u.Read(); err != nil {
			return nil, err
		}
	}
	if !u.IsArrayHeader() && !u.IsMapHeader() && u.LastReadData().IsNil() {
		if b.allowsNull {
			return nil, nil
		}
		return nil, errors.WithStack(ErrValueCannotBeNull)
	}
	return b.self.UnpackCore(u)
}

// isNilValue reports whether v is an untyped nil, or a typed nil
// pointer/slice/map/chan/func/interface — the Go analogue of a
// reference-like value that is absent.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// admitsNull decides the "admits null" bit for a reflect.Type: any
// non-value (reference-like) kind, or the dynamic MessagePack value
// type mpobject.Object.
func admitsNull(t reflect.Type) bool {
	if t == objectType {
		return true
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return true
	default:
		return false
	}
}

// Typed adapts a type-erased Serializer to a compile-time-typed facade
// over pack/unpack/pack_single_object/unpack_single_object, keeping a
// type-indexed map of trait-object handles underneath a typed veneer.
type Typed[T any] struct {
	inner Serializer
}

// NewTyped wraps inner for compile-time-typed callers.
func NewTyped[T any](inner Serializer) Typed[T] { return Typed[T]{inner: inner} }

// GetSerializerFrom resolves (building and caching if necessary) the
// Serializer for T against ctx and returns it wrapped in a compile-time-
// typed Typed[T] handle.
func GetSerializerFrom[T any](ctx *Context) (Typed[T], error) {
	var zero T
	s, err := ctx.GetSerializer(reflect.TypeOf(zero))
	if err != nil {
		return Typed[T]{}, err
	}
	return NewTyped[T](s), nil
}

// Pack writes v to p.
func (t Typed[T]) Pack(p *mpcodec.Packer, v T) error {
	return t.inner.PackTo(p, v)
}

// Unpack reads one T from u.
func (t Typed[T]) Unpack(u *mpcodec.Unpacker) (T, error) {
	var zero T
	v, err := t.inner.UnpackFrom(u)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return v.(T), nil
}

// UnpackInto populates existing in place.
func (t Typed[T]) UnpackInto(u *mpcodec.Unpacker, existing T) error {
	return t.inner.UnpackInto(u, existing)
}

// Untyped returns the underlying type-erased Serializer.
func (t Typed[T]) Untyped() Serializer { return t.inner }

// PackSingleObject packs v into a standalone byte slice using the
// default (non-classic) compatibility flags.
func (t Typed[T]) PackSingleObject(v T) ([]byte, error) {
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	if err := t.Pack(p, v); err != nil {
		return nil, err
	}
	if err := p.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnpackSingleObject unpacks a single T from a standalone byte slice.
func (t Typed[T]) UnpackSingleObject(b []byte) (T, error) {
	var zero T
	u := mpcodec.NewUnpacker(bytes.NewReader(b), 0)
	v, err := t.Unpack(u)
	if err != nil {
		return zero, err
	}
	return v, nil
}
