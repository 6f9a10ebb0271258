package mpserial

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
	"github.com/yatagarasu25/msgpack-cli/mpobject"
)

// enumNames is a package-wide registry of name<->value tables for enum
// types, keyed by reflect.Type. Go erases constant identifiers at
// compile time, so ByName support for a given enum type only exists
// once its names have been registered explicitly via RegisterEnumNames
// — generated code is the expected caller.
var (
	enumNamesMu sync.RWMutex
	enumNames   = map[reflect.Type]map[string]int64{}
	enumValues  = map[reflect.Type]map[int64]string{}
)

// RegisterEnumNames records the name table for an enum type so its
// serializer can use EnumMethod.ByName. names maps each constant's
// declared name to its underlying integer value.
func RegisterEnumNames(t reflect.Type, names map[string]int64) {
	values := make(map[int64]string, len(names))
	for name, v := range names {
		values[v] = name
	}
	enumNamesMu.Lock()
	defer enumNamesMu.Unlock()
	enumNames[t] = names
	enumValues[t] = values
}

func lookupEnumNames(t reflect.Type) (map[string]int64, map[int64]string, bool) {
	enumNamesMu.RLock()
	defer enumNamesMu.RUnlock()
	n, ok := enumNames[t]
	if !ok {
		return nil, nil, false
	}
	return n, enumValues[t], true
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func isSignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

// enumSerializer handles any named type whose underlying kind is an
// integer, packing by name when a name table is registered and the
// requested method is ByName, and by underlying value otherwise.
// Decoding auto-detects from the wire token: a string token decodes
// through the name table, any integer token sets the underlying value
// directly.
type enumSerializer struct {
	base
	t      reflect.Type
	method EnumMethod
}

func (c *Context) buildEnum(t reflect.Type, method EnumMethod) Serializer {
	es := &enumSerializer{t: t, method: method}
	es.base = base{allowsNull: false, self: es}
	return es
}

// withMethod returns a shallow clone of this serializer using method
// instead of its current one, for a per-field enum method override.
func (s *enumSerializer) withMethod(method EnumMethod) Serializer {
	clone := *s
	clone.base = base{allowsNull: s.allowsNull, self: &clone}
	clone.method = method
	return &clone
}

func (s *enumSerializer) PackCore(p *mpcodec.Packer, value any) error {
	rv := reflect.ValueOf(value)
	if s.method == ByName {
		if _, values, ok := lookupEnumNames(s.t); ok {
			var iv int64
			if isSignedKind(rv.Kind()) {
				iv = rv.Int()
			} else {
				iv = int64(rv.Uint())
			}
			if name, ok := values[iv]; ok {
				return p.PackString(name)
			}
		}
	}
	if isSignedKind(rv.Kind()) {
		return p.PackInt(rv.Int())
	}
	return p.PackUint(rv.Uint())
}

func (s *enumSerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	data := u.LastReadData()
	out := reflect.New(s.t).Elem()

	if str := data.AsString(); str != nil {
		// Wire token is a string: decode through the registered name
		// table regardless of the requested method.
		name, err := str.StringErr()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		names, _, ok := lookupEnumNames(s.t)
		if !ok {
			return nil, errors.WithStack(ErrUnknownEnumMember)
		}
		iv, ok := names[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownEnumMember, "%q", name)
		}
		setEnumInt(out, iv)
		return out.Interface(), nil
	}

	if data.Kind != mpobject.KindUint && data.Kind != mpobject.KindInt {
		return nil, errors.WithStack(ErrEnumUnderlyingTypeMismatch)
	}
	if isSignedKind(out.Kind()) {
		setEnumInt(out, data.AsInt())
	} else {
		out.SetUint(data.AsUint())
	}
	return out.Interface(), nil
}

func setEnumInt(out reflect.Value, iv int64) {
	if isSignedKind(out.Kind()) {
		out.SetInt(iv)
	} else {
		out.SetUint(uint64(iv))
	}
}
