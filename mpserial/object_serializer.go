package mpserial

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
)

// arrayShaper lets a struct type opt into array-shape encoding without
// touching the context's global default, the same way encoding/json's
// Marshaler lets a type override the generic path.
type arrayShaper interface {
	MsgpackArrayShape() bool
}

type resolvedMember struct {
	member
	ser Serializer
}

// objectSerializer is the reflective aggregate serializer for struct
// types: it discovers exported fields once, resolves a child
// Serializer per field, and thereafter packs/unpacks every instance of
// the type against that fixed plan.
type objectSerializer struct {
	base
	structType reflect.Type
	members    []resolvedMember // source declaration order — map-shape order
	arrayIdx   []int            // array-shape order: indices into members
	byName     map[string]int   // member name -> index into members
	arrayShape bool
	logger     *logrus.Entry
}

func (c *Context) buildReflective(t reflect.Type, trace *buildTrace) (Serializer, error) {
	structType := t
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() == reflect.Interface {
		// Reached only via a pointer-to-interface member type (a bare
		// interface target is already resolved, or rejected with
		// ErrAbstractType, by Context.build before this is called): the
		// pointer itself can be constructed, but there is nothing to
		// point reflect.New at without a registered concrete type.
		if concrete, ok := c.defaultConcreteType(structType); ok {
			return c.getSerializerTraced(concrete, trace)
		}
		return nil, errors.WithStack(ErrNoDefaultConstructor)
	}
	if structType.Kind() != reflect.Struct {
		return nil, errors.WithStack(ErrNotRegistered)
	}

	shape := c.DefaultMethod == MethodArray
	if proto := reflect.New(structType).Interface(); true {
		if shaper, ok := proto.(arrayShaper); ok {
			shape = shaper.MsgpackArrayShape()
		}
	}

	os := &objectSerializer{
		structType: structType,
		byName:     make(map[string]int),
		arrayShape: shape,
		logger:     c.Logger,
	}
	os.base = base{allowsNull: false, self: os}

	for _, m := range discoverMembers(structType) {
		if m.nilImplication == Null && !admitsNull(m.fieldType) {
			return nil, errors.Wrapf(ErrValueCannotBeNull, "member %q of %s is not nullable", m.name, structType)
		}
		childSer, err := c.getSerializerTraced(m.fieldType, trace)
		if err != nil {
			return nil, errors.WithMessagef(err, "member %q of %s", m.name, structType)
		}
		if m.enumMethod != nil {
			if es, ok := childSer.(*enumSerializer); ok {
				childSer = es.withMethod(*m.enumMethod)
			}
		}
		os.byName[m.name] = len(os.members)
		os.members = append(os.members, resolvedMember{member: m, ser: childSer})
	}

	declMembers := make([]member, len(os.members))
	for i, m := range os.members {
		declMembers[i] = m.member
	}
	os.arrayIdx = arrayOrder(declMembers)

	return os, nil
}

func (s *objectSerializer) PackCore(p *mpcodec.Packer, value any) error {
	rv := reflect.Indirect(reflect.ValueOf(value))
	if s.arrayShape {
		if err := p.PackArrayHeader(len(s.members)); err != nil {
			return err
		}
		for _, idx := range s.arrayIdx {
			m := s.members[idx]
			if err := m.ser.PackTo(p, rv.Field(m.fieldIndex).Interface()); err != nil {
				return errors.WithMessagef(err, "member %q", m.name)
			}
		}
		return nil
	}
	if err := p.PackMapHeader(len(s.members)); err != nil {
		return err
	}
	for _, m := range s.members {
		if err := p.PackString(m.name); err != nil {
			return err
		}
		if err := m.ser.PackTo(p, rv.Field(m.fieldIndex).Interface()); err != nil {
			return errors.WithMessagef(err, "member %q", m.name)
		}
	}
	return nil
}

func (s *objectSerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	ptr := reflect.New(s.structType)
	if err := s.populate(u, ptr); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

func (s *objectSerializer) UnpackInto(u *mpcodec.Unpacker, existing any) error {
	if existing == nil {
		return errors.WithStack(ErrNotSupported)
	}
	ptr := reflect.ValueOf(existing)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return errors.WithStack(ErrNotSupported)
	}
	if !u.Positioned() {
		if _, err := u.Read(); err != nil {
			return err
		}
	}
	return s.populate(u, ptr)
}

func (s *objectSerializer) populate(u *mpcodec.Unpacker, ptr reflect.Value) error {
	elem := ptr.Elem()
	switch {
	case u.IsMapHeader():
		n := u.ItemsCount()
		seen := make([]bool, len(s.members))
		for i := 0; i < n; i++ {
			keySub, err := u.ReadSubtree()
			if err != nil {
				return err
			}
			keyStr, err := keySub.LastReadData().AsString().StringErr()
			keySub.Close()
			if err != nil {
				return errors.WithStack(err)
			}

			valueSub, err := u.ReadSubtree()
			if err != nil {
				return err
			}
			idx, ok := s.byName[keyStr]
			if !ok {
				valueSub.Close()
				if s.logger != nil {
					s.logger.WithField("type", s.structType.String()).
						WithField("key", keyStr).
						Debug("skipping unknown member during unpack")
				}
				continue
			}
			m := s.members[idx]
			val, err := m.ser.UnpackFrom(valueSub)
			valueSub.Close()
			if err != nil {
				return errors.WithMessagef(err, "member %q", m.name)
			}
			if err := assignField(elem.Field(m.fieldIndex), val, m.nilImplication); err != nil {
				return errors.WithMessagef(err, "member %q", m.name)
			}
			seen[idx] = true
		}
		for i, m := range s.members {
			if !seen[i] && m.nilImplication == Prohibit {
				return errors.Wrapf(ErrMissingRequiredValue, "member %q", m.name)
			}
		}
		return nil

	case u.IsArrayHeader():
		n := u.ItemsCount()
		for i := 0; i < n; i++ {
			valueSub, err := u.ReadSubtree()
			if err != nil {
				return err
			}
			if i >= len(s.arrayIdx) {
				// Extra trailing elements beyond the known members are skipped.
				valueSub.Close()
				continue
			}
			m := s.members[s.arrayIdx[i]]
			val, err := m.ser.UnpackFrom(valueSub)
			valueSub.Close()
			if err != nil {
				return errors.WithMessagef(err, "member %q", m.name)
			}
			if err := assignField(elem.Field(m.fieldIndex), val, m.nilImplication); err != nil {
				return errors.WithMessagef(err, "member %q", m.name)
			}
		}
		if n < len(s.arrayIdx) {
			for _, idx := range s.arrayIdx[n:] {
				m := s.members[idx]
				if m.nilImplication == Prohibit {
					return errors.Wrapf(ErrMissingRequiredValue, "member %q", m.name)
				}
			}
		}
		return nil

	default:
		return errors.WithStack(mpcodec.ErrMessageTypeMismatch)
	}
}

// assignField sets field from val, applying policy when val is absent
// (nil, from a nullable child whose wire token was nil).
func assignField(field reflect.Value, val any, policy NilImplication) error {
	if val == nil {
		switch policy {
		case Prohibit:
			return errors.WithStack(ErrMissingRequiredValue)
		case Null, MemberDefault:
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
	}
	rv := reflect.ValueOf(val)
	if rv.Type() != field.Type() && rv.Type().ConvertibleTo(field.Type()) {
		rv = rv.Convert(field.Type())
	}
	field.Set(rv)
	return nil
}
