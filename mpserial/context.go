package mpserial

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
	"github.com/yatagarasu25/msgpack-cli/mpgen"
)

// Context bundles everything the serializer-build protocol needs: the
// type registry, the wire-compatibility dialect, the default shape and
// nil-implication policies new reflective serializers are built with,
// and the set of code-generation backends consulted before falling
// back to reflection.
//
// A Context is safe for concurrent use once constructed; its exported
// policy fields are meant to be set once, before any GetSerializer
// call, and treated as read-only afterward.
type Context struct {
	Compat                       mpcodec.CompatibilityFlags
	DefaultMethod                SerializationMethod
	DefaultEnumMethod            EnumMethod
	CollectionItemNilImplication NilImplication
	MapKeyNilImplication         NilImplication
	TupleItemNilImplication      NilImplication

	// DefaultConcreteTypes maps an interface or abstract type to the
	// concrete type instantiated when unpacking into it directly
	// (no existing instance supplied).
	DefaultConcreteTypes map[reflect.Type]reflect.Type

	// Backends are consulted, in order, before the reflective builder;
	// the first backend reporting ok wins.
	Backends []mpgen.Backend

	Logger *logrus.Entry

	repo *Repository

	mu sync.RWMutex // guards DefaultConcreteTypes after construction
}

// NewContext returns a Context with the documented default policies
// (collection/tuple items default to Null, map keys default to
// Prohibit) and a fresh, empty Repository.
func NewContext() *Context {
	return &Context{
		Compat:                       0,
		DefaultMethod:                MethodMap,
		DefaultEnumMethod:            ByName,
		CollectionItemNilImplication: DefaultCollectionItemNilImplication,
		MapKeyNilImplication:         DefaultMapKeyNilImplication,
		TupleItemNilImplication:      DefaultTupleItemNilImplication,
		DefaultConcreteTypes:         make(map[reflect.Type]reflect.Type),
		repo:                         NewRepository(),
		Logger:                       defaultLogger(),
	}
}

// Repository returns the context's backing type registry.
func (c *Context) Repository() *Repository { return c.repo }

// RegisterDefaultConcreteType records which concrete type to
// instantiate when unpacking directly into iface with no existing
// instance supplied.
func (c *Context) RegisterDefaultConcreteType(iface, concrete reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DefaultConcreteTypes[iface] = concrete
}

// defaultConcreteType looks up the concrete type registered for iface,
// if any.
func (c *Context) defaultConcreteType(iface reflect.Type) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	concrete, ok := c.DefaultConcreteTypes[iface]
	return concrete, ok
}

// buildTrace threads the set of types currently mid-build through a
// single logical GetSerializer call, so that a self-referential type
// discovered while building its own members is recognized as a cycle
// on the same call stack rather than deadlocking inside singleflight
// (which only collapses concurrent callers on *different* goroutines).
type buildTrace struct {
	inProgress map[reflect.Type]*lazySerializer
}

// GetSerializer resolves (building and caching if necessary) the
// Serializer for t, following the five-step protocol: already
// registered, known built-in shape, a code-generation backend,
// reflection, or failure.
func (c *Context) GetSerializer(t reflect.Type) (Serializer, error) {
	return c.getSerializerTraced(t, &buildTrace{inProgress: make(map[reflect.Type]*lazySerializer)})
}

func (c *Context) getSerializerTraced(t reflect.Type, trace *buildTrace) (Serializer, error) {
	key := regKey{t: t}
	if s, ok := c.repo.lookup(key); ok {
		return s, nil
	}
	if lz, ok := trace.inProgress[t]; ok {
		// Step: re-entrant request for a type whose own build is still
		// in flight on this call stack — hand back the delegating
		// placeholder instead of recursing forever.
		return lz, nil
	}

	return c.repo.buildOnce(key, func() (Serializer, error) {
		lz := newLazySerializer()
		trace.inProgress[t] = lz
		defer delete(trace.inProgress, t)

		s, err := c.build(t, trace)
		if err != nil {
			return nil, err
		}
		lz.resolve(s)
		return s, nil
	})
}

// build runs steps 2-4 of the protocol for a type with no existing
// registry entry and no in-flight build on this call stack.
func (c *Context) build(t reflect.Type, trace *buildTrace) (Serializer, error) {
	if typeByte, ok := lookupExtensionByType(t); ok {
		return newExtensionSerializer(typeByte, t), nil
	}
	if s, ok := c.buildBuiltin(t, trace); ok {
		return s, nil
	}
	for _, backend := range c.Backends {
		if raw, ok := backend.Serializer(t); ok {
			if s, ok := raw.(Serializer); ok {
				return s, nil
			}
		}
	}
	if t.Kind() == reflect.Interface {
		// Step 3: an interface or abstract type with no generation
		// backend falls back to its registered default concrete type;
		// with none registered, it cannot be built.
		concrete, ok := c.defaultConcreteType(t)
		if !ok {
			return nil, errors.WithStack(ErrAbstractType)
		}
		return c.getSerializerTraced(concrete, trace)
	}
	return c.buildReflective(t, trace)
}

var (
	defaultContext atomic.Pointer[Context]
	defaultOnce    sync.Once
)

// DefaultContext returns the process-wide default Context, constructing
// one with NewContext on first use.
func DefaultContext() *Context {
	defaultOnce.Do(func() {
		defaultContext.CompareAndSwap(nil, NewContext())
	})
	return defaultContext.Load()
}

// SetDefaultContext atomically replaces the process-wide default
// Context. Existing Typed[T] values built from the previous default
// keep working; only future GetSerializer[T] calls through the package-
// level helpers observe the swap.
func SetDefaultContext(c *Context) {
	defaultOnce.Do(func() {})
	defaultContext.Store(c)
}

func defaultLogger() *logrus.Entry {
	return logrus.StandardLogger().WithField("component", "msgpack")
}
