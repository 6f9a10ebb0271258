package mpserial

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// regKey identifies one repository slot: a type plus an optional
// provider parameter. Every key built in this package leaves param nil;
// per-field enum-method overrides are shallow clones held by the owning
// object serializer and are not stored in the repository.
type regKey struct {
	t      reflect.Type
	param  any
}

func (k regKey) String() string {
	return fmt.Sprintf("%s#%v", k.t.String(), k.param)
}

// Repository is the type-keyed registry: a
// many-reader/single-writer map from a type (plus provider param) to
// its Serializer, with re-entrant-safe first-build collapsing.
//
// The map itself is a sync.Map (many-reader, CAS-style writes); cross-
// goroutine first-builder collapsing for the *same* key is delegated to
// singleflight.Group (golang.org/x/sync). singleflight alone cannot tell a
// recursive, same-goroutine call for a self-referential type apart from
// a genuinely concurrent one — that distinction is the buildTrace
// threaded explicitly through the build protocol in context.go.
type Repository struct {
	entries sync.Map // regKey -> Serializer
	group   singleflight.Group
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{}
}

// lookup returns the serializer registered for key, if any.
func (r *Repository) lookup(key regKey) (Serializer, bool) {
	v, ok := r.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.(Serializer), true
}

// buildOnce runs build (the full build protocol for key) collapsed
// across concurrent first-requesters via singleflight, then publishes
// the result. If the entry was registered by a concurrent winner while
// this call was building (a direct registration outside singleflight
// via RegisterBuilt), that winner is returned
// instead.
func (r *Repository) buildOnce(key regKey, build func() (Serializer, error)) (Serializer, error) {
	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		if s, ok := r.lookup(key); ok {
			return s, nil
		}
		s, err := build()
		if err != nil {
			return nil, err
		}
		actual, _ := r.entries.LoadOrStore(key, s)
		return actual.(Serializer), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Serializer), nil
}

// RegisterBuilt publishes a precomputed serializer for t directly,
// bypassing the build protocol. This is the bulk-registration entry
// point external code-generation glue calls: it
// never overwrites an existing entry for the same key, matching the
// invariant that a published serializer is never replaced.
func (r *Repository) RegisterBuilt(t reflect.Type, s Serializer) {
	r.entries.LoadOrStore(regKey{t: t}, s)
}
