package mpserial

import (
	"sync"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
)

// lazySerializer stands in for a type's own Serializer while that
// serializer is still being built — the handle a self-referential
// member gets back when its containing type requests itself
// recursively (e.g. a linked-list node holding a *Node field). Every
// call blocks until resolve publishes the real serializer, which by
// construction has already happened by the time any *value* actually
// needs packing or unpacking: building a serializer only walks member
// types, it never packs or unpacks data.
type lazySerializer struct {
	mu    sync.Mutex
	cond  *sync.Cond
	ready bool
	real  Serializer
}

func newLazySerializer() *lazySerializer {
	lz := &lazySerializer{}
	lz.cond = sync.NewCond(&lz.mu)
	return lz
}

func (lz *lazySerializer) resolve(s Serializer) {
	lz.mu.Lock()
	lz.real = s
	lz.ready = true
	lz.mu.Unlock()
	lz.cond.Broadcast()
}

func (lz *lazySerializer) wait() Serializer {
	lz.mu.Lock()
	defer lz.mu.Unlock()
	for !lz.ready {
		lz.cond.Wait()
	}
	return lz.real
}

func (lz *lazySerializer) PackTo(p *mpcodec.Packer, value any) error {
	return lz.wait().PackTo(p, value)
}

func (lz *lazySerializer) UnpackFrom(u *mpcodec.Unpacker) (any, error) {
	return lz.wait().UnpackFrom(u)
}

func (lz *lazySerializer) UnpackInto(u *mpcodec.Unpacker, existing any) error {
	return lz.wait().UnpackInto(u, existing)
}

func (lz *lazySerializer) PackCore(p *mpcodec.Packer, value any) error {
	return lz.wait().PackCore(p, value)
}

func (lz *lazySerializer) UnpackCore(u *mpcodec.Unpacker) (any, error) {
	return lz.wait().UnpackCore(u)
}

func (lz *lazySerializer) AllowsNull() bool {
	return lz.wait().AllowsNull()
}
