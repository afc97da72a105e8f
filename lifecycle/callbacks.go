package lifecycle

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/benbjohnson/immutable"
)

// watchKey identifies one registration. A caller holds at most one handler
// per (kind, node).
type watchKey struct {
	kind   Kind
	caller string
	node   int32
}

// indexKey groups the callers waiting on one (kind, node).
type indexKey struct {
	kind Kind
	node int32
}

type watch struct {
	token uint64
	fn    Handler
}

// callbacks is stored in the resource store and replaced on every change.
type callbacks struct {
	handlers *immutable.Map[watchKey, watch]
	index    *immutable.Map[indexKey, []string]
}

func (c callbacks) init() callbacks {
	if c.handlers == nil {
		c.handlers = immutable.NewMap[watchKey, watch](watchKeyHasher{})
	}
	if c.index == nil {
		c.index = immutable.NewMap[indexKey, []string](indexKeyHasher{})
	}
	return c
}

func (c callbacks) add(k watchKey, w watch) callbacks {
	c = c.init()
	ik := indexKey{kind: k.kind, node: k.node}

	if _, ok := c.handlers.Get(k); !ok {
		callers, _ := c.index.Get(ik)
		next := make([]string, len(callers), len(callers)+1)
		copy(next, callers)
		c.index = c.index.Set(ik, append(next, k.caller))
	}
	c.handlers = c.handlers.Set(k, w)
	return c
}

// remove deletes k if it still holds the registration identified by token.
func (c callbacks) remove(k watchKey, token uint64) callbacks {
	if c.handlers == nil {
		return c
	}
	w, ok := c.handlers.Get(k)
	if !ok || w.token != token {
		return c
	}
	c.handlers = c.handlers.Delete(k)

	ik := indexKey{kind: k.kind, node: k.node}
	callers, _ := c.index.Get(ik)
	next := make([]string, 0, len(callers))
	for _, caller := range callers {
		if caller != k.caller {
			next = append(next, caller)
		}
	}
	if len(next) == 0 {
		c.index = c.index.Delete(ik)
	} else {
		c.index = c.index.Set(ik, next)
	}
	return c
}

// lookup returns the handlers registered for (kind, node) in registration
// order.
func (c callbacks) lookup(kind Kind, node int32) []Handler {
	if c.index == nil {
		return nil
	}
	callers, _ := c.index.Get(indexKey{kind: kind, node: node})
	fns := make([]Handler, 0, len(callers))
	for _, caller := range callers {
		if w, ok := c.handlers.Get(watchKey{kind: kind, caller: caller, node: node}); ok {
			fns = append(fns, w.fn)
		}
	}
	return fns
}

func (c callbacks) len() int {
	if c.handlers == nil {
		return 0
	}
	return c.handlers.Len()
}

type watchKeyHasher struct{}

func (watchKeyHasher) Hash(k watchKey) uint32 {
	var b [8]byte
	binary.LittleEndian.PutUint32(b[:4], uint32(k.kind))
	binary.LittleEndian.PutUint32(b[4:], uint32(k.node))
	h := fnv.New32a()
	h.Write(b[:])
	h.Write([]byte(k.caller))
	return h.Sum32()
}

func (watchKeyHasher) Equal(a, b watchKey) bool { return a == b }

type indexKeyHasher struct{}

func (indexKeyHasher) Hash(k indexKey) uint32 {
	return uint32(k.node)*31 + uint32(k.kind)
}

func (indexKeyHasher) Equal(a, b indexKey) bool { return a == b }
