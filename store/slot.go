package store

import (
	"github.com/benbjohnson/immutable"

	"github.com/chabad360/go-scsynth/alloc"
)

// Slot addresses one typed value inside a Server. The set of slots is
// closed except for namespaces, which callers name themselves.
type Slot[T any] struct {
	name string
	get  func(*Server) (T, bool)
	set  func(Server, T) Server
}

// Name returns the slot name used in logs.
func (sl Slot[T]) Name() string {
	return sl.name
}

// Read returns the slot value for addr in the snapshot t.
func (sl Slot[T]) Read(t *Tree, addr string) T {
	v, _ := sl.get(t.Server(addr))
	return v
}

func (sl Slot[T]) apply(s *Server, v T) *Server {
	next := sl.set(*s, v)
	return &next
}

var (
	// NodeIDs is the node ID counter.
	NodeIDs = Slot[alloc.Counter]{
		name: "nodeIDs",
		get:  func(s *Server) (alloc.Counter, bool) { return s.nodeIDs, s.nodeIDs.Set },
		set:  func(s Server, v alloc.Counter) Server { s.nodeIDs = v; return s },
	}

	// AudioBuses is the audio bus block allocator.
	AudioBuses = blockSlot("audioBuses",
		func(s *Server) *alloc.State { return &s.audioBuses })

	// ControlBuses is the control bus block allocator.
	ControlBuses = blockSlot("controlBuses",
		func(s *Server) *alloc.State { return &s.controlBuses })

	// Buffers is the buffer ID block allocator.
	Buffers = blockSlot("buffers",
		func(s *Server) *alloc.State { return &s.buffers })

	// Nodes holds the lifecycle records keyed by node ID.
	Nodes = Slot[*immutable.Map[int32, NodeRecord]]{
		name: "nodes",
		get: func(s *Server) (*immutable.Map[int32, NodeRecord], bool) {
			return s.nodeMap(), s.nodes != nil
		},
		set: func(s Server, v *immutable.Map[int32, NodeRecord]) Server { s.nodes = v; return s },
	}
)

func blockSlot(name string, field func(*Server) *alloc.State) Slot[alloc.State] {
	return Slot[alloc.State]{
		name: name,
		get: func(s *Server) (alloc.State, bool) {
			st := *field(s)
			return st, !st.IsZero()
		},
		set: func(s Server, v alloc.State) Server { *field(&s) = v; return s },
	}
}

// NamespaceSlot returns a slot for a caller-defined value of type T stored
// under name. Reading an unset namespace yields the zero T. Values must be
// treated as immutable once written.
func NamespaceSlot[T any](name string) Slot[T] {
	return Slot[T]{
		name: name,
		get: func(s *Server) (T, bool) {
			var zero T
			v, ok := s.namespaceMap().Get(name)
			if !ok {
				return zero, false
			}
			t, ok := v.(T)
			if !ok {
				return zero, false
			}
			return t, true
		},
		set: func(s Server, v T) Server {
			s.namespaces = s.namespaceMap().Set(name, v)
			return s
		},
	}
}
