package store

import (
	"sort"

	"github.com/benbjohnson/immutable"

	"github.com/chabad360/go-scsynth/alloc"
)

// NodeRecord is what is known about a node on the server, built from its
// lifecycle notifications.
type NodeRecord struct {
	ParentID int32
	PrevID   int32
	NextID   int32

	IsGroup   bool
	IsRunning bool
	IsPlaying bool

	// HeadID and TailID are only meaningful when HasChildren is set, which
	// requires IsGroup.
	HasChildren bool
	HeadID      int32
	TailID      int32

	// SynthDef is attached by callers; notifications never set it.
	SynthDef string
}

var (
	emptyNodes      = immutable.NewMap[int32, NodeRecord](nil)
	emptyNamespaces = immutable.NewMap[string, any](nil)
	emptyServer     = &Server{}
)

// Server holds the state of one server connection. A Server is never
// modified after it has been published in a Tree.
type Server struct {
	nodeIDs      alloc.Counter
	audioBuses   alloc.State
	controlBuses alloc.State
	buffers      alloc.State
	nodes        *immutable.Map[int32, NodeRecord]
	namespaces   *immutable.Map[string, any]
}

func (s *Server) nodeMap() *immutable.Map[int32, NodeRecord] {
	if s.nodes == nil {
		return emptyNodes
	}
	return s.nodes
}

func (s *Server) namespaceMap() *immutable.Map[string, any] {
	if s.namespaces == nil {
		return emptyNamespaces
	}
	return s.namespaces
}

// Tree is one immutable version of the whole store.
type Tree struct {
	version uint64
	servers *immutable.Map[string, *Server]
}

func newTree() *Tree {
	return &Tree{servers: immutable.NewMap[string, *Server](nil)}
}

// Version returns the number of mutations applied before this tree.
func (t *Tree) Version() uint64 {
	return t.version
}

// Server returns the state for addr, or an empty state if addr was never
// written.
func (t *Tree) Server(addr string) *Server {
	if s, ok := t.servers.Get(addr); ok {
		return s
	}
	return emptyServer
}

// Addresses returns the known server addresses in sorted order.
func (t *Tree) Addresses() []string {
	addrs := make([]string, 0, t.servers.Len())
	itr := t.servers.Iterator()
	for !itr.Done() {
		k, _, _ := itr.Next()
		addrs = append(addrs, k)
	}
	sort.Strings(addrs)
	return addrs
}

// with returns the next version of t with addr replaced by s.
func (t *Tree) with(addr string, s *Server) *Tree {
	return &Tree{
		version: t.version + 1,
		servers: t.servers.Set(addr, s),
	}
}
