// Package store keeps the resource state of scsynth connections in a
// versioned, copy-on-write tree.
//
// Every mutation builds a new Tree and publishes it atomically; a Tree
// obtained from Snapshot never changes. Mutation callbacks run with the
// store locked and must not call back into the same Store.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chabad360/go-scsynth/alloc"
)

// Store holds one Tree version at a time.
type Store struct {
	mu   sync.Mutex
	root atomic.Pointer[Tree]

	opts Options
	log  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithOptions sets the server options used by Reset and as the node ID seed.
func WithOptions(o Options) Option {
	return func(s *Store) { s.opts = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		opts: DefaultOptions(),
		log:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.root.Store(newTree())
	return s
}

// Options returns the server options of s.
func (s *Store) Options() Options {
	return s.opts
}

// Snapshot returns the current version of the tree.
func (s *Store) Snapshot() *Tree {
	return s.root.Load()
}

// Get reads the value of slot for addr. Unset slots yield their empty value.
func Get[T any](s *Store, addr string, slot Slot[T]) T {
	return slot.Read(s.Snapshot(), addr)
}

// GetOr reads the value of slot for addr, or def if the slot was never set.
func GetOr[T any](s *Store, addr string, slot Slot[T], def T) T {
	v, ok := slot.get(s.Snapshot().Server(addr))
	if !ok {
		return def
	}
	return v
}

// Mutate replaces the value of slot for addr with fn(current).
func Mutate[T any](s *Store, addr string, slot Slot[T], fn func(T) T) {
	_, _ = MutateAndReturn(s, addr, slot, func(v T) (struct{}, T, error) {
		return struct{}{}, fn(v), nil
	})
}

// MutateAndReturn replaces the value of slot for addr with the value
// returned by fn and hands back fn's result. If fn fails the tree is left
// untouched.
func MutateAndReturn[T, R any](s *Store, addr string, slot Slot[T], fn func(T) (R, T, error)) (R, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.root.Load()
	srv := t.Server(addr)
	cur, _ := slot.get(srv)

	r, next, err := fn(cur)
	if err != nil {
		return r, err
	}

	s.root.Store(t.with(addr, slot.apply(srv, next)))
	return r, nil
}

// Reset installs fresh allocators for addr, derived from the store options.
// The reserved I/O channels are removed from the audio bus space first. On
// error nothing is installed.
func (s *Store) Reset(addr string) error {
	o := s.opts
	if err := o.Validate(); err != nil {
		return errors.Wrapf(err, "reset %s", addr)
	}

	audio, err := alloc.Reserve(alloc.Initial(o.NumAudioBusChannels), 0, o.ReservedChannels())
	if err != nil {
		return errors.Wrapf(err, "reset %s: reserve i/o channels", addr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.root.Load()
	srv := *t.Server(addr)
	srv.nodeIDs = alloc.Counter{Last: o.InitialNodeID, Set: true}
	srv.audioBuses = audio
	srv.controlBuses = alloc.Initial(o.NumControlBusChannels)
	srv.buffers = alloc.Initial(o.NumBuffers)
	s.root.Store(t.with(addr, &srv))

	s.log.Debug("reset server state",
		zap.String("addr", addr),
		zap.Int("audioBuses", o.NumAudioBusChannels),
		zap.Int("reserved", o.ReservedChannels()),
		zap.Int("controlBuses", o.NumControlBusChannels),
		zap.Int("buffers", o.NumBuffers),
		zap.Int("initialNodeID", o.InitialNodeID))
	return nil
}

// NextNodeID returns a fresh node ID for addr.
func (s *Store) NextNodeID(addr string) int32 {
	id, _ := MutateAndReturn(s, addr, NodeIDs, func(c alloc.Counter) (int, alloc.Counter, error) {
		id, next := alloc.Increment(c, s.opts.InitialNodeID)
		return id, next, nil
	})
	return int32(id)
}

func (s *Store) allocate(addr string, slot Slot[alloc.State], n int) (int, error) {
	a, err := MutateAndReturn(s, addr, slot, func(st alloc.State) (int, alloc.State, error) {
		return alloc.Allocate(st, n)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "%s on %s", slot.Name(), addr)
	}
	return a, nil
}

func (s *Store) free(addr string, slot Slot[alloc.State], a, n int) {
	Mutate(s, addr, slot, func(st alloc.State) alloc.State {
		return alloc.Free(st, a, n)
	})
}

// AllocAudioBus allocates n contiguous audio bus channels.
func (s *Store) AllocAudioBus(addr string, n int) (int, error) {
	return s.allocate(addr, AudioBuses, n)
}

// FreeAudioBus releases audio bus channels returned by AllocAudioBus.
func (s *Store) FreeAudioBus(addr string, bus, n int) {
	s.free(addr, AudioBuses, bus, n)
}

// AllocControlBus allocates n contiguous control bus channels.
func (s *Store) AllocControlBus(addr string, n int) (int, error) {
	return s.allocate(addr, ControlBuses, n)
}

// FreeControlBus releases control bus channels returned by AllocControlBus.
func (s *Store) FreeControlBus(addr string, bus, n int) {
	s.free(addr, ControlBuses, bus, n)
}

// AllocBuffer allocates n contiguous buffer IDs.
func (s *Store) AllocBuffer(addr string, n int) (int, error) {
	return s.allocate(addr, Buffers, n)
}

// FreeBuffer releases buffer IDs returned by AllocBuffer.
func (s *Store) FreeBuffer(addr string, buf, n int) {
	s.free(addr, Buffers, buf, n)
}
