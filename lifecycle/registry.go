// Package lifecycle tracks scsynth nodes from their /n_* notifications and
// runs callbacks registered against node IDs.
//
// Records and registrations live in a store.Store under the server
// address, so every read sees a consistent snapshot. Handlers are called
// outside the store lock and may register or dispose freely.
package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/immutable"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chabad360/go-scsynth/osc"
	"github.com/chabad360/go-scsynth/store"
)

// Record is the lifecycle record of one node.
type Record = store.NodeRecord

// Handler is called with the ID of the node a notification was about.
type Handler func(nodeID int32)

var callbacksSlot = store.NamespaceSlot[callbacks]("lifecycle.callbacks")

// Registry correlates node notifications for one server with the callers
// waiting on them.
type Registry struct {
	store *store.Store
	addr  string
	log   *zap.Logger

	seq atomic.Uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// New returns a Registry for the server at addr, keeping its state in s.
func New(s *store.Store, addr string, opts ...Option) *Registry {
	r := &Registry{store: s, addr: addr, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewCallerID returns a random caller ID.
func NewCallerID() string {
	return uuid.NewString()
}

// On registers h for notifications of kind about node. Registering again
// with the same caller, kind and node replaces the previous handler. Go and
// End registrations remove themselves before h runs, so h runs at most once.
// The returned function removes the registration; it is safe to call more
// than once and never removes a newer registration.
func (r *Registry) On(kind Kind, caller string, node int32, h Handler) (dispose func()) {
	key := watchKey{kind: kind, caller: caller, node: node}
	token := r.seq.Add(1)

	var once sync.Once
	dispose = func() {
		once.Do(func() {
			store.Mutate(r.store, r.addr, callbacksSlot, func(c callbacks) callbacks {
				return c.remove(key, token)
			})
		})
	}

	fn := h
	if kind == Go || kind == End {
		var fired atomic.Bool
		fn = func(id int32) {
			if !fired.CompareAndSwap(false, true) {
				return
			}
			dispose()
			h(id)
		}
	}

	store.Mutate(r.store, r.addr, callbacksSlot, func(c callbacks) callbacks {
		return c.add(key, watch{token: token, fn: fn})
	})
	return dispose
}

// OnGo calls h once when node starts.
func (r *Registry) OnGo(caller string, node int32, h Handler) (dispose func()) {
	return r.On(Go, caller, node, h)
}

// OnEnd calls h once when node is freed.
func (r *Registry) OnEnd(caller string, node int32, h Handler) (dispose func()) {
	return r.On(End, caller, node, h)
}

// WhenGo returns a channel that receives node once it has started. If ctx
// is cancelled first the registration is removed and nothing is sent.
func (r *Registry) WhenGo(ctx context.Context, node int32) <-chan int32 {
	return r.when(ctx, Go, node)
}

// WhenEnd returns a channel that receives node once it has ended. If ctx is
// cancelled first the registration is removed and nothing is sent.
func (r *Registry) WhenEnd(ctx context.Context, node int32) <-chan int32 {
	return r.when(ctx, End, node)
}

func (r *Registry) when(ctx context.Context, kind Kind, node int32) <-chan int32 {
	ch := make(chan int32, 1)
	fired := make(chan struct{})
	dispose := r.On(kind, NewCallerID(), node, func(id int32) {
		ch <- id
		close(fired)
	})

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				dispose()
			case <-fired:
			}
		}()
	}
	return ch
}

// Dispatch calls every handler registered for (kind, node) when Dispatch
// starts. Handlers registered while it runs are not called.
func (r *Registry) Dispatch(kind Kind, node int32) {
	fns := store.Get(r.store, r.addr, callbacksSlot).lookup(kind, node)
	for _, fn := range fns {
		fn(node)
	}
}

// Watchers returns the number of live registrations.
func (r *Registry) Watchers() int {
	return store.Get(r.store, r.addr, callbacksSlot).len()
}

// Record returns the lifecycle record of node.
func (r *Registry) Record(node int32) (Record, bool) {
	return store.Get(r.store, r.addr, store.Nodes).Get(node)
}

// UpdateRecord applies fn to the record of node, creating an empty record
// first if there is none.
func (r *Registry) UpdateRecord(node int32, fn func(*Record)) {
	store.Mutate(r.store, r.addr, store.Nodes, func(m *immutable.Map[int32, Record]) *immutable.Map[int32, Record] {
		rec, _ := m.Get(node)
		fn(&rec)
		return m.Set(node, rec)
	})
}

// SetSynthDef attaches the name of the synth definition node plays.
func (r *Registry) SetSynthDef(node int32, name string) {
	r.UpdateRecord(node, func(rec *Record) { rec.SynthDef = name })
}

func (r *Registry) deleteRecord(node int32) {
	store.Mutate(r.store, r.addr, store.Nodes, func(m *immutable.Map[int32, Record]) *immutable.Map[int32, Record] {
		return m.Delete(node)
	})
}

// Handle applies n to the node's record and dispatches it. An /n_end
// removes the record before its handlers run.
func (r *Registry) Handle(n Notification) {
	r.log.Debug("node notification",
		zap.Stringer("kind", n.Kind),
		zap.Int32("node", n.NodeID),
		zap.Int32("parent", n.ParentID))

	position := func(rec *Record) {
		rec.ParentID = n.ParentID
		rec.PrevID = n.PrevID
		rec.NextID = n.NextID
		rec.IsGroup = n.IsGroup
		rec.HasChildren = n.IsGroup
		rec.HeadID = n.HeadID
		rec.TailID = n.TailID
	}

	switch n.Kind {
	case End:
		r.deleteRecord(n.NodeID)
	case Go:
		r.UpdateRecord(n.NodeID, func(rec *Record) {
			position(rec)
			rec.IsPlaying = true
			rec.IsRunning = true
		})
	case On:
		r.UpdateRecord(n.NodeID, func(rec *Record) {
			position(rec)
			rec.IsRunning = true
		})
	case Off:
		r.UpdateRecord(n.NodeID, func(rec *Record) {
			position(rec)
			rec.IsRunning = false
		})
	case Move, Info:
		r.UpdateRecord(n.NodeID, position)
	}

	r.Dispatch(n.Kind, n.NodeID)
}

// Attach routes the six node notifications received by d to r.
func (r *Registry) Attach(d *osc.Dispatcher) error {
	for _, kind := range Kinds {
		if err := d.AddMethodFunc(kind.String(), r.handleMessage); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) handleMessage(msg *osc.Message) {
	n, err := ParseNotification(msg)
	if err != nil {
		r.log.Error("parse node notification", zap.Stringer("msg", msg), zap.Error(err))
		return
	}
	r.Handle(n)
}
