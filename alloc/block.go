// Package alloc provides contiguous range allocation over integer address
// spaces (audio buses, control buses, buffers) and a monotonic counter for
// node IDs.
//
// Every function treats its State argument as an immutable value and
// returns a new State. Callers must replace their reference with the
// returned value.
package alloc

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrNoFreeBlock is returned when no free block is large enough.
	ErrNoFreeBlock = errors.New("no free block")
	// ErrAlreadyAllocated is returned when a reservation overlaps a range that is not free.
	ErrAlreadyAllocated = errors.New("range already allocated")
	// ErrInvalidSize is returned for block sizes below one.
	ErrInvalidSize = errors.New("invalid block size")
)

// Block is a contiguous run of addresses.
type Block struct {
	Addr int
	Size int
}

// End returns the first address after the block.
func (b Block) End() int {
	return b.Addr + b.Size
}

// State maps a block size to the start addresses of free blocks of exactly
// that size. The zero State has no free space.
type State struct {
	free map[int][]int
}

// Initial returns a State with a single free block [0, size).
func Initial(size int) State {
	s := State{free: map[int][]int{}}
	if size > 0 {
		s.free[size] = []int{0}
	}
	return s
}

// IsZero reports whether s was never initialised.
func (s State) IsZero() bool {
	return s.free == nil
}

// clone copies the bucket map. Bucket slices are shared and must be
// replaced, never written through.
func (s State) clone() State {
	free := make(map[int][]int, len(s.free)+1)
	for size, addrs := range s.free {
		free[size] = addrs
	}
	return State{free: free}
}

// push appends addr to the bucket for size.
func (s State) push(b Block) {
	if b.Size <= 0 {
		return
	}
	addrs := s.free[b.Size]
	next := make([]int, len(addrs), len(addrs)+1)
	copy(next, addrs)
	s.free[b.Size] = append(next, b.Addr)
}

// remove deletes the free block b if present and reports whether it was.
func (s State) remove(b Block) bool {
	addrs := s.free[b.Size]
	for i, a := range addrs {
		if a != b.Addr {
			continue
		}
		if len(addrs) == 1 {
			delete(s.free, b.Size)
			return true
		}
		next := make([]int, 0, len(addrs)-1)
		next = append(next, addrs[:i]...)
		s.free[b.Size] = append(next, addrs[i+1:]...)
		return true
	}
	return false
}

// sizes returns the bucket sizes in ascending order.
func (s State) sizes() []int {
	sizes := make([]int, 0, len(s.free))
	for size := range s.free {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}

// Available returns the total number of free addresses.
func (s State) Available() int {
	n := 0
	for size, addrs := range s.free {
		n += size * len(addrs)
	}
	return n
}

// Allocate finds a free block of size addresses. An exact-size bucket is
// preferred; otherwise the last block of the smallest larger bucket is split
// and its low end returned.
func Allocate(s State, size int) (int, State, error) {
	if size < 1 {
		return 0, s, errors.Wrapf(ErrInvalidSize, "allocate %d", size)
	}

	for _, bucket := range s.sizes() {
		if bucket < size {
			continue
		}
		addrs := s.free[bucket]
		if len(addrs) == 0 {
			continue
		}

		next := s.clone()
		addr := addrs[len(addrs)-1]
		next.remove(Block{Addr: addr, Size: bucket})
		if bucket > size {
			next.push(Block{Addr: addr + size, Size: bucket - size})
		}
		return addr, next, nil
	}

	return 0, s, errors.Wrapf(ErrNoFreeBlock, "allocate %d (free %d)", size, s.Available())
}

// Free returns [addr, addr+size) to the free list, merging it with the free
// blocks directly below and above. Freeing a range that was not allocated
// corrupts the state.
func Free(s State, addr, size int) State {
	if size < 1 {
		return s
	}

	next := s.clone()
	merged := Block{Addr: addr, Size: size}

	for bucket, addrs := range s.free {
		for _, a := range addrs {
			switch {
			case a+bucket == addr:
				next.remove(Block{Addr: a, Size: bucket})
				merged = Block{Addr: a, Size: merged.Size + bucket}
			case a == addr+size:
				next.remove(Block{Addr: a, Size: bucket})
				merged.Size += bucket
			}
		}
	}

	next.push(merged)
	return next
}

// Reserve removes [addr, addr+size) from the free list. The range must lie
// entirely inside one free block.
func Reserve(s State, addr, size int) (State, error) {
	if size < 1 {
		return s, errors.Wrapf(ErrInvalidSize, "reserve %d at %d", size, addr)
	}

	want := Block{Addr: addr, Size: size}
	next := s.clone()
	if next.remove(want) {
		return next, nil
	}

	for bucket, addrs := range s.free {
		for _, a := range addrs {
			outer := Block{Addr: a, Size: bucket}
			if outer.Addr > want.Addr || outer.End() < want.End() {
				continue
			}
			next.remove(outer)
			next.push(Block{Addr: outer.Addr, Size: want.Addr - outer.Addr})
			next.push(Block{Addr: want.End(), Size: outer.End() - want.End()})
			return next, nil
		}
	}

	return s, errors.Wrapf(ErrAlreadyAllocated, "reserve [%d, %d) in %v", want.Addr, want.End(), FreeList(s))
}

// FreeList returns the free blocks sorted by address.
func FreeList(s State) []Block {
	var blocks []Block
	for size, addrs := range s.free {
		for _, a := range addrs {
			blocks = append(blocks, Block{Addr: a, Size: size})
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Addr < blocks[j].Addr
	})
	return blocks
}
