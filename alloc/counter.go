package alloc

// Counter is the last ID handed out by a monotonic allocator. The zero
// Counter has issued nothing.
type Counter struct {
	Last int
	Set  bool
}

// Increment returns the next ID and the Counter that records it. An unset
// Counter starts from seed, so the first ID is seed+1.
func Increment(c Counter, seed int) (int, Counter) {
	last := seed
	if c.Set {
		last = c.Last
	}
	next := last + 1
	return next, Counter{Last: next, Set: true}
}
