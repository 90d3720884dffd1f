package index

// Allocator hands out run-scoped location identifiers: strictly increasing
// ints starting at 1. A location id is the only key that joins entity records
// across the output artifacts, so ids are never reused or reordered within a
// run.
type Allocator struct {
	next int
}

func NewAllocator() *Allocator {
	return &Allocator{next: 1}
}

func (a *Allocator) Next() int {
	id := a.next
	a.next++
	return id
}

// Count returns how many ids have been allocated.
func (a *Allocator) Count() int {
	return a.next - 1
}
