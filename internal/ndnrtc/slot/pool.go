package slot

import rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"

// Ref is an index into a Pool's arena. Pool.Pop returns a Ref in
// [0, Capacity) with a nil error on success; Ref 0 is a valid slot.
type Ref int

// Pool is a fixed-capacity arena of reusable Slot values (spec.md §2,
// "fixed-capacity arena of reusable slot objects"). No Slot is ever
// allocated outside the arena, and no segment stores a pointer back to
// its slot — callers address slots by Ref (spec.md §9 design note).
type Pool struct {
	arena []Slot
	free  []Ref
}

// NewPool builds a Pool with capacity preallocated slots, all initially
// free.
func NewPool(capacity int) *Pool {
	p := &Pool{
		arena: make([]Slot, capacity),
		free:  make([]Ref, capacity),
	}
	for i := 0; i < capacity; i++ {
		p.free[i] = Ref(capacity - 1 - i)
	}
	return p
}

// Capacity returns the arena's fixed size.
func (p *Pool) Capacity() int { return len(p.arena) }

// Pop checks out a free slot, returning PoolExhaustedError if none remain.
func (p *Pool) Pop() (Ref, error) {
	if len(p.free) == 0 {
		return 0, rtcerrors.NewPoolExhaustedError("slot.Pool.Pop")
	}
	ref := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return ref, nil
}

// Get returns a pointer to the slot at ref for mutation.
func (p *Pool) Get(ref Ref) *Slot { return &p.arena[ref] }

// Push clears the slot at ref and returns it to the free list. It is the
// only path back to Free besides a direct Slot.Clear() call by a holder
// that will immediately Push.
func (p *Pool) Push(ref Ref) {
	p.arena[ref].Clear()
	p.free = append(p.free, ref)
}

// InUse returns the number of slots currently checked out.
func (p *Pool) InUse() int { return len(p.arena) - len(p.free) }

// CountByState returns how many in-use slots are currently in the given
// state (spec.md P5, getSlotsNum).
func (p *Pool) CountByState(s State) int {
	freeSet := make(map[Ref]struct{}, len(p.free))
	for _, r := range p.free {
		freeSet[r] = struct{}{}
	}
	count := 0
	for i := range p.arena {
		if _, isFree := freeSet[Ref(i)]; isFree {
			continue
		}
		if p.arena[i].State == s {
			count++
		}
	}
	return count
}
