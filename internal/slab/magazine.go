package slab

// Size is the magazine capacity, fixed per spec.md §3/§6.
const Size = 15

// magazine is the unit of batched transfer between the slab's hot
// allocating/freeing caches and the backing freelist/empty stacks.
//
// entries is addressed from index 0 regardless of whether the magazine
// is currently playing the role of allocating or freeing cache: the
// allocating cache counts its index down to 0, the freeing cache counts
// its index up to Size, and both leave the populated prefix starting at
// entries[0] (see Slab.convertFreeingToAllocating).
type magazine struct {
	next    *magazine
	entries [Size]*Entry
}

// magazineStack is an intrusive LIFO of magazines (freelist or empty).
type magazineStack struct {
	top *magazine
}

func (s *magazineStack) push(m *magazine) {
	m.next = s.top
	s.top = m
}

func (s *magazineStack) pop() *magazine {
	m := s.top
	if m == nil {
		return nil
	}
	s.top = m.next
	m.next = nil
	return m
}
