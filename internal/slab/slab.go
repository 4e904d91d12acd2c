package slab

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrElementTooSmall is returned by New when elemSize is smaller than
// the Entry header it must embed.
var ErrElementTooSmall = errors.New("slab: element size smaller than entry header")

// ErrNotInArena is returned by EntryOf when interior does not lie
// within the slab's arena at all — an ordinary, expected miss (e.g. a
// pointer belonging to a different machine).
var ErrNotInArena = errors.New("slab: interior pointer not in arena")

// ErrOffsetOverflow is returned by EntryOf when interior resolves to a
// slot within the arena, but the byte offset from that slot's header
// exceeds MaxStagedOffset. The owning entry is still returned: callers
// that don't need the offset (e.g. Refer) may ignore this error,
// callers that do (staging) must treat it as a fatal program error.
var ErrOffsetOverflow = errors.New("slab: offset exceeds MaxStagedOffset")

// Slab manages a fixed-capacity arena of elemSize-byte slots, each
// beginning with an Entry header, via a two-cache magazine allocator:
// one magazine draining toward empty (current_allocating) and one
// filling toward full (current_freeing). The hot Get/Put path only ever
// touches these two caches; freelist/empty hold the overflow as whole
// magazines.
type Slab struct {
	arena     unsafe.Pointer
	elemSize  uintptr
	elemCount int

	initFn   func(*Entry)
	deinitFn func(*Entry)

	currentAllocating *magazine
	currentAllocIndex int // counts down to 0

	currentFreeing   *magazine
	currentFreeIndex int // counts up to Size

	freelist magazineStack
	empty    magazineStack
}

// New builds a Slab over arena (arenaSize bytes, elemSize bytes per
// slot), enumerating every slot once (high index to low) through initFn
// and the same free-path bookkeeping Put uses, so the slab starts fully
// populated. arena must be zeroed; a zero Entry header is a valid free
// slot (generation 0, even).
//
// Either of initFn/deinitFn may be nil.
func New(arena unsafe.Pointer, arenaSize, elemSize uintptr, initFn, deinitFn func(*Entry)) (*Slab, error) {
	if elemSize < unsafe.Sizeof(Entry{}) {
		return nil, fmt.Errorf("%w: have %d, need >= %d", ErrElementTooSmall, elemSize, unsafe.Sizeof(Entry{}))
	}
	if elemSize == 0 || arenaSize < elemSize {
		return nil, errors.New("slab: arena too small to hold a single element")
	}

	s := &Slab{
		arena:     arena,
		elemSize:  elemSize,
		elemCount: int(arenaSize / elemSize),
		initFn:    initFn,
		deinitFn:  deinitFn,
	}
	s.refreshFreeing()

	for i := s.elemCount; i > 0; {
		i--
		e := s.entryAt(i)
		e.reset()
		if s.initFn != nil {
			s.initFn(e)
		}
		s.pushFree(e)
	}
	return s, nil
}

// ElemCount returns the number of slots in the arena.
func (s *Slab) ElemCount() int { return s.elemCount }

// ElemSize returns the configured slot size.
func (s *Slab) ElemSize() uintptr { return s.elemSize }

// ArenaBase returns the base address of the arena.
func (s *Slab) ArenaBase() unsafe.Pointer { return s.arena }

func (s *Slab) entryAt(i int) *Entry {
	return (*Entry)(unsafe.Add(s.arena, uintptr(i)*s.elemSize))
}

// Traverse returns the i'th slot's header (regardless of liveness), or
// nil if i is out of range. Exposed for test/debug use.
func (s *Slab) Traverse(i int) *Entry {
	if i < 0 || i >= s.elemCount {
		return nil
	}
	return s.entryAt(i)
}

// EntryOf locates the header owning the slot containing interior, and
// the byte offset from the header to interior, via arena-offset
// division. Returns ErrNotInArena if interior does not lie within the
// arena at all, or ErrOffsetOverflow (with entry still populated) if
// the offset would not fit in MaxStagedOffset.
func (s *Slab) EntryOf(interior unsafe.Pointer) (entry *Entry, offset uint8, err error) {
	off := uintptr(interior) - uintptr(s.arena)
	if off >= s.elemSize*uintptr(s.elemCount) {
		return nil, 0, ErrNotInArena
	}
	idx := off / s.elemSize
	rem := off % s.elemSize
	e := s.entryAt(int(idx))
	if rem > uintptr(MaxStagedOffset) {
		return e, 0, ErrOffsetOverflow
	}
	return e, uint8(rem), nil
}

// Get draws a newly-activated entry from the allocating cache, or nil if
// the arena is exhausted.
func (s *Slab) Get() *Entry {
	if s.currentAllocating == nil {
		s.reloadAllocating()
		if s.currentAllocating == nil {
			return nil
		}
	}

	idx := s.currentAllocIndex - 1
	e := s.currentAllocating.entries[idx]
	s.currentAllocIndex = idx
	e.activate()
	if idx == 0 {
		s.reloadAllocating()
	}
	return e
}

// Put returns entry to the slab; a nil entry is a no-op.
func (s *Slab) Put(entry *Entry) {
	if entry == nil {
		return
	}
	entry.deactivate()
	if s.deinitFn != nil {
		s.deinitFn(entry)
	}
	s.pushFree(entry)
}

// PutN bulk-releases entries, skipping nils, with the same semantics as
// Put.
func (s *Slab) PutN(entries []*Entry) {
	for _, e := range entries {
		if e == nil {
			continue
		}
		e.deactivate()
		if s.deinitFn != nil {
			s.deinitFn(e)
		}
		s.pushFree(e)
	}
}

// reloadAllocating installs a new current_allocating magazine, pushing
// the (now-empty) prior one to the empty stack first.
func (s *Slab) reloadAllocating() {
	if s.currentAllocating != nil {
		s.empty.push(s.currentAllocating)
		s.currentAllocating = nil
	}

	if full := s.freelist.pop(); full != nil {
		s.currentAllocating = full
		s.currentAllocIndex = Size
		return
	}
	s.convertFreeingToAllocating()
}

// convertFreeingToAllocating steals the current freeing cache's
// populated entries as the new allocation cache. This is the only way
// to guarantee a successful allocation from arenas smaller than two
// magazines: without it, a slab with capacity < 2*Size could report
// exhaustion despite every slot being free, because put() leaves freed
// entries queued in current_freeing rather than immediately visible to
// get().
//
// No copy is needed: current_freeing always fills its magazine's
// entries[] from index 0 upward (see pushFree), so its populated prefix
// already sits exactly where the allocating cache expects it.
func (s *Slab) convertFreeingToAllocating() {
	numFreed := s.currentFreeIndex
	if numFreed == 0 {
		s.currentAllocating = nil
		s.currentAllocIndex = 0
		return
	}

	cur := s.currentFreeing
	s.currentFreeing = nil
	s.refreshFreeing()

	s.currentAllocating = cur
	s.currentAllocIndex = numFreed
}

// pushFree appends entry to the current freeing cache, flushing it once
// full.
func (s *Slab) pushFree(e *Entry) {
	s.currentFreeing.entries[s.currentFreeIndex] = e
	s.currentFreeIndex++
	if s.currentFreeIndex == Size {
		s.flush()
	}
}

// flush pushes the now-full freeing magazine onto freelist and installs
// a fresh one.
func (s *Slab) flush() {
	full := s.currentFreeing
	s.currentFreeing = nil
	s.freelist.push(full)
	s.refreshFreeing()
}

// refreshFreeing installs a new, empty current_freeing magazine.
func (s *Slab) refreshFreeing() {
	s.currentFreeing = s.getEmptyMagazine()
	s.currentFreeIndex = 0
}

func (s *Slab) getEmptyMagazine() *magazine {
	if m := s.empty.pop(); m != nil {
		return m
	}
	return &magazine{}
}
