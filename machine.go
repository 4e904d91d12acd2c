package imsm

import (
	"reflect"
	"unsafe"

	"github.com/pkhuong/direct-mode-fsm/internal/slab"
)

var entryType = reflect.TypeOf(Entry{})

// Machine is a type-safe handle to one IMSM: a magazine-allocated arena
// of T, where T's first field must be [Entry]. Most programs embed
// exactly one Machine per object kind they manage (a connection, a
// timer, a subscription); the staging and reference operators in this
// package work uniformly across every Machine registered in the
// process.
type Machine[T any] struct {
	slab   *slab.Slab
	index  uint32
	logger *Logger
}

// Init builds a Machine over arena, an arenaSize-byte region the caller
// owns and keeps alive and zeroed for the Machine's entire lifetime
// (typically allocated once at process start-up). T must be a struct
// whose first field is [Entry]; Init returns an [InvariantError] if not.
//
// arenaSize must not exceed [MaxArenaBytes] (the reference encoding's
// offset field width) and must be large enough to hold at least one
// element; Init returns an error, not a silent clamp, when violated (an
// [InvariantError] with code [ErrCodeStageOverflow] for an oversized
// arena, a plain error for one too small) — see SPEC_FULL.md's
// discussion of this choice.
func Init[T any](arena unsafe.Pointer, arenaSize uintptr, opts ...Option) (*Machine[T], error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Struct || typ.NumField() == 0 || typ.Field(0).Type != entryType {
		return nil, newInvariantError(ErrCodeBadEmbedding, "%v's first field must be imsm.Entry", typ)
	}

	elemSize := unsafe.Sizeof(zero)
	if uint64(arenaSize) > MaxArenaBytes {
		return nil, newInvariantError(ErrCodeStageOverflow, "arena size %d exceeds the %d-byte reference encoding limit", arenaSize, MaxArenaBytes)
	}

	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	s, err := slab.New(arena, arenaSize, elemSize, cfg.initFn, cfg.deinitFn)
	if err != nil {
		return nil, err
	}

	m := &Machine[T]{slab: s, logger: cfg.logger}
	idx, err := registerMachine(m)
	if err != nil {
		return nil, err
	}
	m.index = idx

	logInfo(m.logger, func(b *builderT) {
		b.Int("machine_index", int(idx)).
			Int("elem_count", s.ElemCount()).
			Int("elem_size", int(elemSize)).
			Log("imsm: machine initialized")
	})

	return m, nil
}

// Close tears the machine down, releasing its registry slot. It is the
// caller's responsibility to ensure no reference to this machine's
// entries is dereferenced afterward; the registry slot may be reused by
// a subsequently-initialized Machine, at which point stale references
// would (incorrectly) resolve against the new machine's arena. Programs
// that need Close's safety under concurrent stale references should
// simply never call it, and instead hold the Machine for the life of
// the process, as the original design assumes.
func (m *Machine[T]) Close() {
	unregisterMachine(m.index)
}

// Index returns the machine's stable, non-zero registry index.
func (m *Machine[T]) Index() uint32 { return m.index }

// ElemSize returns the configured element size in bytes.
func (m *Machine[T]) ElemSize() uintptr { return m.slab.ElemSize() }

// ElemCount returns the number of slots in the arena.
func (m *Machine[T]) ElemCount() int { return m.slab.ElemCount() }

// Get draws a newly-activated *T from the machine, or nil if the arena
// is exhausted.
func (m *Machine[T]) Get() *T {
	e := m.slab.Get()
	if e == nil {
		return nil
	}
	return (*T)(unsafe.Pointer(e))
}

// Put returns v to the machine; a nil v is a no-op. Any [Ref] encoding v
// will subsequently fail to [Deref] once v is reused, by virtue of the
// generation tag.
func (m *Machine[T]) Put(v *T) {
	if v == nil {
		return
	}
	m.slab.Put((*Entry)(unsafe.Pointer(v)))
}

// PutN bulk-releases vs, skipping nils, with the same semantics as Put.
func (m *Machine[T]) PutN(vs []*T) {
	entries := make([]*Entry, len(vs))
	for i, v := range vs {
		if v != nil {
			entries[i] = (*Entry)(unsafe.Pointer(v))
		}
	}
	m.slab.PutN(entries)
}

// EntryOf locates the *T (and the byte offset from its header to
// interior) owning the slot containing interior, or ok=false if
// interior does not lie within this machine's arena, or its offset
// does not fit in the staging encoding (see [MaxStagedOffset]).
func (m *Machine[T]) EntryOf(interior unsafe.Pointer) (v *T, offset uint8, ok bool) {
	e, off, err := m.slab.EntryOf(interior)
	if err != nil {
		return nil, 0, false
	}
	return (*T)(unsafe.Pointer(e)), off, true
}

// Traverse returns the i'th slot (regardless of liveness), or nil if i
// is out of range. Exposed for test/debug use.
func (m *Machine[T]) Traverse(i int) *T {
	e := m.slab.Traverse(i)
	if e == nil {
		return nil
	}
	return (*T)(unsafe.Pointer(e))
}

// entryForRef validates f against this machine's arena and generation
// state, implementing the second half of Deref: offset in range,
// slot active, tag matches. Any failure returns nil — the caller (Deref)
// never learns which check failed, by design, since that distinction
// would leak information about arena layout to whatever produced the
// reference.
func (m *Machine[T]) entryForRef(f refFields) *Entry {
	elemSize := uint64(m.slab.ElemSize())
	arenaSize := elemSize * uint64(m.slab.ElemCount())
	if f.arenaOffset >= arenaSize || f.arenaOffset%elemSize != 0 {
		return nil
	}
	idx := int(f.arenaOffset / elemSize)
	e := m.slab.Traverse(idx)
	if e == nil || !e.Active() {
		return nil
	}
	if (e.Generation()>>1)&uint32(generationTagMask) != f.generation {
		return nil
	}
	return e
}
