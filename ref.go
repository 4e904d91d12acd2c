package imsm

import (
	"errors"
	"unsafe"
)

// Bit widths of the three fields packed into a Ref, per §3 of the field
// layout this type implements.
const (
	machineIndexBits  = 12
	arenaOffsetBits   = 36
	generationTagBits = 12

	// The generation tag sits in the top bits of the word: a bit flipped
	// anywhere above the offset field decodes to a changed tag, so no
	// part of a stored Ref is ignored by Deref.
	machineIndexShift  = 0
	arenaOffsetShift   = machineIndexBits
	generationTagShift = 64 - generationTagBits

	machineIndexMask  = uint64(1)<<machineIndexBits - 1
	arenaOffsetMask   = uint64(1)<<arenaOffsetBits - 1
	generationTagMask = uint64(1)<<generationTagBits - 1
)

// MaxArenaBytes is the largest arena size a reference's offset field can
// address.
const MaxArenaBytes = uint64(1) << arenaOffsetBits

// M_enc/M_dec obfuscate the packed reference fields: stored bits are
// field*M_enc mod 2^64, recovered by multiplying by M_dec. Both are odd,
// and M_enc*M_dec == 1 mod 2^64, so the multiply is a bijection on
// uint64 — it carries no information loss, only scrambles bit
// positions so that flipping one bit of a stored reference, or reusing
// a stale one, lands on an essentially random field bag rather than a
// neighboring valid one.
const (
	mEnc = 0x9e3779b97f4a7c15
	mDec = 0xf1de83e19937733d
)

func init() {
	// Multiply as uint64 values so the product wraps mod 2^64; the
	// untyped constants alone would multiply exactly.
	enc, dec := uint64(mEnc), uint64(mDec)
	if enc*dec != 1 {
		panic("imsm: M_enc*M_dec != 1 mod 2^64")
	}
}

// Ref is an opaque, obfuscated 64-bit handle to an active [Entry] within
// some [Machine]. The zero Ref is the null reference. Ref values are
// safe to hand to untrusted producers (e.g. an external notification
// source): [Deref] and [Notify] never trust their bit pattern, and
// corrupted or stale values resolve to null with overwhelming
// probability rather than aliasing a live, unrelated entry.
type Ref uint64

// IsNull reports whether r is the null reference.
func (r Ref) IsNull() bool { return r == 0 }

// String renders r as a hex cookie, for logging.
func (r Ref) String() string {
	const hexDigits = "0123456789abcdef"
	var buf [18]byte
	buf[0], buf[1] = '0', 'x'
	for i := 0; i < 16; i++ {
		buf[17-i] = hexDigits[(uint64(r)>>(4*i))&0xF]
	}
	return string(buf[:])
}

// ErrNotActive is returned by Refer when interior does not resolve to a
// currently-active entry.
var ErrNotActive = errors.New("imsm: interior pointer does not resolve to an active entry")

// ErrOffsetRange is returned by Refer when interior does not lie within
// the machine's arena, so it has no arena offset a reference can encode.
var ErrOffsetRange = errors.New("imsm: arena offset exceeds reference encoding range")

type refFields struct {
	machineIndex uint32
	arenaOffset  uint64
	generation   uint32 // low generationTagBits of (generation >> 1)
}

func packRef(f refFields) Ref {
	bits := uint64(f.machineIndex)&machineIndexMask<<machineIndexShift |
		f.arenaOffset&arenaOffsetMask<<arenaOffsetShift |
		uint64(f.generation)&generationTagMask<<generationTagShift
	return Ref(bits * mEnc)
}

func unpackRef(r Ref) refFields {
	bits := uint64(r) * mDec
	return refFields{
		machineIndex: uint32(bits >> machineIndexShift & machineIndexMask),
		arenaOffset:  bits >> arenaOffsetShift & arenaOffsetMask,
		generation:   uint32(bits >> generationTagShift & generationTagMask),
	}
}

// Refer encodes a reference to the active entry owning interior, which
// must lie within m's arena and currently be active (generation odd).
// interior's offset within its slot plays no part in the encoded
// reference (only staging cares about it), so an offset that overflows
// the staging encoding does not prevent Refer from succeeding.
func Refer[T any](m *Machine[T], interior unsafe.Pointer) (Ref, error) {
	entry, off, _ := m.slab.EntryOf(interior)
	if entry == nil {
		return 0, ErrOffsetRange
	}
	if !entry.Active() {
		return 0, ErrNotActive
	}
	base := uintptr(unsafe.Pointer(entry)) - uintptr(m.slab.ArenaBase())
	_ = off // offset within the element is not part of the reference; refer targets the header's slot
	return packRef(refFields{
		machineIndex: m.index,
		arenaOffset:  uint64(base),
		generation:   (entry.Generation() >> 1) & uint32(generationTagMask),
	}), nil
}

// Deref resolves r to its owning entry header, or nil if r is null,
// refers to an invalid machine, an out-of-range offset, a currently
// free slot, or a generation that no longer matches — i.e. any
// use-after-free, corrupted, or adversarial input. Deref never panics
// and never reads memory outside the resolved machine's arena.
func Deref(r Ref) *Entry {
	if r.IsNull() {
		return nil
	}
	f := unpackRef(r)
	m := lookupMachine(f.machineIndex)
	if m == nil {
		return nil
	}
	return m.entryForRef(f)
}

// DerefMachine exposes only the registry lookup half of Deref, for
// callers that need to know which machine a reference belongs to
// without resolving the entry itself.
func DerefMachine(r Ref) AnyMachine {
	if r.IsNull() {
		return nil
	}
	f := unpackRef(r)
	m := lookupMachine(f.machineIndex)
	if m == nil {
		return nil
	}
	return m
}

// Notify marks the entry referenced by r (if any) as having a pending
// wakeup. It is the single entry point meant for external, untrusted
// notification sources: arbitrary, even adversarial, 64-bit cookies are
// safe to pass here. A null reference is reported as ok with no effect.
// Only an invalid machine index fails resolution outright (ok=false);
// a reference to a valid machine whose entry has since gone stale
// (freed, offset out of range, generation mismatch) is also reported
// ok, with no effect — staleness there is an ordinary, expected race
// between a notification and the entry's reuse, not a corrupt cookie.
func Notify(r Ref) (ok bool) {
	if r.IsNull() {
		return true
	}
	f := unpackRef(r)
	m := lookupMachine(f.machineIndex)
	if m == nil {
		return false
	}
	if e := m.entryForRef(f); e != nil {
		e.SetWakeupPending(true)
	}
	return true
}
