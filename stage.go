package imsm

import (
	"errors"
	"unsafe"

	"github.com/pkhuong/direct-mode-fsm/internal/slab"
)

// StageIO is the central composition primitive: it derives this call
// site's queue from (site, iter) via ctx.Index, stages listIn's matching
// elements into that queue, then returns a fresh list of every entry
// currently pending on the queue, in arena order.
//
// Stage-in considers index i of listIn only when listIn.At(i) is
// non-nil and listIn.Aux(i) == auxMatch; for each such element it
// locates the owning entry by arena-offset division (via m's slab) and
// records queue_id/offset/wakeup_pending=true on the header. An element
// that does not resolve to an active entry in m's arena at all is
// silently skipped — e.g. belonging to a different Machine, or already
// put. An element that does resolve but whose offset overflows the
// staging encoding is a programming error, not an ordinary miss, and
// panics with an [InvariantError] (code [ErrCodeStageOverflow]).
//
// Stage-out sweeps every slot in m's arena once, in index order, and
// for each active entry whose queue_id matches and wakeup_pending is
// set, clears wakeup_pending and appends header+offset to the output
// list.
//
// At most one StageIO call is meaningful per (site, iter) pair per
// frame: ctx.Index's monotone indexing means a second call with the
// same pair would reuse the same queue as the first, which is almost
// always a logic error in the poll function, not something this
// operator needs to additionally guard against.
func StageIO[T any](m *Machine[T], ctx *Ctx, site *Site, iter Iteration, cache *Cache, listIn *List, auxMatch uint64) (*List, error) {
	q := ctx.Index(site, iter)
	if q > MaxQueueID {
		return nil, newInvariantError(ErrCodeStageOverflow, "program-point index %d exceeds max queue id %d", q, MaxQueueID)
	}
	queueID := uint16(q)

	if listIn != nil {
		for i := 0; i < listIn.Size(); i++ {
			ptr := listIn.At(i)
			if ptr == nil || listIn.Aux(i) != auxMatch {
				continue
			}
			entry, off, err := m.slab.EntryOf(ptr)
			if err != nil {
				if errors.Is(err, slab.ErrOffsetOverflow) {
					panic(newInvariantError(ErrCodeStageOverflow, "staged offset for %p exceeds the %d-byte limit", ptr, MaxStagedOffset))
				}
				// Not in this machine's arena at all — an ordinary,
				// expected miss (e.g. belonging to a different Machine).
				continue
			}
			if !entry.Active() {
				continue
			}
			entry.SetQueueID(queueID)
			entry.SetOffset(off)
			entry.SetWakeupPending(true)
		}
	}

	out := cache.Get(m.ElemCount())
	n := m.ElemCount()
	for i := 0; i < n; i++ {
		e := m.slab.Traverse(i)
		if !e.Active() || e.QueueID() != queueID || !e.WakeupPending() {
			continue
		}
		e.TakeWakeupPending()
		interior := unsafe.Add(unsafe.Pointer(e), e.Offset())
		out.Push(interior, 0)
	}
	return out, nil
}
