// Package slab implements the magazine-based slab allocator at the core
// of an IMSM: a fixed-capacity arena of fixed-size slots, each carrying a
// generation/queue/offset header, handed out and reclaimed through a
// pair of small "magazine" caches so the hot path never touches the
// backing freelist/empty stacks.
package slab

// NoQueue is the sentinel queue id meaning "not currently queued".
const NoQueue uint16 = 0xFFFF

// MaxStagedOffset is the largest interior-pointer offset (bytes from an
// entry header's start) EntryOf can report, bounded by Entry.offset's
// 8-bit width.
const MaxStagedOffset uint8 = 255

// Entry is the fixed header every managed object begins with (mirrors
// struct imsm_entry in the original implementation). generation is even
// while the slot is free, odd while allocated.
type Entry struct {
	generation    uint32
	queueID       uint16
	offset        uint8
	wakeupPending uint8
}

// Active reports whether the entry currently belongs to a live object.
func (e *Entry) Active() bool {
	return e.generation&1 == 1
}

// Generation returns the raw generation counter.
func (e *Entry) Generation() uint32 {
	return e.generation
}

// QueueID returns the staging queue id, or [NoQueue].
func (e *Entry) QueueID() uint16 {
	return e.queueID
}

// SetQueueID assigns the staging queue id.
func (e *Entry) SetQueueID(q uint16) {
	e.queueID = q
}

// Offset returns the byte offset from the header to the interior pointer
// last staged for this entry.
func (e *Entry) Offset() uint8 {
	return e.offset
}

// SetOffset assigns the interior-pointer byte offset.
func (e *Entry) SetOffset(off uint8) {
	e.offset = off
}

// WakeupPending reports whether a wakeup is pending delivery.
func (e *Entry) WakeupPending() bool {
	return e.wakeupPending != 0
}

// SetWakeupPending sets or clears the pending-wakeup flag.
func (e *Entry) SetWakeupPending(v bool) {
	if v {
		e.wakeupPending = 1
	} else {
		e.wakeupPending = 0
	}
}

// TakeWakeupPending clears the pending-wakeup flag and reports its prior
// value, for stage-out's sweep.
func (e *Entry) TakeWakeupPending() bool {
	was := e.wakeupPending != 0
	e.wakeupPending = 0
	return was
}

// reset zeroes the header, as done once for every slot during Init.
func (e *Entry) reset() {
	*e = Entry{}
}

// activate increments the generation (always even->odd here, since this
// is only called on slots drawn from the allocating cache) and clears
// queueing state.
func (e *Entry) activate() {
	e.generation++
	e.queueID = NoQueue
	e.offset = 0
	e.wakeupPending = 0
}

// deactivate increments the generation to the next even value and clears
// queueing state.
func (e *Entry) deactivate() {
	e.generation = (e.generation + 1) &^ 1
	e.queueID = NoQueue
	e.offset = 0
	e.wakeupPending = 0
}
