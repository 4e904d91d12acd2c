package imsm

import "github.com/pkhuong/direct-mode-fsm/internal/slab"

// NoQueue is the sentinel queue_id meaning "not currently queued".
const NoQueue = slab.NoQueue

// MaxStagedOffset is the largest interior-pointer offset (bytes from the
// start of an [Entry] header) that staging can represent.
const MaxStagedOffset = slab.MaxStagedOffset

// MaxQueueID is the largest staging queue id the program-point tracker
// may hand out; [NoQueue] is reserved above this range.
const MaxQueueID = 0xFFFE

// Entry is the fixed header every managed object begins with. Any type
// used as the element type of a [Machine] must embed Entry as its first
// field; Init verifies this by reflection.
//
// generation is even while the slot is free, odd while allocated; the
// upper bits are a version counter. queueID/offset are only meaningful
// while the entry is active. Entry is defined in internal/slab, which
// owns the allocator mutating it; this is an alias so callers outside
// this module never import internal/slab directly.
type Entry = slab.Entry
