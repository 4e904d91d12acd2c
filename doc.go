// Package imsm implements the runtime substrate for immediate-mode state
// machines (IMSM): event-driven servers structured as a single periodic
// poll function that re-derives, from scratch, what work each managed
// object must do.
//
// # Architecture
//
// Each [Machine] owns a magazine-backed slab allocator over a
// caller-supplied arena ([internal/slab]) and a process-wide registry
// slot used to encode 64-bit [Ref] handles. A [Ctx] carries the current
// program-point position, and a [Cache] ([internal/frame]) supplies
// recycled scratch lists; both belong to the poll loop, not to a Machine.
// The [StageIO] operator composes these: at one program point per frame
// it assigns incoming entries to a queue and returns that queue's
// currently-pending members.
//
// A [harness.Driver] (see the harness package) drives the frame loop:
// drain notifications, call the user's poll function, recycle list
// buffers, reset program-point state.
//
// # Concurrency
//
// A single [Machine] is owned by exactly one goroutine; nothing in this
// package synchronizes slab, list-cache, or [Ctx] access. The only
// process-wide shared state is the machine registry, guarded by a narrow
// mutex, written only at [Init] and teardown and read by [Deref],
// [DerefMachine] and [Notify].
//
// # Logging
//
// [Logger] is a thin seam over github.com/joeycumines/logiface. With no
// logger configured, logging is entirely skipped; configured or not, it
// is never called from the [Machine.Get]/[Machine.Put]/[StageIO] hot
// path — only from [Init]. Teardown, slab exhaustion and [InvariantError]
// panics are not logged.
package imsm
