package imsm

import (
	"unsafe"

	"github.com/pkhuong/direct-mode-fsm/internal/frame"
)

// List is a frame-scoped, recyclable stretchy buffer of (pointer, aux)
// pairs — the scratch container [StageIO] reads from and returns.
type List = frame.List

// Cache is a size-bucketed pool of [List] values, reused frame over
// frame by the poll [harness]'s end-of-frame [Cache.Recycle] call.
type Cache = frame.Cache

// Push appends v (as *T) with the given aux value onto l, returning
// false if l is already at capacity.
func Push[T any](l *List, v *T, aux uint64) bool {
	return l.Push(unsafe.Pointer(v), aux)
}

// At returns the *T at index i of l.
func At[T any](l *List, i int) *T {
	return (*T)(l.At(i))
}
