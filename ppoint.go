package imsm

import "runtime"

// Site is a per-call-site descriptor. Its pointer identity — not its
// contents — is what the program-point tracker compares, so a program
// normally allocates exactly one *Site per call site, in a package-level
// var initialized with [NewSite]:
//
//	var sitePacketRead = imsm.NewSite("packet-read")
//
// Function/File/Line are captured purely for diagnostics (logging,
// panics) and play no role in index derivation.
type Site struct {
	Name     string
	Function string
	File     string
	Line     int
}

// NewSite captures the caller's location and returns a fresh *Site.
func NewSite(name string) *Site {
	s := &Site{Name: name}
	if pc, file, line, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			s.Function = fn.Name()
		}
		s.File = file
		s.Line = line
	}
	return s
}

// Iteration is a 128-bit loop-iteration identifier, compared as a pair
// of uint64 halves. The zero Iteration is the identifier used outside
// any loop.
type Iteration struct {
	Hi, Lo uint64
}

// NewIteration builds an Iteration from a small loop counter.
func NewIteration(i int) Iteration { return Iteration{Lo: uint64(i)} }

// NewIterationU64 builds an Iteration from a 64-bit loop counter.
func NewIterationU64(i uint64) Iteration { return Iteration{Lo: i} }

// NewIteration128 builds an Iteration from an explicit 128-bit pair, for
// callers nesting loop counters into both halves (e.g. outer*inner).
func NewIteration128(hi, lo uint64) Iteration { return Iteration{Hi: hi, Lo: lo} }

// position is the mutable program-point cursor carried by a Ctx.
type position struct {
	ppoint    *Site
	iteration Iteration
	index     uint32
}

// Ctx tracks the current program point across one pass of a poll
// function: a sequence of [Ctx.Index] and [Ctx.RegionPush]/[Unwind.Pop]
// calls derives a monotonically increasing index from call-site
// identity, loop iteration, and region nesting, entirely from the
// control flow of straight-line code re-run every frame. A Ctx is not
// safe for concurrent use; a poll function owns exactly one.
type Ctx struct {
	position    position
	regionDepth int
}

// NewCtx returns a Ctx with its position at the initial record.
func NewCtx() *Ctx {
	return &Ctx{}
}

// Index returns the current program-point index for (site, iter):
// repeated calls with an identical (site, iter) pair return the same
// value; any change yields exactly one more than the previous result.
// This is the core primitive behind [StageIO] and is what lets a poll
// function identify per-object logical state without any explicit
// scheduler.
func (ctx *Ctx) Index(site *Site, iter Iteration) uint32 {
	if ctx.position.ppoint != site || ctx.position.iteration != iter {
		ctx.position.ppoint = site
		ctx.position.iteration = iter
		ctx.position.index++
	}
	return ctx.position.index - 1
}

// Reset returns ctx's position to its initial state, as done once per
// frame by the poll [harness] after the user's poll function returns.
func (ctx *Ctx) Reset() {
	ctx.position = position{}
}

// Unwind is the handle returned by [Ctx.RegionPush], guaranteeing a
// region is released exactly once, in LIFO order relative to any
// sibling region pushed after it.
type Unwind struct {
	ctx   *Ctx
	depth int
	done  bool
}

// RegionPush clears ctx's current position so that every subsequent
// Index call — until the matching Pop — is treated as a change, making
// the same source site reached under a different dynamic region always
// yield a distinct index. site and iter are neither indexed nor
// recorded. Regions nest strictly LIFO;
// see [Ctx.RegionPush]'s [Unwind.Pop].
func (ctx *Ctx) RegionPush(site *Site, iter Iteration) *Unwind {
	ctx.regionDepth++
	u := &Unwind{ctx: ctx, depth: ctx.regionDepth}
	ctx.position.ppoint = nil
	return u
}

// Pop releases the region u was returned for. It panics with an
// [InvariantError] if called more than once, or out of LIFO order
// relative to a still-open sibling region — both are programming
// errors in the caller, not runtime conditions.
func (u *Unwind) Pop() {
	if u.done {
		panic(newInvariantError(ErrCodeRegionImbalance, "region_pop called twice on the same unwind record"))
	}
	if u.depth != u.ctx.regionDepth {
		panic(newInvariantError(ErrCodeRegionImbalance, "region_pop called out of LIFO order (region %d still open above %d)", u.ctx.regionDepth, u.depth))
	}
	u.ctx.regionDepth--
	u.ctx.position.ppoint = nil
	u.done = true
}

// Region runs fn with a region pushed for (site, iter), guaranteeing
// Pop runs on every exit path from fn, including a panic.
func Region(ctx *Ctx, site *Site, iter Iteration, fn func()) {
	u := ctx.RegionPush(site, iter)
	defer u.Pop()
	fn()
}
