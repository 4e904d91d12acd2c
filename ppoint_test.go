package imsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexStableForRepeatedCalls(t *testing.T) {
	ctx := NewCtx()
	site := NewSite("test.site-a")

	first := ctx.Index(site, Iteration{})
	second := ctx.Index(site, Iteration{})
	third := ctx.Index(site, Iteration{})

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

func TestIndexAdvancesOnSiteChange(t *testing.T) {
	ctx := NewCtx()
	siteA := NewSite("test.site-a")
	siteB := NewSite("test.site-b")

	a := ctx.Index(siteA, Iteration{})
	b := ctx.Index(siteB, Iteration{})
	aAgain := ctx.Index(siteA, Iteration{})

	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, aAgain)
}

func TestIndexDistinctPerIteration(t *testing.T) {
	ctx := NewCtx()
	site := NewSite("test.loop")

	seen := map[uint32]bool{}
	for i := 0; i < 8; i++ {
		idx := ctx.Index(site, NewIteration(i))
		assert.False(t, seen[idx], "index %d reused across iterations", idx)
		seen[idx] = true
	}
}

func TestIndexLoopRepeatsWithinIteration(t *testing.T) {
	ctx := NewCtx()
	site := NewSite("test.loop-repeat")

	for i := 0; i < 4; i++ {
		iter := NewIteration(i)
		first := ctx.Index(site, iter)
		second := ctx.Index(site, iter)
		assert.Equal(t, first, second)
	}
}

func TestResetReturnsToInitialPosition(t *testing.T) {
	ctx := NewCtx()
	site := NewSite("test.reset")

	before := ctx.Index(site, Iteration{})
	ctx.Index(NewSite("test.other"), Iteration{})
	ctx.Reset()
	after := ctx.Index(site, Iteration{})

	assert.Equal(t, before, after)
}

func TestIteration128Compares(t *testing.T) {
	a := NewIteration128(1, 2)
	b := NewIteration128(1, 2)
	c := NewIteration128(1, 3)
	d := NewIteration128(2, 2)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestRegionForcesFreshIndex(t *testing.T) {
	ctx := NewCtx()
	site := NewSite("test.in-region")

	outside := ctx.Index(site, Iteration{})

	var inside1, inside2 uint32
	Region(ctx, NewSite("test.region"), Iteration{}, func() {
		inside1 = ctx.Index(site, Iteration{})
		inside2 = ctx.Index(site, Iteration{})
	})

	afterRegion := ctx.Index(site, Iteration{})

	// Within the region, repeated calls are still stable...
	assert.Equal(t, inside1, inside2)
	// ...but distinct from the same site reached outside any region.
	assert.NotEqual(t, outside, inside1)
	assert.NotEqual(t, afterRegion, inside1)
}

func TestNestedRegionsEachGetFreshIndices(t *testing.T) {
	ctx := NewCtx()
	site := NewSite("test.nested-site")

	var outer, inner uint32
	Region(ctx, NewSite("test.outer"), Iteration{}, func() {
		outer = ctx.Index(site, Iteration{})
		Region(ctx, NewSite("test.inner"), Iteration{}, func() {
			inner = ctx.Index(site, Iteration{})
		})
	})

	assert.NotEqual(t, outer, inner)
}

// TestRegionNestingExactIndices hand-traces the region-nesting worked
// example: index("a")=0 outside any region; inside region_push,
// index("a")=1; after pop, index("a")=2. RegionPush itself must not
// consume an index — only the site calls inside/outside the region do.
func TestRegionNestingExactIndices(t *testing.T) {
	ctx := NewCtx()
	a := NewSite("test.a")

	outside := ctx.Index(a, Iteration{})
	assert.EqualValues(t, 0, outside)

	var inside uint32
	Region(ctx, NewSite("test.region"), Iteration{}, func() {
		inside = ctx.Index(a, Iteration{})
	})
	assert.EqualValues(t, 1, inside)

	after := ctx.Index(a, Iteration{})
	assert.EqualValues(t, 2, after)
}

func TestRegionPopTwicePanics(t *testing.T) {
	ctx := NewCtx()
	u := ctx.RegionPush(NewSite("test.double-pop"), Iteration{})
	u.Pop()
	assert.Panics(t, func() { u.Pop() })
}

func TestRegionPopOutOfOrderPanics(t *testing.T) {
	ctx := NewCtx()
	outer := ctx.RegionPush(NewSite("test.outer-order"), Iteration{})
	inner := ctx.RegionPush(NewSite("test.inner-order"), Iteration{})

	assert.Panics(t, func() { outer.Pop() })

	inner.Pop()
	outer.Pop()
}

func TestRegionPanicStillReleases(t *testing.T) {
	ctx := NewCtx()
	site := NewSite("test.panic-region")

	assert.Panics(t, func() {
		Region(ctx, site, Iteration{}, func() {
			panic("boom")
		})
	})

	// The region was released despite the panic: no region is left open,
	// and a fresh region can be pushed and popped.
	assert.Zero(t, ctx.regionDepth)
	assert.NotPanics(t, func() {
		u := ctx.RegionPush(NewSite("test.after-panic"), Iteration{})
		u.Pop()
	})
}
