package block

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

/*
Three blocks meeting at an edge: A spans the full J extent on one side of
an I interface; B and C split that extent on the other side and meet each
other on a J interface. The swap order forces the T-intersection rule: the
first swap reaches for partner edge ghosts that do not exist yet, must
skip them, and must leave the border flags set so later state swaps never
overwrite the strips that belong to the third block.
*/
func tBlocks(t *testing.T) (a, b, c *Block, cAB, cAC, cBC boundary.Connection) {
	var (
		gh = 2
		d  = geom.Vec3{0.25, 0.125, 0.25}
	)
	aSurfs := []boundary.Surface{
		{Type: "slipWall", SurfType: boundary.SurfILow, IMin: 0, IMax: 0, JMin: 0, JMax: 8, KMin: 0, KMax: 4},
		{Type: "interblock", SurfType: boundary.SurfIHigh, IMin: 4, IMax: 4, JMin: 0, JMax: 4, KMin: 0, KMax: 4, Tag: 1},
		{Type: "interblock", SurfType: boundary.SurfIHigh, IMin: 4, IMax: 4, JMin: 4, JMax: 8, KMin: 0, KMax: 4, Tag: 2},
		{Type: "slipWall", SurfType: boundary.SurfJLow, IMin: 0, IMax: 4, JMin: 0, JMax: 0, KMin: 0, KMax: 4},
		{Type: "slipWall", SurfType: boundary.SurfJHigh, IMin: 0, IMax: 4, JMin: 8, JMax: 8, KMin: 0, KMax: 4},
		{Type: "slipWall", SurfType: boundary.SurfKLow, IMin: 0, IMax: 4, JMin: 0, JMax: 8, KMin: 0, KMax: 0},
		{Type: "slipWall", SurfType: boundary.SurfKHigh, IMin: 0, IMax: 4, JMin: 0, JMax: 8, KMin: 4, KMax: 4},
	}
	a = NewCartesianBlock(geom.Vec3{}, d, 4, 8, 4, gh, boundary.NewConditions(aSurfs))
	b = NewCartesianBlock(geom.Vec3{1, 0, 0}, d, 4, 4, 4, gh, boundary.NewCubeConditions(4, 4, 4,
		[6]string{"interblock", "slipWall", "slipWall", "interblock", "slipWall", "slipWall"}))
	c = NewCartesianBlock(geom.Vec3{1, 0.5, 0}, d, 4, 4, 4, gh, boundary.NewCubeConditions(4, 4, 4,
		[6]string{"interblock", "slipWall", "interblock", "slipWall", "slipWall", "slipWall"}))
	a.GlobalPos, b.GlobalPos, c.GlobalPos = 0, 1, 2

	find := func(blk *Block, surfType int) boundary.Surface {
		for n := 0; n < blk.BC.NumSurfaces(); n++ {
			if s := blk.BC.GetSurface(n); s.Type == "interblock" && s.SurfType == surfType {
				return s
			}
		}
		t.Fatalf("no interblock surface %d", surfType)
		return boundary.Surface{}
	}
	findTag := func(blk *Block, surfType, tag int) boundary.Surface {
		for n := 0; n < blk.BC.NumSurfaces(); n++ {
			s := blk.BC.GetSurface(n)
			if s.Type == "interblock" && s.SurfType == surfType && s.Tag == tag {
				return s
			}
		}
		t.Fatalf("no interblock surface %d tag %d", surfType, tag)
		return boundary.Surface{}
	}
	var err error
	cAB, err = boundary.NewConnection(0, 1, findTag(a, boundary.SurfIHigh, 1), find(b, boundary.SurfILow), 1)
	assert.NoError(t, err)
	cAC, err = boundary.NewConnection(0, 2, findTag(a, boundary.SurfIHigh, 2), find(c, boundary.SurfILow), 1)
	assert.NoError(t, err)
	cBC, err = boundary.NewConnection(1, 2, find(b, boundary.SurfJHigh), find(c, boundary.SurfJLow), 1)
	assert.NoError(t, err)

	a.AssignGhostCellsGeom()
	b.AssignGhostCellsGeom()
	c.AssignGhostCellsGeom()
	return
}

func TestTIntersectionGeometry(t *testing.T) {
	a, b, c, cAB, cAC, cBC := tBlocks(t)
	var (
		gh = 2
	)
	// the order matters: each of the first two swaps meets an unpopulated
	// partner edge
	assert.NoError(t, SwapGeomSlice(&cAB, a, b))
	assert.NoError(t, SwapGeomSlice(&cAC, a, c))
	assert.NoError(t, SwapGeomSlice(&cBC, b, c))

	// the A side of both A connections recorded the strip facing the
	// missing third block
	assert.True(t, cAB.Border[0][1], "A-B border above the junction")
	assert.True(t, cAC.Border[0][0], "A-C border below the junction")

	// every I-ghost column of A across the full J extent holds positive
	// volume from the proper donor
	for kp := gh; kp < 4+gh; kp++ {
		for jp := gh; jp < 8+gh; jp++ {
			for layer := 0; layer < gh; layer++ {
				var (
					gi  = 4 + gh + layer
					vol = a.Vol.At(gi, jp, kp)
				)
				assert.Greater(t, vol, 0., "A ghost (%d,%d,%d)", gi, jp, kp)
				var want float64
				if jp < 4+gh {
					want = b.Vol.At(gh+layer, jp, kp)
				} else {
					want = c.Vol.At(gh+layer, jp-4, kp)
				}
				assert.Equal(t, want, vol)
			}
		}
	}
}

func TestTIntersectionStateStrips(t *testing.T) {
	a, b, c, cAB, cAC, cBC := tBlocks(t)
	var (
		gh = 2
	)
	assert.NoError(t, SwapGeomSlice(&cAB, a, b))
	assert.NoError(t, SwapGeomSlice(&cAC, a, c))
	assert.NoError(t, SwapGeomSlice(&cBC, b, c))

	stamp := func(blk *Block, base float64) {
		for kp := 0; kp < blk.State.NumK(); kp++ {
			for jp := 0; jp < blk.State.NumJ(); jp++ {
				for ip := 0; ip < blk.State.NumI(); ip++ {
					q := quiescent
					q[0] = base + float64(ip) + 10.*float64(jp) + 100.*float64(kp)
					blk.State.Set(ip, jp, kp, q)
				}
			}
		}
	}
	stamp(a, 1000.)
	stamp(b, 2000.)
	stamp(c, 4000.)

	// swap in the same order; the bordered strips of the first swap must
	// survive untouched for the third block's data
	assert.NoError(t, SwapStateSlice(&cAB, a, b))
	assert.NoError(t, SwapStateSlice(&cAC, a, c))
	assert.NoError(t, SwapStateSlice(&cBC, b, c))

	for kp := gh; kp < 4+gh; kp++ {
		for jp := gh; jp < 8+gh; jp++ {
			for layer := 0; layer < gh; layer++ {
				var (
					gi   = 4 + gh + layer
					got  = a.State.At(gi, jp, kp)
					want fluid.PrimVars
				)
				if jp < 4+gh {
					want = b.State.At(gh+layer, jp, kp)
				} else {
					want = c.State.At(gh+layer, jp-4, kp)
				}
				assert.Equal(t, want, got, "A ghost (%d,%d,%d)", gi, jp, kp)
			}
		}
	}

	// B's edge ghosts past the junction came from A's contiguous interior
	for kp := gh; kp < 4+gh; kp++ {
		for jGhost := 4 + gh; jGhost < 4+2*gh; jGhost++ {
			for layer := 0; layer < gh; layer++ {
				gBi := gh - 1 - layer
				got := b.State.At(gBi, jGhost, kp)
				want := a.State.At(4+gh-1-layer, jGhost, kp)
				assert.Equal(t, want, got, "B edge ghost (%d,%d,%d)", gBi, jGhost, kp)
			}
		}
	}
}

func TestBlockSplitJoinRoundTrip(t *testing.T) {
	var (
		gh   = 2
		d    = geom.Vec3{0.125, 0.25, 0.25}
		orig = NewCartesianBlock(geom.Vec3{}, d, 8, 4, 4, gh, allSlipWalls(8, 4, 4))
	)
	orig.AssignGhostCellsGeom()
	for n := range orig.State.Data() {
		q := quiescent
		q[0] = 1. + 0.001*float64(n)
		orig.State.Data()[n] = q
	}
	work := NewCartesianBlock(geom.Vec3{}, d, 8, 4, 4, gh, allSlipWalls(8, 4, 4))
	work.AssignGhostCellsGeom()
	copy(work.State.Data(), orig.State.Data())

	var altered []boundary.Surface
	upper := work.Split(types.DirI, 3, 1, &altered)
	assert.Equal(t, 3, work.NI)
	assert.Equal(t, 5, upper.NI)
	assert.Equal(t, 1, upper.GlobalPos)
	// each half's ghosts at the cut already carry the other's interior
	assert.Equal(t, orig.State.At(3+gh, 3, 3), work.State.At(3+gh, 3, 3))

	work.Join(upper, types.DirI, &altered)
	assert.Equal(t, 8, work.NI)
	assert.Equal(t, orig.State.Data(), work.State.Data())
	assert.Equal(t, orig.Vol.Data(), work.Vol.Data())
	assert.Equal(t, orig.FAreaI.Data(), work.FAreaI.Data())
	assert.Equal(t, 6, work.BC.NumSurfaces())
}
