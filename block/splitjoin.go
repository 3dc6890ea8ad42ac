package block

import (
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/types"
)

// sliceDir carves a half-open range along one direction, full extent in the
// others. Ranges are internal invariants here, so a failure panics.
func sliceDir[T any](a *types.Array3D[T], dir types.Direction, lo, hi int) types.Array3D[T] {
	var (
		los = [3]int{0, 0, 0}
		his = [3]int{a.NumI(), a.NumJ(), a.NumK()}
	)
	los[dir], his[dir] = lo, hi
	s, err := a.Slice(los[0], his[0], los[1], his[1], los[2], his[2])
	if err != nil {
		panic(err)
	}
	return s
}

// insertDir writes src along one direction at offset lo, full extent in the
// others.
func insertDir[T any](a *types.Array3D[T], src types.Array3D[T], dir types.Direction, lo int) {
	var (
		los = [3]int{0, 0, 0}
		his = [3]int{a.NumI(), a.NumJ(), a.NumK()}
	)
	los[dir] = lo
	his[dir] = lo + []int{src.NumI(), src.NumJ(), src.NumK()}[dir]
	if err := a.Insert(los[0], his[0], los[1], his[1], los[2], his[2], src); err != nil {
		panic(err)
	}
}

/*
Split cuts the block at the plane dir=ind (cell units). The receiver
becomes the lower half; the upper half is returned as a new block with
global position newId. Ghost layers on both sides of the cut carry the
neighboring half's interior values, so a subsequent geometry swap only
refreshes them. Cut interblock patches are reported through altered.
*/
func (b *Block) Split(dir types.Direction, ind, newId int, altered *[]boundary.Surface) (upper *Block) {
	var (
		gh      = b.NumGhosts
		nLow    = ind
		nUp     = b.NumDir(dir) - ind
		lowDims = [3]int{b.NI, b.NJ, b.NK}
		upDims  = [3]int{b.NI, b.NJ, b.NK}
	)
	lowDims[dir], upDims[dir] = nLow, nUp
	upper = NewBlock(upDims[0], upDims[1], upDims[2], gh)
	lower := NewBlock(lowDims[0], lowDims[1], lowDims[2], gh)

	copyMeta := func(dst *Block) {
		dst.ParentBlock = b.ParentBlock
		dst.ParentStartI, dst.ParentEndI = b.ParentStartI, b.ParentEndI
		dst.ParentStartJ, dst.ParentEndJ = b.ParentStartJ, b.ParentEndJ
		dst.ParentStartK, dst.ParentEndK = b.ParentStartK, b.ParentEndK
		dst.Rank = b.Rank
	}
	copyMeta(lower)
	copyMeta(upper)
	lower.GlobalPos = b.GlobalPos
	upper.GlobalPos = newId
	switch dir {
	case types.DirI:
		lower.ParentEndI = b.ParentStartI + ind
		upper.ParentStartI = b.ParentStartI + ind
	case types.DirJ:
		lower.ParentEndJ = b.ParentStartJ + ind
		upper.ParentStartJ = b.ParentStartJ + ind
	default:
		lower.ParentEndK = b.ParentStartK + ind
		upper.ParentStartK = b.ParentStartK + ind
	}

	// padded cell arrays: the lower half keeps [0, ind+2gh), the upper
	// [ind, n+2gh); each half's ghosts at the cut are the other's interior
	lower.State = sliceDir(&b.State, dir, 0, nLow+2*gh)
	upper.State = sliceDir(&b.State, dir, ind, ind+nUp+2*gh)
	lower.Vol = sliceDir(&b.Vol, dir, 0, nLow+2*gh)
	upper.Vol = sliceDir(&b.Vol, dir, ind, ind+nUp+2*gh)
	lower.Center = sliceDir(&b.Center, dir, 0, nLow+2*gh)
	upper.Center = sliceDir(&b.Center, dir, ind, ind+nUp+2*gh)

	for d := types.DirI; d <= types.DirK; d++ {
		var inc int
		if d == dir {
			inc = 1
		}
		*lower.FArea(d) = sliceDir(b.FArea(d), dir, 0, nLow+2*gh+inc)
		*upper.FArea(d) = sliceDir(b.FArea(d), dir, ind, ind+nUp+2*gh+inc)
		*lower.FCenter(d) = sliceDir(b.FCenter(d), dir, 0, nLow+2*gh+inc)
		*upper.FCenter(d) = sliceDir(b.FCenter(d), dir, ind, ind+nUp+2*gh+inc)
	}

	// interior arrays
	lower.Residual = sliceDir(&b.Residual, dir, 0, nLow)
	upper.Residual = sliceDir(&b.Residual, dir, ind, ind+nUp)
	lower.Dt = sliceDir(&b.Dt, dir, 0, nLow)
	upper.Dt = sliceDir(&b.Dt, dir, ind, ind+nUp)
	lower.AvgWaveSpeed = sliceDir(&b.AvgWaveSpeed, dir, 0, nLow)
	upper.AvgWaveSpeed = sliceDir(&b.AvgWaveSpeed, dir, ind, ind+nUp)
	lower.WallDist = sliceDir(&b.WallDist, dir, 0, nLow)
	upper.WallDist = sliceDir(&b.WallDist, dir, ind, ind+nUp)
	lower.SolN = sliceDir(&b.SolN, dir, 0, nLow)
	upper.SolN = sliceDir(&b.SolN, dir, ind, ind+nUp)
	lower.SolNm1 = sliceDir(&b.SolNm1, dir, 0, nLow)
	upper.SolNm1 = sliceDir(&b.SolNm1, dir, ind, ind+nUp)

	bc := b.BC
	upper.BC = bc.Split(dir, ind, b.GlobalPos, newId, altered)
	lower.BC = bc

	*b = *lower
	return
}

// Join stitches the upper half back onto the receiver along dir. The upper
// ghosts of the lower half are dropped; the seam interior comes wholly from
// each half's own cells.
func (b *Block) Join(other *Block, dir types.Direction, altered *[]boundary.Surface) {
	var (
		gh   = b.NumGhosts
		nLow = b.NumDir(dir)
		nUp  = other.NumDir(dir)
		dims = [3]int{b.NI, b.NJ, b.NK}
	)
	dims[dir] = nLow + nUp
	joined := NewBlock(dims[0], dims[1], dims[2], gh)
	joined.ParentBlock = b.ParentBlock
	joined.ParentStartI, joined.ParentEndI = b.ParentStartI, b.ParentEndI
	joined.ParentStartJ, joined.ParentEndJ = b.ParentStartJ, b.ParentEndJ
	joined.ParentStartK, joined.ParentEndK = b.ParentStartK, b.ParentEndK
	joined.Rank, joined.GlobalPos, joined.LocalPos = b.Rank, b.GlobalPos, b.LocalPos
	switch dir {
	case types.DirI:
		joined.ParentEndI = other.ParentEndI
	case types.DirJ:
		joined.ParentEndJ = other.ParentEndJ
	default:
		joined.ParentEndK = other.ParentEndK
	}

	insertDir(&joined.State, sliceDir(&b.State, dir, 0, nLow+gh), dir, 0)
	insertDir(&joined.State, sliceDir(&other.State, dir, gh, nUp+2*gh), dir, nLow+gh)
	insertDir(&joined.Vol, sliceDir(&b.Vol, dir, 0, nLow+gh), dir, 0)
	insertDir(&joined.Vol, sliceDir(&other.Vol, dir, gh, nUp+2*gh), dir, nLow+gh)
	insertDir(&joined.Center, sliceDir(&b.Center, dir, 0, nLow+gh), dir, 0)
	insertDir(&joined.Center, sliceDir(&other.Center, dir, gh, nUp+2*gh), dir, nLow+gh)

	for d := types.DirI; d <= types.DirK; d++ {
		var inc int
		if d == dir {
			inc = 1
		}
		insertDir(joined.FArea(d), sliceDir(b.FArea(d), dir, 0, nLow+gh), dir, 0)
		insertDir(joined.FArea(d), sliceDir(other.FArea(d), dir, gh, nUp+2*gh+inc), dir, nLow+gh)
		insertDir(joined.FCenter(d), sliceDir(b.FCenter(d), dir, 0, nLow+gh), dir, 0)
		insertDir(joined.FCenter(d), sliceDir(other.FCenter(d), dir, gh, nUp+2*gh+inc), dir, nLow+gh)
	}

	insertDir(&joined.Residual, sliceDir(&b.Residual, dir, 0, nLow), dir, 0)
	insertDir(&joined.Residual, sliceDir(&other.Residual, dir, 0, nUp), dir, nLow)
	insertDir(&joined.Dt, sliceDir(&b.Dt, dir, 0, nLow), dir, 0)
	insertDir(&joined.Dt, sliceDir(&other.Dt, dir, 0, nUp), dir, nLow)
	insertDir(&joined.AvgWaveSpeed, sliceDir(&b.AvgWaveSpeed, dir, 0, nLow), dir, 0)
	insertDir(&joined.AvgWaveSpeed, sliceDir(&other.AvgWaveSpeed, dir, 0, nUp), dir, nLow)
	insertDir(&joined.WallDist, sliceDir(&b.WallDist, dir, 0, nLow), dir, 0)
	insertDir(&joined.WallDist, sliceDir(&other.WallDist, dir, 0, nUp), dir, nLow)
	insertDir(&joined.SolN, sliceDir(&b.SolN, dir, 0, nLow), dir, 0)
	insertDir(&joined.SolN, sliceDir(&other.SolN, dir, 0, nUp), dir, nLow)
	insertDir(&joined.SolNm1, sliceDir(&b.SolNm1, dir, 0, nLow), dir, 0)
	insertDir(&joined.SolNm1, sliceDir(&other.SolNm1, dir, 0, nUp), dir, nLow)

	bc := b.BC
	bc.Join(other.BC, dir, nLow, altered)
	joined.BC = bc

	*b = *joined
}
