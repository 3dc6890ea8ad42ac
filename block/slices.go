package block

import (
	"fmt"

	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/comm"
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

/*
Slices are the bulk-transfer unit of the halo protocol. A donor block carves
the patch extent (widened by Gh tangentially, Gh deep along the normal) out
of its interior; the receiver writes it into its ghost region with
coordinates remapped by the connection's orientation tag.
*/

// GeomSlice carries the geometry of a carved region in the donor block's
// axis order.
type GeomSlice struct {
	ParentBlock                  int
	Vol                          types.Array3D[float64]
	Center                       types.Array3D[geom.Vec3]
	FAreaI, FAreaJ, FAreaK       types.Array3D[geom.UnitVec3Mag]
	FCenterI, FCenterJ, FCenterK types.Array3D[geom.Vec3]
}

func (s *GeomSlice) FArea(dir types.Direction) *types.Array3D[geom.UnitVec3Mag] {
	switch dir {
	case types.DirI:
		return &s.FAreaI
	case types.DirJ:
		return &s.FAreaJ
	default:
		return &s.FAreaK
	}
}

func (s *GeomSlice) FCenter(dir types.Direction) *types.Array3D[geom.Vec3] {
	switch dir {
	case types.DirI:
		return &s.FCenterI
	case types.DirJ:
		return &s.FCenterJ
	default:
		return &s.FCenterK
	}
}

// StateSlice carries cell states of a carved region.
type StateSlice struct {
	ParentBlock int
	State       types.Array3D[fluid.PrimVars]
}

// CarveGeomSlice copies the half-open padded cell range with the face
// arrays extended one entry along their own direction.
func (b *Block) CarveGeomSlice(is, ie, js, je, ks, ke int) (s GeomSlice, err error) {
	s.ParentBlock = b.ParentBlock
	if s.Vol, err = b.Vol.Slice(is, ie, js, je, ks, ke); err != nil {
		return
	}
	if s.Center, err = b.Center.Slice(is, ie, js, je, ks, ke); err != nil {
		return
	}
	if s.FAreaI, err = b.FAreaI.Slice(is, ie+1, js, je, ks, ke); err != nil {
		return
	}
	if s.FAreaJ, err = b.FAreaJ.Slice(is, ie, js, je+1, ks, ke); err != nil {
		return
	}
	if s.FAreaK, err = b.FAreaK.Slice(is, ie, js, je, ks, ke+1); err != nil {
		return
	}
	if s.FCenterI, err = b.FCenterI.Slice(is, ie+1, js, je, ks, ke); err != nil {
		return
	}
	if s.FCenterJ, err = b.FCenterJ.Slice(is, ie, js, je+1, ks, ke); err != nil {
		return
	}
	s.FCenterK, err = b.FCenterK.Slice(is, ie, js, je, ks, ke+1)
	return
}

func (b *Block) CarveStateSlice(is, ie, js, je, ks, ke int) (s StateSlice, err error) {
	s.ParentBlock = b.ParentBlock
	s.State, err = b.State.Slice(is, ie, js, je, ks, ke)
	return
}

/*
forEachSwapCell walks the receiving ghost region of one connection side and
reports, per cell: the extended patch coordinates, the destination padded
indices, and the donor slice-local indices under the orientation remap.
*/
func forEachSwapCell(conn *boundary.Connection, recvSide, gh int,
	fn func(t1, t2, layer, di, dj, dk, si, sj, sk int)) {
	var (
		donor                  = 1 - recvSide
		dIs, _, dJs, _, dKs, _ = conn.SliceIndices(donor, gh)
		l1, l2                 = conn.PatchLen1(recvSide), conn.PatchLen2(recvSide)
	)
	for t2 := -gh; t2 < l2+gh; t2++ {
		for t1 := -gh; t1 < l1+gh; t1++ {
			s1, s2 := conn.MapToDonor(recvSide, t1, t2)
			for layer := 0; layer < gh; layer++ {
				di, dj, dk := conn.GhostIndex(recvSide, t1, t2, layer, gh)
				pi, pj, pk := conn.InteriorIndex(donor, s1, s2, layer, gh)
				fn(t1, t2, layer, di, dj, dk, pi-dIs, pj-dJs, pk-dKs)
			}
		}
	}
}

/*
PutGeomSlice writes a partner's geometry slice into the receiver's ghost
region. A donor cell reporting zero volume has not itself been populated at
that edge yet (the T-intersection case); the write is skipped and the
touched patch edge is reported for border adjustment. Face areas flip sign
along axes that run against the donor's, and the upper/lower face entries
along such axes exchange roles.
*/
func (b *Block) PutGeomSlice(sl GeomSlice, conn *boundary.Connection, recvSide int) (adjEdges [4]bool, err error) {
	var (
		gh         = b.NumGhosts
		perm, sign = conn.AxisMap(recvSide, gh)
	)
	if errSh := checkSliceShape(&sl.Vol, conn, recvSide, gh); errSh != nil {
		err = errSh
		return
	}
	forEachSwapCell(conn, recvSide, gh, func(t1, t2, layer, di, dj, dk, si, sj, sk int) {
		if sl.Vol.At(si, sj, sk) == 0 {
			// partner edge not yet populated; mark for future adjustment
			for _, e := range conn.EdgeStrips(recvSide, t1, t2) {
				adjEdges[e] = true
			}
			return
		}
		b.Vol.Set(di, dj, dk, sl.Vol.At(si, sj, sk))
		b.Center.Set(di, dj, dk, sl.Center.At(si, sj, sk))

		dst := [3]int{di, dj, dk}
		src := [3]int{si, sj, sk}
		for r := types.DirI; r <= types.DirK; r++ {
			var (
				dA  = perm[r]
				fa  = b.FArea(r)
				fc  = b.FCenter(r)
				sfa = sl.FArea(dA)
				sfc = sl.FCenter(dA)
			)
			lowDst, highDst := dst, dst
			highDst[r]++
			lowSrc, highSrc := src, src
			highSrc[dA]++
			if sign[r] < 0 {
				// receiver's lower face is the donor's upper face, reversed
				lowSrc, highSrc = highSrc, lowSrc
				fa.Set(lowDst[0], lowDst[1], lowDst[2], sfa.At(lowSrc[0], lowSrc[1], lowSrc[2]).Reverse())
				fa.Set(highDst[0], highDst[1], highDst[2], sfa.At(highSrc[0], highSrc[1], highSrc[2]).Reverse())
			} else {
				fa.Set(lowDst[0], lowDst[1], lowDst[2], sfa.At(lowSrc[0], lowSrc[1], lowSrc[2]))
				fa.Set(highDst[0], highDst[1], highDst[2], sfa.At(highSrc[0], highSrc[1], highSrc[2]))
			}
			fc.Set(lowDst[0], lowDst[1], lowDst[2], sfc.At(lowSrc[0], lowSrc[1], lowSrc[2]))
			fc.Set(highDst[0], highDst[1], highDst[2], sfc.At(highSrc[0], highSrc[1], highSrc[2]))
		}
	})
	return
}

// PutStateSlice writes a partner's state slice into the ghost region,
// honoring the border flags established during geometry exchange.
func (b *Block) PutStateSlice(sl StateSlice, conn *boundary.Connection, recvSide int) (err error) {
	var (
		gh = b.NumGhosts
	)
	if errSh := checkSliceShape(&sl.State, conn, recvSide, gh); errSh != nil {
		err = errSh
		return
	}
	forEachSwapCell(conn, recvSide, gh, func(t1, t2, layer, di, dj, dk, si, sj, sk int) {
		if conn.OnBorderedStrip(recvSide, t1, t2) {
			return
		}
		b.State.Set(di, dj, dk, sl.State.At(si, sj, sk))
	})
	return
}

// PutUpdateSlice is the state-slice analogue for the implicit matrix update
// exchanged between sweeps.
func PutUpdateSlice(du *types.Array3D[fluid.ConsVars], sl types.Array3D[fluid.ConsVars],
	conn *boundary.Connection, recvSide, gh int) {
	forEachSwapCell(conn, recvSide, gh, func(t1, t2, layer, di, dj, dk, si, sj, sk int) {
		if conn.OnBorderedStrip(recvSide, t1, t2) {
			return
		}
		du.Set(di, dj, dk, sl.At(si, sj, sk))
	})
}

func checkSliceShape[T any](sl *types.Array3D[T], conn *boundary.Connection, recvSide, gh int) (err error) {
	var (
		donor                  = 1 - recvSide
		is, ie, js, je, ks, ke = conn.SliceIndices(donor, gh)
	)
	if sl.NumI() != ie-is || sl.NumJ() != je-js || sl.NumK() != ke-ks {
		err = fmt.Errorf("%w: received slice %dx%dx%d against expected %dx%dx%d between blocks %d and %d",
			types.ErrShapeMismatch, sl.NumI(), sl.NumJ(), sl.NumK(),
			ie-is, je-js, ke-ks, conn.Block[0], conn.Block[1])
	}
	return
}

/*
SwapGeomSlice exchanges geometry between the two sides of a connection when
both blocks are in-process. Edge-adjustment bits discovered on either side
are OR'd back into the connection's border flags.
*/
func SwapGeomSlice(conn *boundary.Connection, blk1, blk2 *Block) (err error) {
	var (
		gh     = blk1.NumGhosts
		slices [2]GeomSlice
	)
	for side, blk := range []*Block{blk1, blk2} {
		is, ie, js, je, ks, ke := conn.SliceIndices(side, gh)
		if slices[side], err = blk.CarveGeomSlice(is, ie, js, je, ks, ke); err != nil {
			return
		}
	}
	var adj [2][4]bool
	if adj[0], err = blk1.PutGeomSlice(slices[1], conn, 0); err != nil {
		return
	}
	if adj[1], err = blk2.PutGeomSlice(slices[0], conn, 1); err != nil {
		return
	}
	for side := 0; side < 2; side++ {
		for e := 0; e < 4; e++ {
			if adj[side][e] {
				conn.UpdateBorder(side, e)
			}
		}
	}
	return
}

// SwapStateSlice exchanges ghost states in-process.
func SwapStateSlice(conn *boundary.Connection, blk1, blk2 *Block) (err error) {
	var (
		gh     = blk1.NumGhosts
		slices [2]StateSlice
	)
	for side, blk := range []*Block{blk1, blk2} {
		is, ie, js, je, ks, ke := conn.SliceIndices(side, gh)
		if slices[side], err = blk.CarveStateSlice(is, ie, js, je, ks, ke); err != nil {
			return
		}
	}
	if err = blk1.PutStateSlice(slices[1], conn, 0); err != nil {
		return
	}
	err = blk2.PutStateSlice(slices[0], conn, 1)
	return
}

// packStateSlice and unpackStateSlice are the wire form of a state slice.
func packStateSlice(sl StateSlice) []byte {
	buf := comm.NewBuffer()
	buf.PackInts([]int{sl.ParentBlock, sl.State.NumI(), sl.State.NumJ(), sl.State.NumK()})
	buf.PackPrimVarsSlice(sl.State.Data())
	return buf.Bytes()
}

func unpackStateSlice(data []byte) (sl StateSlice, err error) {
	var (
		rd = comm.NewReader(data)
		hd []int
	)
	if hd, err = rd.UnpackInts(4); err != nil {
		return
	}
	sl.ParentBlock = hd[0]
	sl.State = types.NewArray3D[fluid.PrimVars](hd[1], hd[2], hd[3])
	var qs []fluid.PrimVars
	if qs, err = rd.UnpackPrimVarsSlice(sl.State.Size()); err != nil {
		return
	}
	copy(sl.State.Data(), qs)
	return
}

/*
SwapStateSliceBus runs one side of a cross-worker state swap: carve the
local slice, exchange synchronously with the peer worker, and place the
received partner slice. mySide is the connection side owned by this worker.
*/
func (b *Block) SwapStateSliceBus(conn *boundary.Connection, mySide int, bus comm.Bus, tag int) (err error) {
	var (
		gh   = b.NumGhosts
		peer = conn.Rank[1-mySide]
	)
	is, ie, js, je, ks, ke := conn.SliceIndices(mySide, gh)
	mine, err := b.CarveStateSlice(is, ie, js, je, ks, ke)
	if err != nil {
		return
	}
	data, err := bus.SendRecv(peer, tag, packStateSlice(mine))
	if err != nil {
		return
	}
	theirs, err := unpackStateSlice(data)
	if err != nil {
		return
	}
	err = b.PutStateSlice(theirs, conn, mySide)
	return
}

func packGeomSlice(sl GeomSlice) []byte {
	buf := comm.NewBuffer()
	buf.PackInts([]int{sl.ParentBlock, sl.Vol.NumI(), sl.Vol.NumJ(), sl.Vol.NumK()})
	buf.PackFloats(sl.Vol.Data())
	buf.PackVec3s(sl.Center.Data())
	buf.PackUnitVec3Mags(sl.FAreaI.Data())
	buf.PackUnitVec3Mags(sl.FAreaJ.Data())
	buf.PackUnitVec3Mags(sl.FAreaK.Data())
	buf.PackVec3s(sl.FCenterI.Data())
	buf.PackVec3s(sl.FCenterJ.Data())
	buf.PackVec3s(sl.FCenterK.Data())
	return buf.Bytes()
}

func unpackGeomSlice(data []byte) (sl GeomSlice, err error) {
	var (
		rd = comm.NewReader(data)
		hd []int
	)
	if hd, err = rd.UnpackInts(4); err != nil {
		return
	}
	var (
		nI, nJ, nK = hd[1], hd[2], hd[3]
	)
	sl.ParentBlock = hd[0]
	sl.Vol = types.NewArray3D[float64](nI, nJ, nK)
	sl.Center = types.NewArray3D[geom.Vec3](nI, nJ, nK)
	sl.FAreaI = types.NewArray3D[geom.UnitVec3Mag](nI+1, nJ, nK)
	sl.FAreaJ = types.NewArray3D[geom.UnitVec3Mag](nI, nJ+1, nK)
	sl.FAreaK = types.NewArray3D[geom.UnitVec3Mag](nI, nJ, nK+1)
	sl.FCenterI = types.NewArray3D[geom.Vec3](nI+1, nJ, nK)
	sl.FCenterJ = types.NewArray3D[geom.Vec3](nI, nJ+1, nK)
	sl.FCenterK = types.NewArray3D[geom.Vec3](nI, nJ, nK+1)

	var fs []float64
	if fs, err = rd.UnpackFloats(sl.Vol.Size()); err != nil {
		return
	}
	copy(sl.Vol.Data(), fs)
	var vs []geom.Vec3
	if vs, err = rd.UnpackVec3s(sl.Center.Size()); err != nil {
		return
	}
	copy(sl.Center.Data(), vs)
	for _, fa := range []*types.Array3D[geom.UnitVec3Mag]{&sl.FAreaI, &sl.FAreaJ, &sl.FAreaK} {
		var us []geom.UnitVec3Mag
		if us, err = rd.UnpackUnitVec3Mags(fa.Size()); err != nil {
			return
		}
		copy(fa.Data(), us)
	}
	for _, fc := range []*types.Array3D[geom.Vec3]{&sl.FCenterI, &sl.FCenterJ, &sl.FCenterK} {
		if vs, err = rd.UnpackVec3s(fc.Size()); err != nil {
			return
		}
		copy(fc.Data(), vs)
	}
	return
}

// SwapGeomSliceBus runs one side of a cross-worker geometry swap,
// recording this side's T-intersection adjustments on the connection.
func (b *Block) SwapGeomSliceBus(conn *boundary.Connection, mySide int, bus comm.Bus, tag int) (err error) {
	var (
		gh   = b.NumGhosts
		peer = conn.Rank[1-mySide]
	)
	is, ie, js, je, ks, ke := conn.SliceIndices(mySide, gh)
	mine, err := b.CarveGeomSlice(is, ie, js, je, ks, ke)
	if err != nil {
		return
	}
	data, err := bus.SendRecv(peer, tag, packGeomSlice(mine))
	if err != nil {
		return
	}
	theirs, err := unpackGeomSlice(data)
	if err != nil {
		return
	}
	adj, err := b.PutGeomSlice(theirs, conn, mySide)
	if err != nil {
		return
	}
	for e := 0; e < 4; e++ {
		if adj[e] {
			conn.UpdateBorder(mySide, e)
		}
	}
	return
}

// SwapUpdateSlice exchanges the implicit matrix update du in-process.
func SwapUpdateSlice(conn *boundary.Connection, du1, du2 *types.Array3D[fluid.ConsVars], gh int) {
	var (
		slices [2]types.Array3D[fluid.ConsVars]
		err    error
	)
	for side, du := range []*types.Array3D[fluid.ConsVars]{du1, du2} {
		is, ie, js, je, ks, ke := conn.SliceIndices(side, gh)
		if slices[side], err = du.Slice(is, ie, js, je, ks, ke); err != nil {
			return
		}
	}
	PutUpdateSlice(du1, slices[1], conn, 0, gh)
	PutUpdateSlice(du2, slices[0], conn, 1, gh)
}

// SwapUpdateSliceBus is the cross-worker form of SwapUpdateSlice.
func SwapUpdateSliceBus(conn *boundary.Connection, du *types.Array3D[fluid.ConsVars],
	mySide, gh int, bus comm.Bus, tag int) (err error) {
	var (
		peer = conn.Rank[1-mySide]
	)
	is, ie, js, je, ks, ke := conn.SliceIndices(mySide, gh)
	mine, err := du.Slice(is, ie, js, je, ks, ke)
	if err != nil {
		return
	}
	buf := comm.NewBuffer()
	buf.PackInts([]int{mine.NumI(), mine.NumJ(), mine.NumK()})
	buf.PackConsVarsSlice(mine.Data())
	data, err := bus.SendRecv(peer, tag, buf.Bytes())
	if err != nil {
		return
	}
	rd := comm.NewReader(data)
	hd, err := rd.UnpackInts(3)
	if err != nil {
		return
	}
	theirs := types.NewArray3D[fluid.ConsVars](hd[0], hd[1], hd[2])
	us, err := rd.UnpackConsVarsSlice(theirs.Size())
	if err != nil {
		return
	}
	copy(theirs.Data(), us)
	PutUpdateSlice(du, theirs, conn, mySide, gh)
	return
}
