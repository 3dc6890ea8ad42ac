package block

import (
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

/*
Ghost geometry is synthesized after construction so every flux and
reconstruction loop can index uniformly across physical and ghost ranges.
Volumes and face areas are copied outward from the interior; cell centers
are reflected through the boundary face. Interblock patches are skipped;
their geometry arrives through the slice swap, and their ghost volumes stay
at the zero sentinel until it does.
*/
func (b *Block) AssignGhostCellsGeom() {
	for n := 0; n < b.BC.NumSurfaces(); n++ {
		s := b.BC.GetSurface(n)
		if s.BCType() == boundary.BC_Interblock {
			continue
		}
		b.assignGhostGeomSurface(s)
	}
	b.assignGhostGeomEdges()
}

func (b *Block) assignGhostGeomSurface(s boundary.Surface) {
	var (
		gh       = b.NumGhosts
		d3       = s.Direction3()
		d1       = s.Direction1()
		d2       = s.Direction2()
		n3       = b.NumDir(d3)
		lower    = s.IsLower()
		lo1, hi1 = s.Range1()
		lo2, hi2 = s.Range2()
		fc3      = b.FCenter(d3)
		fa3      = b.FArea(d3)
	)
	// padded indices along d3 for ghost layer g, interior source cell, the
	// boundary face, and the matching interior/ghost in-direction faces
	ghost := func(layer int) int {
		if lower {
			return gh - layer
		}
		return n3 + gh + layer - 1
	}
	interior := func(layer int) int {
		if n3 < layer { // single-cell block reuses the first interior layer
			layer = n3
		}
		if lower {
			return gh + layer - 1
		}
		return n3 + gh - layer
	}
	boundFace := gh
	if !lower {
		boundFace = n3 + gh
	}
	ghostFace := func(layer int) int {
		if lower {
			return gh - layer
		}
		return n3 + gh + layer
	}
	interiorFace := func(layer int) int {
		if n3 < layer {
			layer = n3
		}
		if lower {
			return gh + layer
		}
		return n3 + gh - layer
	}
	at := func(t1, t2, c3 int) (i, j, k int) {
		var idx [3]int
		idx[d1], idx[d2], idx[d3] = t1+gh, t2+gh, c3
		return idx[0], idx[1], idx[2]
	}
	for t2 := lo2; t2 < hi2; t2++ {
		for t1 := lo1; t1 < hi1; t1++ {
			for layer := 1; layer <= gh; layer++ {
				gi, gj, gk := at(t1, t2, ghost(layer))
				si, sj, sk := at(t1, t2, interior(layer))
				bi, bj, bk := at(t1, t2, boundFace)

				b.Vol.Set(gi, gj, gk, b.Vol.At(si, sj, sk))
				fcB := fc3.At(bi, bj, bk)
				// reflect the cell center through the boundary face
				b.Center.Set(gi, gj, gk, fcB.Scale(2).Sub(b.Center.At(si, sj, sk)))

				// in-direction face of the ghost layer mirrors the matching
				// interior face
				gfi, gfj, gfk := at(t1, t2, ghostFace(layer))
				ifi, ifj, ifk := at(t1, t2, interiorFace(layer))
				fa3.Set(gfi, gfj, gfk, fa3.At(ifi, ifj, ifk))
				fc3.Set(gfi, gfj, gfk, fcB.Scale(2).Sub(fc3.At(ifi, ifj, ifk)))

				// tangential face arrays copy across, shifted by the
				// center offset for the centroids
				offset := b.Center.At(gi, gj, gk).Sub(b.Center.At(si, sj, sk))
				for _, dt := range []types.Direction{d1, d2} {
					fat, fct := b.FArea(dt), b.FCenter(dt)
					// both tangential faces of the cell in direction dt
					for o := 0; o <= 1; o++ {
						var gIdx, sIdx [3]int
						gIdx[d1], gIdx[d2], gIdx[d3] = t1+gh, t2+gh, ghost(layer)
						sIdx[d1], sIdx[d2], sIdx[d3] = t1+gh, t2+gh, interior(layer)
						gIdx[dt] += o
						sIdx[dt] += o
						fat.Set(gIdx[0], gIdx[1], gIdx[2], fat.At(sIdx[0], sIdx[1], sIdx[2]))
						fct.Set(gIdx[0], gIdx[1], gIdx[2], fct.At(sIdx[0], sIdx[1], sIdx[2]).Add(offset))
					}
				}
			}
		}
	}
}

/*
edgeSpec names one of the 12 block edges: the two directions whose ghosts
meet (da, db), the lower/upper choice in each, and the edge-aligned
direction dc.
*/
type edgeSpec struct {
	da, db, dc types.Direction
	loA, loB   bool
}

func (b *Block) edges() (es []edgeSpec) {
	pairs := []struct{ da, db, dc types.Direction }{
		{types.DirI, types.DirJ, types.DirK},
		{types.DirI, types.DirK, types.DirJ},
		{types.DirJ, types.DirK, types.DirI},
	}
	for _, p := range pairs {
		for _, loA := range []bool{true, false} {
			for _, loB := range []bool{true, false} {
				es = append(es, edgeSpec{da: p.da, db: p.db, dc: p.dc, loA: loA, loB: loB})
			}
		}
	}
	return
}

// ghostIdx returns the padded index of ghost layer g (1 or 2) on the chosen
// side of direction d; interiorIdx the interior layer of the same number,
// counted inward from that boundary and clamped to the cell count.
func (b *Block) ghostIdx(d types.Direction, lower bool, layer int) int {
	if lower {
		return b.NumGhosts - layer
	}
	return b.NumDir(d) + b.NumGhosts + layer - 1
}

func (b *Block) interiorIdx(d types.Direction, lower bool, layer int) int {
	if b.NumDir(d) < layer {
		layer = b.NumDir(d)
	}
	if lower {
		return b.NumGhosts + layer - 1
	}
	return b.NumDir(d) + b.NumGhosts - layer
}

/*
fillEdge applies the edge-ghost stencil of one cell-extent array along one
edge: the diagonal pair averages its two face-ghost neighbors, the
off-diagonal pairs copy straight across, and the far corner averages the
off-diagonal results.
*/
func fillEdge[T any](arr *types.Array3D[T], b *Block, e edgeSpec, cLo, cHi int,
	avg func(T, T) T, shift [3]int) {
	var (
		g1a = b.ghostIdx(e.da, e.loA, 1) + shiftOf(shift, e.da, e.loA)
		g2a = b.ghostIdx(e.da, e.loA, 2) + shiftOf(shift, e.da, e.loA)
		i1a = b.interiorIdx(e.da, e.loA, 1) + shiftOf(shift, e.da, e.loA)
		g1b = b.ghostIdx(e.db, e.loB, 1) + shiftOf(shift, e.db, e.loB)
		g2b = b.ghostIdx(e.db, e.loB, 2) + shiftOf(shift, e.db, e.loB)
		i1b = b.interiorIdx(e.db, e.loB, 1) + shiftOf(shift, e.db, e.loB)
	)
	at := func(a, bb, c int) (i, j, k int) {
		var idx [3]int
		idx[e.da], idx[e.db], idx[e.dc] = a, bb, c
		return idx[0], idx[1], idx[2]
	}
	get := func(a, bb, c int) T {
		i, j, k := at(a, bb, c)
		return arr.At(i, j, k)
	}
	set := func(a, bb, c int, v T) {
		i, j, k := at(a, bb, c)
		arr.Set(i, j, k, v)
	}
	for c := cLo; c < cHi; c++ {
		set(g1a, g1b, c, avg(get(i1a, g1b, c), get(g1a, i1b, c)))
		set(g1a, g2b, c, get(i1a, g2b, c))
		set(g2a, g1b, c, get(g2a, i1b, c))
		set(g2a, g2b, c, avg(get(g1a, g2b, c), get(g2a, g1b, c)))
	}
}

// shiftOf biases face-array indices on upper sides, where the outer face of
// a cell sits one entry beyond the cell index.
func shiftOf(shift [3]int, d types.Direction, lower bool) int {
	if lower {
		return 0
	}
	return shift[d]
}

func (b *Block) assignGhostGeomEdges() {
	var (
		gh   = b.NumGhosts
		avgF = func(x, y float64) float64 { return 0.5 * (x + y) }
		avgV = func(x, y geom.Vec3) geom.Vec3 { return x.Add(y).Scale(0.5) }
		avgA = func(x, y geom.UnitVec3Mag) geom.UnitVec3Mag {
			return geom.NewUnitVec3Mag(x.Vector().Add(y.Vector()).Scale(0.5))
		}
	)
	for _, e := range b.edges() {
		var (
			cLo = gh
			cHi = b.NumDir(e.dc) + gh
		)
		fillEdge(&b.Vol, b, e, cLo, cHi, avgF, [3]int{})
		fillEdge(&b.Center, b, e, cLo, cHi, avgV, [3]int{})
		// face arrays: the in-edge direction keeps both entries
		for dF := types.DirI; dF <= types.DirK; dF++ {
			var (
				lo, hi = cLo, cHi
				shift  [3]int
			)
			if dF == e.dc {
				hi++ // extra face entry along the edge
			} else {
				shift[dF] = 1 // outer face of upper-side ghosts
			}
			fillEdge(b.FArea(dF), b, e, lo, hi, avgA, shift)
			fillEdge(b.FCenter(dF), b, e, lo, hi, avgV, shift)
		}
	}
}
