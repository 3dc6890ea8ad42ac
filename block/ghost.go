package block

import (
	"fmt"

	"github.com/notargets/mbcfd/InputParameters"
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

/*
Ghost states are produced in three phases: the per-surface physical BC pass
(viscousWall stands in as slipWall until the viscous pass), the interblock
slice swap run by the driver, and the edge pass that fills ghosts with two
coordinates outside the physical range. The BC and edge passes leave corner
ghosts (three coordinates outside) untouched; the interblock slice swaps
copy them along with the rest of each padded slice.
*/

// GhostState evaluates the ghost generator for one boundary tag. interior is
// the source cell state, normal the outward unit normal of the boundary
// face, layer the ghost layer being produced.
func (b *Block) GhostState(bt boundary.BCType, interior fluid.PrimVars, normal geom.Vec3,
	layer int, wallDist float64, fp *FlowPhys) (ghost fluid.PrimVars, err error) {
	var (
		fs = fp.FS
	)
	switch bt {
	case boundary.BC_SlipWall:
		// reflect the velocity through the wall plane; both layers mirror
		// their interior counterpart
		ghost = interior
		vn := interior.Velocity().Dot(normal)
		ghost[1] -= 2 * vn * normal.X()
		ghost[2] -= 2 * vn * normal.Y()
		ghost[3] -= 2 * vn * normal.Z()
	case boundary.BC_ViscousWall:
		// no-slip: full velocity reversal so the face average vanishes
		ghost = interior
		ghost[1], ghost[2], ghost[3] = -interior.U(), -interior.V(), -interior.W()
		if !fp.Turb.IsNone() {
			mu := fp.Suth.Viscosity(interior.Temperature(fp.EOS))
			tkeW, omgW := fp.Turb.WallState(interior, mu, wallDist)
			ghost[5] = 2*tkeW - interior.Tke()
			ghost[6] = 2*omgW - interior.Omega()
		}
	case boundary.BC_SubsonicInflow:
		ghost = fs.Qinf
		ghost[4] = interior.P()
	case boundary.BC_SubsonicOutflow:
		ghost = interior
		ghost[4] = fs.Pinf
	case boundary.BC_SupersonicInflow:
		ghost = fs.Qinf
	case boundary.BC_SupersonicOutflow:
		ghost = interior
	case boundary.BC_Characteristic:
		// pick the variant from the normal Mach number of the interior state
		vn := interior.Velocity().Dot(normal)
		a := interior.SoS(fp.EOS)
		switch {
		case vn <= -a:
			ghost, err = b.GhostState(boundary.BC_SupersonicInflow, interior, normal, layer, wallDist, fp)
		case vn < 0:
			ghost, err = b.GhostState(boundary.BC_SubsonicInflow, interior, normal, layer, wallDist, fp)
		case vn < a:
			ghost, err = b.GhostState(boundary.BC_SubsonicOutflow, interior, normal, layer, wallDist, fp)
		default:
			ghost, err = b.GhostState(boundary.BC_SupersonicOutflow, interior, normal, layer, wallDist, fp)
		}
	default:
		err = fmt.Errorf("%w: no ghost generator for boundary condition %s on block %d",
			types.ErrConfigMismatch, bt.Print(), b.ParentBlock)
	}
	return
}

// FlowPhys bundles the physics collaborators every ghost and flux routine
// consumes.
type FlowPhys struct {
	EOS  fluid.IdealGas
	Suth fluid.Sutherland
	Turb Turbulence
	FS   *fluid.FreeStream
	Inp  *InputParameters.Input
}

// Turbulence is re-exported here to keep the block package signature-stable
// against the closure set.
type Turbulence interface {
	IsNone() bool
	EddyViscosity(q fluid.PrimVars, velGrad geom.Tensor, wallDist float64) float64
	Source(q fluid.PrimVars, velGrad geom.Tensor, tkeGrad, omegaGrad geom.Vec3,
		mu, wallDist float64) (src fluid.ConsVars, specRad float64)
	SigmaK() float64
	SigmaW() float64
	WallState(q fluid.PrimVars, mu, wallDist float64) (tke, omega float64)
}

// AssignInviscidGhostCells is phase one: every non-interblock surface patch
// populates its ghost layers. viscousWall is treated as slipWall here.
func (b *Block) AssignInviscidGhostCells(fp *FlowPhys) (err error) {
	for n := 0; n < b.BC.NumSurfaces(); n++ {
		s := b.BC.GetSurface(n)
		bt := s.BCType()
		if bt == boundary.BC_Interblock {
			continue
		}
		if bt == boundary.BC_ViscousWall {
			bt = boundary.BC_SlipWall
		}
		if err = b.assignGhostSurface(s, bt, fp); err != nil {
			return
		}
	}
	return
}

// AssignViscousGhostCells overwrites the slipWall stand-in on viscousWall
// patches with the real no-slip ghost states, then redoes the edge logic
// with the viscous-vs-non-viscous distinction.
func (b *Block) AssignViscousGhostCells(fp *FlowPhys) (err error) {
	var (
		any bool
	)
	for n := 0; n < b.BC.NumSurfaces(); n++ {
		s := b.BC.GetSurface(n)
		if s.BCType() != boundary.BC_ViscousWall {
			continue
		}
		any = true
		if err = b.assignGhostSurface(s, boundary.BC_ViscousWall, fp); err != nil {
			return
		}
	}
	if any {
		err = b.assignGhostEdges(fp, func(bt boundary.BCType) bool {
			return bt == boundary.BC_ViscousWall
		})
	}
	return
}

// AssignInviscidGhostCellsEdge is phase three; it must run only after every
// interblock swap has completed, since edge ghosts read face ghosts the
// swap delivers.
func (b *Block) AssignInviscidGhostCellsEdge(fp *FlowPhys) (err error) {
	err = b.assignGhostEdges(fp, func(bt boundary.BCType) bool {
		return bt.IsWall()
	})
	return
}

func (b *Block) assignGhostSurface(s boundary.Surface, bt boundary.BCType, fp *FlowPhys) (err error) {
	var (
		gh         = b.NumGhosts
		d1, d2, d3 = s.Direction1(), s.Direction2(), s.Direction3()
		n3         = b.NumDir(d3)
		lower      = s.IsLower()
		lo1, hi1   = s.Range1()
		lo2, hi2   = s.Range2()
		fa3        = b.FArea(d3)
	)
	boundFace := gh
	if !lower {
		boundFace = n3 + gh
	}
	at := func(t1, t2, c3 int) (i, j, k int) {
		var idx [3]int
		idx[d1], idx[d2], idx[d3] = t1+gh, t2+gh, c3
		return idx[0], idx[1], idx[2]
	}
	for t2 := lo2; t2 < hi2; t2++ {
		for t1 := lo1; t1 < hi1; t1++ {
			bi, bj, bk := at(t1, t2, boundFace)
			normal := fa3.At(bi, bj, bk).Unit
			if lower {
				normal = normal.Scale(-1)
			}
			// layer one generates from the first interior cell, layer two
			// from the second; slipWall reflects its source either way
			for layer := 1; layer <= gh; layer++ {
				si, sj, sk := at(t1, t2, b.interiorIdx(d3, lower, layer))
				gi, gj, gk := at(t1, t2, b.ghostIdx(d3, lower, layer))
				wd := b.wallDistNear(si, sj, sk)
				var q fluid.PrimVars
				if q, err = b.GhostState(bt, b.State.At(si, sj, sk), normal, layer, wd, fp); err != nil {
					return
				}
				b.State.Set(gi, gj, gk, q)
			}
		}
	}
	return
}

// wallDistNear reads the wall distance of the interior cell nearest a
// padded index, clamped into the interior extent.
func (b *Block) wallDistNear(ig, jg, kg int) float64 {
	var (
		gh = b.NumGhosts
	)
	clamp := func(v, n int) int {
		if v < 0 {
			return 0
		}
		if v >= n {
			return n - 1
		}
		return v
	}
	return b.WallDist.At(clamp(ig-gh, b.NI), clamp(jg-gh, b.NJ), clamp(kg-gh, b.NK))
}

/*
assignGhostEdges fills the edge ghosts. Per edge and per position along it,
the two touching boundary tags choose the rule: matching wall-ness averages
per the stencil; a single wall extends the wall ghost generator along the
wall normal, sourcing from the neighboring ghost strip.
*/
func (b *Block) assignGhostEdges(fp *FlowPhys, isWall func(boundary.BCType) bool) (err error) {
	var (
		gh = b.NumGhosts
	)
	for _, e := range b.edges() {
		var (
			n3 = b.NumDir(e.dc)
		)
		for c := 0; c < n3; c++ {
			tagA := b.surfTagAtEdge(e.da, e.loA, e.db, e.loB, c)
			tagB := b.surfTagAtEdge(e.db, e.loB, e.da, e.loA, c)
			if tagA == "undefined" || tagB == "undefined" ||
				tagA == "interblock" || tagB == "interblock" {
				// interblock edges are delivered by the slice swap
				continue
			}
			var (
				btA   = boundary.NewBCType(tagA)
				btB   = boundary.NewBCType(tagB)
				wallA = isWall(btA)
				wallB = isWall(btB)
			)
			switch {
			case wallA == wallB:
				b.averageEdgeColumn(e, c+gh)
			case wallA:
				err = b.wallExtendEdgeColumn(e, c+gh, btA, true, fp)
			default:
				err = b.wallExtendEdgeColumn(e, c+gh, btB, false, fp)
			}
			if err != nil {
				return
			}
		}
	}
	return
}

// surfTagAtEdge queries the BC tag on the dA-side surface at the interior
// cell hugging the edge, position c along the edge direction.
func (b *Block) surfTagAtEdge(dA types.Direction, loA bool, dB types.Direction, loB bool, c int) string {
	var (
		idx  [3]int
		surf int
	)
	// interior cell adjacent to both boundaries, physical units
	idx[dA] = 0
	if !loA {
		idx[dA] = b.NumDir(dA) - 1
	}
	idx[dB] = 0
	if !loB {
		idx[dB] = b.NumDir(dB) - 1
	}
	for d := types.DirI; d <= types.DirK; d++ {
		if d != dA && d != dB {
			idx[d] = c
		}
	}
	switch dA {
	case types.DirI:
		surf = boundary.SurfILow
	case types.DirJ:
		surf = boundary.SurfJLow
	default:
		surf = boundary.SurfKLow
	}
	if !loA {
		surf++
	}
	return b.BC.GetBCName(idx[0], idx[1], idx[2], surf)
}

func (b *Block) averageEdgeColumn(e edgeSpec, c int) {
	avg := func(x, y fluid.PrimVars) (z fluid.PrimVars) {
		for n := range z {
			z[n] = 0.5 * (x[n] + y[n])
		}
		return
	}
	var (
		g1a = b.ghostIdx(e.da, e.loA, 1)
		g2a = b.ghostIdx(e.da, e.loA, 2)
		i1a = b.interiorIdx(e.da, e.loA, 1)
		g1b = b.ghostIdx(e.db, e.loB, 1)
		g2b = b.ghostIdx(e.db, e.loB, 2)
		i1b = b.interiorIdx(e.db, e.loB, 1)
	)
	at := func(a, bb int) (i, j, k int) {
		var idx [3]int
		idx[e.da], idx[e.db], idx[e.dc] = a, bb, c
		return idx[0], idx[1], idx[2]
	}
	get := func(a, bb int) fluid.PrimVars {
		i, j, k := at(a, bb)
		return b.State.At(i, j, k)
	}
	set := func(a, bb int, v fluid.PrimVars) {
		i, j, k := at(a, bb)
		b.State.Set(i, j, k, v)
	}
	set(g1a, g1b, avg(get(i1a, g1b), get(g1a, i1b)))
	set(g1a, g2b, get(i1a, g2b))
	set(g2a, g1b, get(g2a, i1b))
	set(g2a, g2b, avg(get(g1a, g2b), get(g2a, g1b)))
}

// wallExtendEdgeColumn runs the wall ghost generator along the wall normal
// for the four edge-ghost cells of one column. wallOnA says the wall is the
// da-side boundary.
func (b *Block) wallExtendEdgeColumn(e edgeSpec, c int, bt boundary.BCType, wallOnA bool, fp *FlowPhys) (err error) {
	var (
		dW, dO   = e.da, e.db // wall direction and the other direction
		loW, loO = e.loA, e.loB
	)
	if !wallOnA {
		dW, dO = e.db, e.da
		loW, loO = e.loB, e.loA
	}
	var (
		fa3 = b.FArea(dW)
	)
	at := func(w, o int) (i, j, k int) {
		var idx [3]int
		idx[dW], idx[dO], idx[e.dc] = w, o, c
		return idx[0], idx[1], idx[2]
	}
	boundFace := b.NumGhosts
	if !loW {
		boundFace = b.NumDir(dW) + b.NumGhosts
	}
	for lo := 1; lo <= b.NumGhosts; lo++ { // layer along the other direction
		var (
			oIdx = b.ghostIdx(dO, loO, lo)
		)
		bi, bj, bk := at(boundFace, oIdx)
		normal := fa3.At(bi, bj, bk).Unit
		if loW {
			normal = normal.Scale(-1)
		}
		for lw := 1; lw <= b.NumGhosts; lw++ { // layer along the wall normal
			si, sj, sk := at(b.interiorIdx(dW, loW, lw), oIdx)
			gi, gj, gk := at(b.ghostIdx(dW, loW, lw), oIdx)
			wd := b.wallDistNear(si, sj, sk)
			var q fluid.PrimVars
			if q, err = b.GhostState(bt, b.State.At(si, sj, sk), normal, lw, wd, fp); err != nil {
				return
			}
			b.State.Set(gi, gj, gk, q)
		}
	}
	return
}
