package block

import (
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

/*
Residual assembly sweeps every physical face of the block in each
direction. Fluxes add +F*A to the cell below the face and -F*A to the cell
above it; the outermost faces only touch the one physical cell they bound.
The inviscid pass also accumulates the per-direction convective spectral
radii at each cell.
*/

// CalcResidualNoSource assembles the inviscid and, when enabled, viscous
// residual contributions of the block.
func (b *Block) CalcResidualNoSource(fp *FlowPhys) (err error) {
	b.ResetResiduals()
	for d := types.DirI; d <= types.DirK; d++ {
		if err = b.calcInvFluxDir(d, fp); err != nil {
			return
		}
	}
	if fp.Inp.IsViscous() {
		for d := types.DirI; d <= types.DirK; d++ {
			if err = b.calcViscFluxDir(d, fp); err != nil {
				return
			}
		}
	}
	return
}

// addToResidual accumulates into the interior residual; padded cell indices
// outside the physical range are dropped.
func (b *Block) addToResidual(ig, jg, kg int, df fluid.ConsVars) {
	var (
		gh         = b.NumGhosts
		ip, jp, kp = ig - gh, jg - gh, kg - gh
	)
	if ip < 0 || jp < 0 || kp < 0 || ip >= b.NI || jp >= b.NJ || kp >= b.NK {
		return
	}
	b.Residual.Set(ip, jp, kp, b.Residual.At(ip, jp, kp).Add(df))
}

func (b *Block) specRad(d types.Direction) *types.Array3D[float64] {
	switch d {
	case types.DirI:
		return &b.SpecRadI
	case types.DirJ:
		return &b.SpecRadJ
	default:
		return &b.SpecRadK
	}
}

func (b *Block) viscRad(d types.Direction) *types.Array3D[float64] {
	switch d {
	case types.DirI:
		return &b.ViscRadI
	case types.DirJ:
		return &b.ViscRadJ
	default:
		return &b.ViscRadK
	}
}

// tangentials returns the two directions orthogonal to d.
func tangentials(d types.Direction) (t1, t2 types.Direction) {
	switch d {
	case types.DirI:
		return types.DirJ, types.DirK
	case types.DirJ:
		return types.DirI, types.DirK
	default:
		return types.DirI, types.DirJ
	}
}

func idxOf(d types.Direction, f int, t1d types.Direction, t1 int, t2d types.Direction, t2 int) (i, j, k int) {
	var idx [3]int
	idx[d], idx[t1d], idx[t2d] = f, t1, t2
	return idx[0], idx[1], idx[2]
}

func (b *Block) calcInvFluxDir(d types.Direction, fp *FlowPhys) (err error) {
	var (
		gh          = b.NumGhosts
		nD          = b.NumDir(d)
		t1d, t2d    = tangentials(d)
		n1, n2      = b.NumDir(t1d), b.NumDir(t2d)
		fa          = b.FArea(d)
		fc          = b.FCenter(d)
		secondOrder = fp.Inp.IsSecondOrder()
		kappa       = fp.Inp.Kappa
		lim         LimiterType
	)
	if secondOrder {
		lim = NewLimiterType(fp.Inp.Limiter)
	}
	cellAt := func(f, t1, t2 int) fluid.PrimVars {
		i, j, k := idxOf(d, f, t1d, t1, t2d, t2)
		return b.State.At(i, j, k)
	}
	faceCtr := func(f, t1, t2 int) geom.Vec3 {
		i, j, k := idxOf(d, f, t1d, t1, t2d, t2)
		return fc.At(i, j, k)
	}
	for t2 := gh; t2 < n2+gh; t2++ {
		for t1 := gh; t1 < n1+gh; t1++ {
			for f := gh; f <= nD+gh; f++ {
				fi, fj, fk := idxOf(d, f, t1d, t1, t2d, t2)
				var (
					area  = fa.At(fi, fj, fk)
					left  = cellAt(f-1, t1, t2)
					right = cellAt(f, t1, t2)
				)
				if secondOrder {
					var (
						hUU = faceCtr(f-1, t1, t2).DistTo(faceCtr(f-2, t1, t2))
						hU  = faceCtr(f, t1, t2).DistTo(faceCtr(f-1, t1, t2))
						hD  = faceCtr(f+1, t1, t2).DistTo(faceCtr(f, t1, t2))
					)
					left = faceReconMUSCL(cellAt(f-2, t1, t2), cellAt(f-1, t1, t2),
						cellAt(f, t1, t2), hUU, hU, hD, kappa, lim)
					var (
						hUUr = faceCtr(f+2, t1, t2).DistTo(faceCtr(f+1, t1, t2))
					)
					right = faceReconMUSCL(cellAt(f+1, t1, t2), cellAt(f, t1, t2),
						cellAt(f-1, t1, t2), hUUr, hD, hU, kappa, lim)
				}
				flux := RoeFlux(left, right, area.Unit, fp.EOS)
				li, lj, lk := idxOf(d, f-1, t1d, t1, t2d, t2)
				b.addToResidual(li, lj, lk, flux.Scale(area.Mag))
				b.addToResidual(fi, fj, fk, flux.Scale(-area.Mag))

				// convective spectral radius at the face's upper cell, whose
				// lower face is this one
				if f < nD+gh {
					ui, uj, uk := idxOf(d, f+1, t1d, t1, t2d, t2)
					lam := CellSpectralRadius(b.State.At(fi, fj, fk),
						fa.At(fi, fj, fk), fa.At(ui, uj, uk), fp.EOS)
					b.specRad(d).Set(fi-gh, fj-gh, fk-gh, lam)
				}
			}
		}
	}
	return
}
