package block

import (
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

/*
The viscous flux uses an alternate control volume centered on each face:
its in-direction faces pass through the two adjacent cell centers and its
tangential faces average the tangential faces of the two cells. Gradients
by Green-Gauss on this volume draw on ten cells in 3-D, which suppresses
odd-even decoupling of the diffusive terms.
*/
func (b *Block) calcViscFluxDir(d types.Direction, fp *FlowPhys) (err error) {
	var (
		gh       = b.NumGhosts
		nD       = b.NumDir(d)
		t1d, t2d = tangentials(d)
		n1, n2   = b.NumDir(t1d), b.NumDir(t2d)
		fa       = b.FArea(d)
		fc       = b.FCenter(d)
	)
	at := func(f, t1, t2 int) (i, j, k int) {
		return idxOf(d, f, t1d, t1, t2d, t2)
	}
	state := func(f, t1, t2 int) fluid.PrimVars {
		i, j, k := at(f, t1, t2)
		return b.State.At(i, j, k)
	}
	for t2 := gh; t2 < n2+gh; t2++ {
		for t1 := gh; t1 < n1+gh; t1++ {
			for f := gh; f <= nD+gh; f++ {
				var (
					fi, fj, fk = at(f, t1, t2)
					area       = fa.At(fi, fj, fk)
					li, lj, lk = at(f-1, t1, t2)
					qL, qU     = state(f-1, t1, t2), state(f, t1, t2)
					ctrF       = fc.At(fi, fj, fk)
					dL         = b.Center.At(li, lj, lk).DistTo(ctrF)
					dU         = b.Center.At(fi, fj, fk).DistTo(ctrF)
					wL         = dU / (dL + dU)
					wU         = dL / (dL + dU)
				)
				var faceQ fluid.PrimVars
				for n := range faceQ {
					faceQ[n] = wL*qL[n] + wU*qU[n]
				}
				// alternate control volume
				volA := 0.5 * (b.Vol.At(li, lj, lk) + b.Vol.At(fi, fj, fk))
				if volA == 0 {
					continue // unswapped corner region of a degenerate patch
				}
				// in-direction faces of the alternate volume
				var (
					fp1i, fp1j, fp1k = at(f+1, t1, t2)
				)
				aDLow := fa.At(li, lj, lk).Vector().Add(area.Vector()).Scale(0.5)
				aDUp := area.Vector().Add(fa.At(fp1i, fp1j, fp1k).Vector()).Scale(0.5)

				// tangential faces: area averages the two cells' faces,
				// values average the four cells around each face
				tangFace := func(td types.Direction, upper bool) (a geom.Vec3, q fluid.PrimVars) {
					var (
						faT = b.FArea(td)
						off = 0
					)
					if upper {
						off = 1
					}
					idxL, idxU := [3]int{li, lj, lk}, [3]int{fi, fj, fk}
					idxL[td] += off
					idxU[td] += off
					a = faT.At(idxL[0], idxL[1], idxL[2]).Vector().
						Add(faT.At(idxU[0], idxU[1], idxU[2]).Vector()).Scale(0.5)
					nbr := -1
					if upper {
						nbr = 1
					}
					cellL, cellU := [3]int{li, lj, lk}, [3]int{fi, fj, fk}
					nbrL, nbrU := cellL, cellU
					nbrL[td] += nbr
					nbrU[td] += nbr
					var (
						q1 = b.State.At(cellL[0], cellL[1], cellL[2])
						q2 = b.State.At(cellU[0], cellU[1], cellU[2])
						q3 = b.State.At(nbrL[0], nbrL[1], nbrL[2])
						q4 = b.State.At(nbrU[0], nbrU[1], nbrU[2])
					)
					for n := range q {
						q[n] = 0.25 * (q1[n] + q2[n] + q3[n] + q4[n])
					}
					return
				}
				a1Low, q1Low := tangFace(t1d, false)
				a1Up, q1Up := tangFace(t1d, true)
				a2Low, q2Low := tangFace(t2d, false)
				a2Up, q2Up := tangFace(t2d, true)

				var (
					eos     = fp.EOS
					velGrad = geom.VectorGradGG(
						qL.Velocity(), qU.Velocity(),
						q1Low.Velocity(), q1Up.Velocity(),
						q2Low.Velocity(), q2Up.Velocity(),
						aDLow, aDUp, a1Low, a1Up, a2Low, a2Up, volA)
					tGrad = geom.ScalarGradGG(
						qL.Temperature(eos), qU.Temperature(eos),
						q1Low.Temperature(eos), q1Up.Temperature(eos),
						q2Low.Temperature(eos), q2Up.Temperature(eos),
						aDLow, aDUp, a1Low, a1Up, a2Low, a2Up, volA)
					tkeGrad = geom.ScalarGradGG(
						qL.Tke(), qU.Tke(), q1Low.Tke(), q1Up.Tke(),
						q2Low.Tke(), q2Up.Tke(),
						aDLow, aDUp, a1Low, a1Up, a2Low, a2Up, volA)
					omgGrad = geom.ScalarGradGG(
						qL.Omega(), qU.Omega(), q1Low.Omega(), q1Up.Omega(),
						q2Low.Omega(), q2Up.Omega(),
						aDLow, aDUp, a1Low, a1Up, a2Low, a2Up, volA)
				)
				var (
					wd  = b.wallDistNear(fi, fj, fk)
					mu  = fp.Suth.Viscosity(faceQ.Temperature(eos))
					mut = fp.Turb.EddyViscosity(faceQ, velGrad, wd)
					fv  = ViscousFlux(velGrad, tGrad, tkeGrad, omgGrad,
						area.Unit, faceQ, mu, mut, eos, fp.Turb)
				)
				// opposite sign to the inviscid assembly
				b.addToResidual(li, lj, lk, fv.Scale(-area.Mag))
				b.addToResidual(fi, fj, fk, fv.Scale(area.Mag))

				if f < nD+gh {
					lam := ViscCellSpectralRadius(qU, area, fa.At(fp1i, fp1j, fp1k),
						mu, mut, b.Vol.At(fi, fj, fk), eos)
					b.viscRad(d).Set(fi-gh, fj-gh, fk-gh, lam)
				}
			}
		}
	}
	return
}

/*
CalcSrcTerms adds the turbulence source contribution -S*V at every interior
cell, with cell-centered Green-Gauss gradients built from face-averaged
neighbor states. The source jacobian spectral radius is kept for the
implicit diagonal.
*/
func (b *Block) CalcSrcTerms(fp *FlowPhys) {
	var (
		gh  = b.NumGhosts
		eos = fp.EOS
	)
	if fp.Turb.IsNone() {
		return
	}
	faceAvg := func(i, j, k int, d types.Direction, upper bool) fluid.PrimVars {
		nbr := [3]int{i, j, k}
		if upper {
			nbr[d]++
		} else {
			nbr[d]--
		}
		var (
			q1 = b.State.At(i, j, k)
			q2 = b.State.At(nbr[0], nbr[1], nbr[2])
			q  fluid.PrimVars
		)
		for n := range q {
			q[n] = 0.5 * (q1[n] + q2[n])
		}
		return q
	}
	for kp := 0; kp < b.NK; kp++ {
		for jp := 0; jp < b.NJ; jp++ {
			for ip := 0; ip < b.NI; ip++ {
				var (
					ig, jg, kg = ip + gh, jp + gh, kp + gh
					q          = b.State.At(ig, jg, kg)
					vol        = b.Vol.At(ig, jg, kg)
					ail        = b.FAreaI.At(ig, jg, kg).Vector()
					aiu        = b.FAreaI.At(ig+1, jg, kg).Vector()
					ajl        = b.FAreaJ.At(ig, jg, kg).Vector()
					aju        = b.FAreaJ.At(ig, jg+1, kg).Vector()
					akl        = b.FAreaK.At(ig, jg, kg).Vector()
					aku        = b.FAreaK.At(ig, jg, kg+1).Vector()
					qil        = faceAvg(ig, jg, kg, types.DirI, false)
					qiu        = faceAvg(ig, jg, kg, types.DirI, true)
					qjl        = faceAvg(ig, jg, kg, types.DirJ, false)
					qju        = faceAvg(ig, jg, kg, types.DirJ, true)
					qkl        = faceAvg(ig, jg, kg, types.DirK, false)
					qku        = faceAvg(ig, jg, kg, types.DirK, true)
				)
				velGrad := geom.VectorGradGG(
					qil.Velocity(), qiu.Velocity(), qjl.Velocity(), qju.Velocity(),
					qkl.Velocity(), qku.Velocity(),
					ail, aiu, ajl, aju, akl, aku, vol)
				tkeGrad := geom.ScalarGradGG(
					qil.Tke(), qiu.Tke(), qjl.Tke(), qju.Tke(), qkl.Tke(), qku.Tke(),
					ail, aiu, ajl, aju, akl, aku, vol)
				omgGrad := geom.ScalarGradGG(
					qil.Omega(), qiu.Omega(), qjl.Omega(), qju.Omega(),
					qkl.Omega(), qku.Omega(),
					ail, aiu, ajl, aju, akl, aku, vol)
				var (
					mu       = fp.Suth.Viscosity(q.Temperature(eos))
					src, rad = fp.Turb.Source(q, velGrad, tkeGrad, omgGrad,
						mu, b.WallDist.At(ip, jp, kp))
				)
				// residual sits on the other side of the equation
				b.Residual.Set(ip, jp, kp, b.Residual.At(ip, jp, kp).Sub(src.Scale(vol)))
				b.SrcRad.Set(ip, jp, kp, rad*vol)
			}
		}
	}
}
