package block

import (
	"math"

	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

/*
The implicit operator linearizes the Beam-Warming two-parameter temporal
scheme with a matrix-free jacobian approximation

	A*S ~ 1/2 * (A_c*S + sigma*K*I)

where K is the spectral radius and A_c is applied as the change in the
convective flux under a candidate delta-U. No jacobian is stored; the
linear system is relaxed by symmetric Gauss-Seidel sweeps over hyperplanes
i+j+k = const, or by the DPLUR point relaxation.
*/

// HyperplaneReorder produces the cell visitation order of the LU-SGS
// sweeps: all cells of hyperplane p before any cell of plane p+1, so lower
// neighbors are always current in the forward sweep.
func HyperplaneReorder(nI, nJ, nK int) (reorder [][3]int) {
	var (
		numPlanes = nI + nJ + nK - 2
	)
	reorder = make([][3]int, 0, nI*nJ*nK)
	for pp := 0; pp < numPlanes; pp++ {
		for kk := 0; kk < nK; kk++ {
			for jj := 0; jj < nJ; jj++ {
				for ii := 0; ii < nI; ii++ {
					if ii+jj+kk == pp {
						reorder = append(reorder, [3]int{ii, jj, kk})
					}
				}
			}
		}
	}
	return
}

/*
CalcMainDiagonal fills the scalar implicit diagonal

	A_ii = (lambda_sum + V*(1+zeta)/(dt*theta) + tau) * sigma

with tau = lambda_sum/CFL_dual under dual time stepping and the turbulence
source jacobian folded in.
*/
func (b *Block) CalcMainDiagonal(diag *types.Array3D[float64], fp *FlowPhys) {
	var (
		inp   = fp.Inp
		gh    = b.NumGhosts
		theta = inp.Theta()
		zeta  = inp.Zeta()
		sigma = inp.MatrixRelaxation
	)
	for kp := 0; kp < b.NK; kp++ {
		for jp := 0; jp < b.NJ; jp++ {
			for ip := 0; ip < b.NI; ip++ {
				var (
					lamSum = b.SpecRadI.At(ip, jp, kp) + b.SpecRadJ.At(ip, jp, kp) +
						b.SpecRadK.At(ip, jp, kp)
				)
				if inp.IsViscous() {
					lamSum += inp.ViscousCoeff() * (b.ViscRadI.At(ip, jp, kp) +
						b.ViscRadJ.At(ip, jp, kp) + b.ViscRadK.At(ip, jp, kp))
				}
				var tau float64
				if inp.IsDualTime() {
					tau = lamSum / inp.DualTimeCFL
				}
				aii := (lamSum + b.Vol.At(ip+gh, jp+gh, kp+gh)*(1.+zeta)/
					(b.Dt.At(ip, jp, kp)*theta) + tau + b.SrcRad.At(ip, jp, kp)) * sigma
				diag.Set(ip, jp, kp, aii)
			}
		}
	}
}

// InitializeMatrixUpdate allocates the padded delta-U array; ghost entries
// receive partner updates through the inter-sweep swap.
func (b *Block) InitializeMatrixUpdate() (du types.Array3D[fluid.ConsVars]) {
	pI, pJ, pK := b.PaddedDims()
	du = types.NewArray3D[fluid.ConsVars](pI, pJ, pK)
	return
}

// rhsTerm is the right-hand side of the linear system at one interior
// cell: -R/theta minus the temporal history terms.
func (b *Block) rhsTerm(ip, jp, kp int, fp *FlowPhys) (rhs fluid.ConsVars) {
	var (
		inp   = fp.Inp
		gh    = b.NumGhosts
		theta = inp.Theta()
		zeta  = inp.Zeta()
		vol   = b.Vol.At(ip+gh, jp+gh, kp+gh)
		dt    = b.Dt.At(ip, jp, kp)
	)
	rhs = b.Residual.At(ip, jp, kp).Scale(-1. / theta)
	if zeta != 0 {
		// time n minus time n-1
		dNm1 := b.SolN.At(ip, jp, kp).Sub(b.SolNm1.At(ip, jp, kp)).
			Scale(zeta * vol / (dt * theta))
		rhs = rhs.Sub(dNm1)
	}
	if inp.IsDualTime() {
		uM := b.State.At(ip+gh, jp+gh, kp+gh).Cons(fp.EOS)
		dMn := uM.Sub(b.SolN.At(ip, jp, kp)).Scale((1. + zeta) * vol / (dt * theta))
		rhs = rhs.Sub(dMn)
	}
	return
}

// neighborTerm evaluates 1/2*(A*dF +/- sigma*lambda*dU) for one neighbor
// across the shared face. plusLam selects the lower-neighbor sign.
func (b *Block) neighborTerm(nI, nJ, nK int, face geom.UnitVec3Mag, dU fluid.ConsVars,
	plusLam bool, fp *FlowPhys) (term fluid.ConsVars) {
	var (
		eos   = fp.EOS
		sigma = fp.Inp.MatrixRelaxation
		q     = b.State.At(nI, nJ, nK)
		qNew  = q.UpdateWithCons(dU, eos)
	)
	// spectral radius at the neighbor after the tentative update
	lam := CellSpectralRadius(qNew, b.FAreaI.At(nI, nJ, nK), b.FAreaI.At(nI+1, nJ, nK), eos)
	lamJ := CellSpectralRadius(qNew, b.FAreaJ.At(nI, nJ, nK), b.FAreaJ.At(nI, nJ+1, nK), eos)
	lamK := CellSpectralRadius(qNew, b.FAreaK.At(nI, nJ, nK), b.FAreaK.At(nI, nJ, nK+1), eos)
	lam = math.Max(lam, math.Max(lamJ, lamK))
	if fp.Inp.IsViscous() {
		mu := fp.Suth.Viscosity(qNew.Temperature(eos))
		lam += fp.Inp.ViscousCoeff() * ViscCellSpectralRadius(qNew,
			b.FAreaI.At(nI, nJ, nK), b.FAreaI.At(nI+1, nJ, nK), mu, 0.,
			b.Vol.At(nI, nJ, nK), eos)
	}
	var (
		dF = fluid.ConvectiveFlux(qNew, face.Unit, eos).
			Sub(fluid.ConvectiveFlux(q, face.Unit, eos))
		s = sigma * lam
	)
	if !plusLam {
		s = -s
	}
	for n := range term {
		term[n] = 0.5 * (face.Mag*dF[n] + s*dU[n])
	}
	return
}

/*
LUSGSForward runs the forward Gauss-Seidel sweep in hyperplane order. Lower
neighbor contributions read the current delta-U, which the ordering
guarantees is already updated within the block; across blocks the ghost
entries hold the previous sweep's swapped values.
*/
func (b *Block) LUSGSForward(reorder [][3]int, du *types.Array3D[fluid.ConsVars],
	diag *types.Array3D[float64], fp *FlowPhys) {
	var (
		gh = b.NumGhosts
	)
	for _, c := range reorder {
		var (
			ip, jp, kp = c[0], c[1], c[2]
			ig, jg, kg = ip + gh, jp + gh, kp + gh
			l          fluid.ConsVars
		)
		// i, j, k lower neighbors across the cell's lower faces
		l = l.Add(b.neighborTerm(ig-1, jg, kg, b.FAreaI.At(ig, jg, kg), du.At(ig-1, jg, kg), true, fp))
		l = l.Add(b.neighborTerm(ig, jg-1, kg, b.FAreaJ.At(ig, jg, kg), du.At(ig, jg-1, kg), true, fp))
		l = l.Add(b.neighborTerm(ig, jg, kg-1, b.FAreaK.At(ig, jg, kg), du.At(ig, jg, kg-1), true, fp))

		rhs := b.rhsTerm(ip, jp, kp, fp).Add(l)
		du.Set(ig, jg, kg, rhs.Scale(1./diag.At(ip, jp, kp)))
	}
}

// LUSGSBackward mirrors the forward sweep with the upper neighbors and
// returns the squared norm of the applied correction as the matrix error.
func (b *Block) LUSGSBackward(reorder [][3]int, du *types.Array3D[fluid.ConsVars],
	diag *types.Array3D[float64], fp *FlowPhys) (matErr float64) {
	var (
		gh = b.NumGhosts
	)
	for n := len(reorder) - 1; n >= 0; n-- {
		var (
			c          = reorder[n]
			ip, jp, kp = c[0], c[1], c[2]
			ig, jg, kg = ip + gh, jp + gh, kp + gh
			u          fluid.ConsVars
		)
		u = u.Add(b.neighborTerm(ig+1, jg, kg, b.FAreaI.At(ig+1, jg, kg), du.At(ig+1, jg, kg), false, fp))
		u = u.Add(b.neighborTerm(ig, jg+1, kg, b.FAreaJ.At(ig, jg+1, kg), du.At(ig, jg+1, kg), false, fp))
		u = u.Add(b.neighborTerm(ig, jg, kg+1, b.FAreaK.At(ig, jg, kg+1), du.At(ig, jg, kg+1), false, fp))

		corr := u.Scale(1. / diag.At(ip, jp, kp))
		du.Set(ig, jg, kg, du.At(ig, jg, kg).Sub(corr))
		for eq := range corr {
			matErr += corr[eq] * corr[eq]
		}
	}
	return
}

/*
DPLUR performs one diagonalized point-LU relaxation: every neighbor
contribution reads the previous sweep's delta-U, so the update order is
immaterial. Returns the squared norm of the change.
*/
func (b *Block) DPLUR(du *types.Array3D[fluid.ConsVars], diag *types.Array3D[float64],
	fp *FlowPhys) (matErr float64) {
	var (
		gh   = b.NumGhosts
		prev = types.NewArray3D[fluid.ConsVars](du.NumI(), du.NumJ(), du.NumK())
	)
	copy(prev.Data(), du.Data())
	for kp := 0; kp < b.NK; kp++ {
		for jp := 0; jp < b.NJ; jp++ {
			for ip := 0; ip < b.NI; ip++ {
				var (
					ig, jg, kg = ip + gh, jp + gh, kp + gh
					acc        fluid.ConsVars
				)
				acc = acc.Add(b.neighborTerm(ig-1, jg, kg, b.FAreaI.At(ig, jg, kg), prev.At(ig-1, jg, kg), true, fp))
				acc = acc.Add(b.neighborTerm(ig, jg-1, kg, b.FAreaJ.At(ig, jg, kg), prev.At(ig, jg-1, kg), true, fp))
				acc = acc.Add(b.neighborTerm(ig, jg, kg-1, b.FAreaK.At(ig, jg, kg), prev.At(ig, jg, kg-1), true, fp))
				acc = acc.Sub(b.neighborTerm(ig+1, jg, kg, b.FAreaI.At(ig+1, jg, kg), prev.At(ig+1, jg, kg), false, fp))
				acc = acc.Sub(b.neighborTerm(ig, jg+1, kg, b.FAreaJ.At(ig, jg+1, kg), prev.At(ig, jg+1, kg), false, fp))
				acc = acc.Sub(b.neighborTerm(ig, jg, kg+1, b.FAreaK.At(ig, jg, kg+1), prev.At(ig, jg, kg+1), false, fp))

				uNew := b.rhsTerm(ip, jp, kp, fp).Add(acc).Scale(1. / diag.At(ip, jp, kp))
				old := du.At(ig, jg, kg)
				du.Set(ig, jg, kg, uNew)
				for eq := range uNew {
					d := uNew[eq] - old[eq]
					matErr += d * d
				}
			}
		}
	}
	return
}
