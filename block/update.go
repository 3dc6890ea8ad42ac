package block

import (
	"fmt"

	"github.com/notargets/mbcfd/comm"
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/types"
)

// low-storage RK4 stage coefficients
var rkCoeffs = [4]float64{0.25, 1. / 3., 0.5, 1.}

const NumRKStages = len(rkCoeffs)

/*
UpdateBlock advances the interior solution one substep. mm is the substep
index: the RK4 stage, or the nonlinear iteration for the implicit schemes.
du carries the implicit matrix update and is ignored by the explicit
schemes. On the final substep the residual norms accumulate into l2 and
linf with the offender locator.
*/
func (b *Block) UpdateBlock(fp *FlowPhys, du *types.Array3D[fluid.ConsVars], mm int,
	l2 *fluid.ConsVars, linf *comm.Resid) (err error) {
	var (
		inp  = fp.Inp
		gh   = b.NumGhosts
		eos  = fp.EOS
		last bool
	)
	switch inp.TimeIntegration {
	case "explicitEuler":
		last = true
	case "rk4":
		if mm == 0 {
			b.saveRKInitial(eos)
		}
		last = mm == NumRKStages-1
	case "implicitEuler", "bdf2":
		last = mm == inp.NonlinearIterations-1
	default:
		err = fmt.Errorf("%w: time integration %s is not recognized",
			types.ErrConfigMismatch, inp.TimeIntegration)
		return
	}
	for kp := 0; kp < b.NK; kp++ {
		for jp := 0; jp < b.NJ; jp++ {
			for ip := 0; ip < b.NI; ip++ {
				var (
					ig, jg, kg = ip + gh, jp + gh, kp + gh
					vol        = b.Vol.At(ig, jg, kg)
					res        = b.Residual.At(ip, jp, kp)
					uNew       fluid.ConsVars
				)
				switch inp.TimeIntegration {
				case "explicitEuler":
					u := b.State.At(ig, jg, kg).Cons(eos)
					uNew = u.Sub(res.Scale(b.Dt.At(ip, jp, kp) / vol))
				case "rk4":
					u0 := b.rk0.At(ip, jp, kp)
					uNew = u0.Sub(res.Scale(rkCoeffs[mm] * b.rkDt.At(ip, jp, kp) / vol))
				default:
					u := b.State.At(ig, jg, kg).Cons(eos)
					uNew = u.Add(du.At(ig, jg, kg))
				}
				b.State.Set(ig, jg, kg, uNew.Prim(eos))
				if last {
					res.SquaredSum(l2)
					for eq := 0; eq < fluid.NumEquations; eq++ {
						linf.Update(res[eq], b.ParentBlock, ip, jp, kp, eq+1)
					}
				}
			}
		}
	}
	return
}

// rk0 and rkDt freeze the solution and time step of the first RK stage.
func (b *Block) saveRKInitial(eos fluid.IdealGas) {
	var (
		gh = b.NumGhosts
	)
	if b.rk0.Size() == 0 {
		b.rk0 = types.NewArray3D[fluid.ConsVars](b.NI, b.NJ, b.NK)
		b.rkDt = types.NewArray3D[float64](b.NI, b.NJ, b.NK)
	}
	for kp := 0; kp < b.NK; kp++ {
		for jp := 0; jp < b.NJ; jp++ {
			for ip := 0; ip < b.NI; ip++ {
				b.rk0.Set(ip, jp, kp, b.State.At(ip+gh, jp+gh, kp+gh).Cons(eos))
				b.rkDt.Set(ip, jp, kp, b.Dt.At(ip, jp, kp))
			}
		}
	}
}
