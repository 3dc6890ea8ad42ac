package block

import (
	"math"

	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
)

/*
RoeFlux evaluates the approximate Riemann flux between reconstructed left
and right states across a face with unit normal pointing from left to
right. Mean-flow dissipation uses the full eigenstructure with a Harten
entropy fix on the acoustic waves; the turbulence scalars ride the mass and
convective waves passively.
*/
func RoeFlux(left, right fluid.PrimVars, normal geom.Vec3, eos fluid.IdealGas) (f fluid.ConsVars) {
	var (
		rhoL, rhoR = left.Rho(), right.Rho()
		velL, velR = left.Velocity(), right.Velocity()
		pL, pR     = left.P(), right.P()
		hL         = left.Enthalpy(eos)
		hR         = right.Enthalpy(eos)
		rt         = math.Sqrt(rhoR / rhoL)
		oort       = 1. / (1. + rt)
	)
	// Roe averages
	var (
		rho = rt * rhoL
		vel = velL.Add(velR.Scale(rt)).Scale(oort)
		h   = (hL + rt*hR) * oort
		tke = (left.Tke() + rt*right.Tke()) * oort
		omg = (left.Omega() + rt*right.Omega()) * oort
		vn  = vel.Dot(normal)
		a2  = (eos.Gamma - 1.) * (h - 0.5*vel.MagSq() - tke)
		a   = math.Sqrt(math.Max(a2, 1.e-30))
	)
	var (
		dRho = rhoR - rhoL
		dVel = velR.Sub(velL)
		dP   = pR - pL
		dVn  = dVel.Dot(normal)
	)
	// wave strengths
	var (
		w1 = 0.5 * (dP - rho*a*dVn) / a2 // acoustic, vn - a
		w2 = dRho - dP/a2                // entropy
		w5 = 0.5 * (dP + rho*a*dVn) / a2 // acoustic, vn + a
	)
	// eigenvalues with entropy fix
	fix := func(lam float64) float64 {
		var (
			eps = 0.1 * a
		)
		if math.Abs(lam) < eps {
			return 0.5 * (lam*lam/eps + eps)
		}
		return math.Abs(lam)
	}
	var (
		l1 = fix(vn - a)
		l2 = math.Abs(vn)
		l5 = fix(vn + a)
	)
	// dissipation vector
	var (
		diss  fluid.ConsVars
		shear = dVel.Sub(normal.Scale(dVn)) // tangential velocity jump
	)
	diss[0] = l1*w1 + l2*w2 + l5*w5
	for n := 0; n < 3; n++ {
		diss[1+n] = l1*w1*(vel[n]-a*normal[n]) +
			l2*(w2*vel[n]+rho*shear[n]) +
			l5*w5*(vel[n]+a*normal[n])
	}
	diss[4] = l1*w1*(h-a*vn) +
		l2*(w2*0.5*vel.MagSq()+rho*vel.Dot(shear)) +
		l5*w5*(h+a*vn)
	// turbulence scalars: carried by the mass dissipation plus a convective
	// jump term
	diss[5] = tke*diss[0] + l2*rho*(right.Tke()-left.Tke())
	diss[6] = omg*diss[0] + l2*rho*(right.Omega()-left.Omega())

	var (
		fL = fluid.ConvectiveFlux(left, normal, eos)
		fR = fluid.ConvectiveFlux(right, normal, eos)
	)
	for n := range f {
		f[n] = 0.5*(fL[n]+fR[n]) - 0.5*diss[n]
	}
	return
}

/*
CellSpectralRadius is the convective spectral radius of a cell in one
direction, evaluated from the average of its lower and upper face normals
and areas: (|v.n| + a) * A.
*/
func CellSpectralRadius(q fluid.PrimVars, faceL, faceU geom.UnitVec3Mag, eos fluid.IdealGas) float64 {
	var (
		normAvg = faceL.Unit.Add(faceU.Unit).Scale(0.5)
		magAvg  = 0.5 * (faceL.Mag + faceU.Mag)
	)
	return (math.Abs(q.Velocity().Dot(normAvg)) + q.SoS(eos)) * magAvg
}

// ViscCellSpectralRadius is the viscous spectral radius in one direction:
// max(4/(3 rho), gamma/rho) * (mu + mut)/Pr * A^2 / V.
func ViscCellSpectralRadius(q fluid.PrimVars, faceL, faceU geom.UnitVec3Mag,
	mu, mut, vol float64, eos fluid.IdealGas) float64 {
	var (
		magAvg = 0.5 * (faceL.Mag + faceU.Mag)
		coeff  = math.Max(4./(3.*q.Rho()), eos.Gamma/q.Rho())
	)
	return coeff * (mu + mut) / eos.Pr * magAvg * magAvg / vol
}

/*
ViscousFlux evaluates the viscous flux across a face from the face-centered
gradients and state. The returned vector follows the same orientation as
the convective flux; the assembly applies it with opposite sign.
*/
func ViscousFlux(velGrad geom.Tensor, tGrad, tkeGrad, omgGrad geom.Vec3,
	normal geom.Vec3, faceQ fluid.PrimVars, mu, mut float64,
	eos fluid.IdealGas, turb Turbulence) (f fluid.ConsVars) {
	var (
		tau = geom.TauNormal(velGrad, normal, mu, mut)
	)
	f[1], f[2], f[3] = tau.X(), tau.Y(), tau.Z()
	f[4] = tau.Dot(faceQ.Velocity()) +
		(eos.Conductivity(mu)+eos.TurbConductivity(mut))*tGrad.Dot(normal)
	if !turb.IsNone() {
		f[5] = (mu + turb.SigmaK()*mut) * tkeGrad.Dot(normal)
		f[6] = (mu + turb.SigmaW()*mut) * omgGrad.Dot(normal)
	}
	return
}
