package fluid

import (
	"math"

	"github.com/notargets/mbcfd/geom"
)

// NumEquations is the fixed arity of the conserved and primitive records:
// density, three momenta, total energy, turbulent kinetic energy and
// specific dissipation rate.
const NumEquations = 7

// Equation component indices, shared by both views.
const (
	EqMass = iota
	EqMomX
	EqMomY
	EqMomZ
	EqEnergy
	EqTke
	EqOmega
)

// ConsVars is the conserved-variable view of a cell state:
// rho, rho*u, rho*v, rho*w, E, rho*k, rho*omega.
type ConsVars [NumEquations]float64

// PrimVars is the primitive-variable view: rho, u, v, w, p, k, omega.
type PrimVars [NumEquations]float64

func (q PrimVars) Rho() float64   { return q[0] }
func (q PrimVars) U() float64     { return q[1] }
func (q PrimVars) V() float64     { return q[2] }
func (q PrimVars) W() float64     { return q[3] }
func (q PrimVars) P() float64     { return q[4] }
func (q PrimVars) Tke() float64   { return q[5] }
func (q PrimVars) Omega() float64 { return q[6] }

func (q PrimVars) Velocity() geom.Vec3 {
	return geom.Vec3{q[1], q[2], q[3]}
}

// SoS returns the speed of sound of the state.
func (q PrimVars) SoS(eos IdealGas) float64 {
	return math.Sqrt(eos.Gamma * q.P() / q.Rho())
}

// Temperature returns the nondimensional static temperature.
func (q PrimVars) Temperature(eos IdealGas) float64 {
	return eos.Temperature(q.P(), q.Rho())
}

// Energy returns the total energy per unit volume of the state.
func (q PrimVars) Energy(eos IdealGas) float64 {
	var (
		ke = 0.5 * q.Rho() * (q.U()*q.U() + q.V()*q.V() + q.W()*q.W())
	)
	return q.Rho()*(eos.SpecEnergy(q.P(), q.Rho())+q.Tke()) + ke
}

// Enthalpy returns the total specific enthalpy.
func (q PrimVars) Enthalpy(eos IdealGas) float64 {
	return (q.Energy(eos) + q.P()) / q.Rho()
}

// Cons converts to the conserved view.
func (q PrimVars) Cons(eos IdealGas) (u ConsVars) {
	var (
		rho = q.Rho()
	)
	u = ConsVars{
		rho,
		rho * q.U(),
		rho * q.V(),
		rho * q.W(),
		q.Energy(eos),
		rho * q.Tke(),
		rho * q.Omega(),
	}
	return
}

// UpdateWithCons applies a conserved-variable increment to the state and
// returns the resulting primitive state.
func (q PrimVars) UpdateWithCons(du ConsVars, eos IdealGas) (qNew PrimVars) {
	var (
		u = q.Cons(eos).Add(du)
	)
	qNew = u.Prim(eos)
	return
}

func (u ConsVars) Rho() float64 { return u[0] }

// Prim converts to the primitive view.
func (u ConsVars) Prim(eos IdealGas) (q PrimVars) {
	var (
		rho   = u[0]
		oorho = 1. / rho
		vel   = geom.Vec3{u[1] * oorho, u[2] * oorho, u[3] * oorho}
		tke   = u[5] * oorho
		omg   = u[6] * oorho
		e     = u[4]*oorho - 0.5*vel.MagSq() - tke
	)
	q = PrimVars{
		rho,
		vel.X(),
		vel.Y(),
		vel.Z(),
		eos.Pressure(rho, e),
		tke,
		omg,
	}
	return
}

func (u ConsVars) Add(o ConsVars) (r ConsVars) {
	for n := range u {
		r[n] = u[n] + o[n]
	}
	return
}

func (u ConsVars) Sub(o ConsVars) (r ConsVars) {
	for n := range u {
		r[n] = u[n] - o[n]
	}
	return
}

func (u ConsVars) Scale(s float64) (r ConsVars) {
	for n := range u {
		r[n] = s * u[n]
	}
	return
}

// SquaredSum accumulates the per-equation squares into l2, used for the L2
// residual norm.
func (u ConsVars) SquaredSum(l2 *ConsVars) {
	for n := range u {
		l2[n] += u[n] * u[n]
	}
}

// ConvectiveFlux evaluates the convective flux of a state projected onto a
// unit face normal.
func ConvectiveFlux(q PrimVars, normal geom.Vec3, eos IdealGas) (f ConsVars) {
	var (
		vn  = q.Velocity().Dot(normal)
		rho = q.Rho()
		p   = q.P()
		e   = q.Energy(eos)
	)
	f = ConsVars{
		rho * vn,
		rho*q.U()*vn + p*normal.X(),
		rho*q.V()*vn + p*normal.Y(),
		rho*q.W()*vn + p*normal.Z(),
		(e + p) * vn,
		rho * q.Tke() * vn,
		rho * q.Omega() * vn,
	}
	return
}
