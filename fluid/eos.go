package fluid

import "math"

// IdealGas is a calorically perfect equation of state working in
// nondimensional variables (density and speed of sound scaled to the
// reference state).
type IdealGas struct {
	Gamma  float64
	Pr     float64 // laminar Prandtl number
	PrTurb float64 // turbulent Prandtl number
}

func NewIdealGas(gamma float64) (eos IdealGas) {
	eos = IdealGas{
		Gamma:  gamma,
		Pr:     0.72,
		PrTurb: 0.9,
	}
	return
}

// Pressure from density and specific internal energy.
func (eos IdealGas) Pressure(rho, e float64) float64 {
	return (eos.Gamma - 1.) * rho * e
}

// SpecEnergy is the specific internal energy from pressure and density.
func (eos IdealGas) SpecEnergy(p, rho float64) float64 {
	return p / ((eos.Gamma - 1.) * rho)
}

// Temperature is the nondimensional static temperature, T = gamma*p/rho.
func (eos IdealGas) Temperature(p, rho float64) float64 {
	return eos.Gamma * p / rho
}

// SoS is the speed of sound.
func (eos IdealGas) SoS(p, rho float64) float64 {
	return math.Sqrt(eos.Gamma * p / rho)
}

// Conductivity is the nondimensional thermal conductivity of the laminar
// viscosity contribution.
func (eos IdealGas) Conductivity(mu float64) float64 {
	return mu / ((eos.Gamma - 1.) * eos.Pr)
}

// TurbConductivity is the eddy viscosity contribution to conductivity.
func (eos IdealGas) TurbConductivity(mut float64) float64 {
	return mut / ((eos.Gamma - 1.) * eos.PrTurb)
}

/*
Sutherland evaluates laminar dynamic viscosity as a function of temperature.
All quantities are nondimensional; the reference viscosity scales the law so
that mu(TRef) = muRef.
*/
type Sutherland struct {
	COne, S    float64 // dimensional law constants
	TRef, MRef float64 // reference temperature and viscosity used to nondimensionalize
}

func NewSutherland(tRef float64) (suth Sutherland) {
	suth = Sutherland{
		COne: 1.458e-6,
		S:    110.4,
		TRef: tRef,
	}
	suth.MRef = suth.dimensional(tRef)
	return
}

func (suth Sutherland) dimensional(t float64) float64 {
	return suth.COne * math.Pow(t, 1.5) / (t + suth.S)
}

// Viscosity returns nondimensional viscosity from nondimensional temperature.
func (suth Sutherland) Viscosity(t float64) float64 {
	return suth.dimensional(t*suth.TRef) / suth.MRef
}

// Lambda is the second coefficient of viscosity under Stokes' hypothesis.
func (suth Sutherland) Lambda(mu float64) float64 {
	return -2. / 3. * mu
}
