package fluid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/mbcfd/geom"
)

func TestPrimConsRoundTrip(t *testing.T) {
	var (
		eos = NewIdealGas(1.4)
		q   = PrimVars{1.2, 0.3, -0.1, 0.05, 0.9, 1.e-3, 10.}
	)
	back := q.Cons(eos).Prim(eos)
	for n := 0; n < NumEquations; n++ {
		assert.InDelta(t, q[n], back[n], 1.e-13)
	}
}

func TestConvectiveFluxQuiescent(t *testing.T) {
	var (
		eos = NewIdealGas(1.4)
		q   = PrimVars{1., 0., 0., 0., 1. / 1.4, 0., 0.}
	)
	f := ConvectiveFlux(q, geom.Vec3{1, 0, 0}, eos)
	// zero velocity leaves only the pressure contribution in x-momentum
	assert.InDelta(t, 0., f[EqMass], 1.e-15)
	assert.InDelta(t, q.P(), f[EqMomX], 1.e-15)
	assert.InDelta(t, 0., f[EqMomY], 1.e-15)
	assert.InDelta(t, 0., f[EqEnergy], 1.e-15)
}

func TestSoSFreestream(t *testing.T) {
	var (
		eos = NewIdealGas(1.4)
		q   = PrimVars{1., 0., 0., 0., 1. / 1.4, 0., 0.}
	)
	// reference nondimensionalization puts the freestream sound speed at one
	assert.InDelta(t, 1., q.SoS(eos), 1.e-14)
	assert.InDelta(t, 1., q.Temperature(eos), 1.e-14)
}

func TestFreeStream(t *testing.T) {
	fs := NewFreeStream(0.5, 1.4, 0., 1.)
	assert.InDelta(t, 1., fs.Qinf.Rho(), 1.e-14)
	assert.InDelta(t, 0.5, fs.Qinf.U(), 1.e-14)
	assert.InDelta(t, 0., fs.Qinf.W(), 1.e-14)
	assert.InDelta(t, 1./1.4, fs.Pinf, 1.e-14)
	// time scaling is the identity at LRef = aRef = 1
	assert.InDelta(t, 0.25, fs.NondimTime(0.25), 1.e-14)
}

func TestSutherlandReference(t *testing.T) {
	suth := NewSutherland(288.15)
	// nondimensional viscosity is one at the reference temperature
	assert.InDelta(t, 1., suth.Viscosity(1.), 1.e-14)
	assert.InDelta(t, -2./3., suth.Lambda(1.), 1.e-14)
	// viscosity grows with temperature
	assert.Greater(t, suth.Viscosity(1.2), 1.)
}

func TestConsArithmetic(t *testing.T) {
	u := ConsVars{1, 2, 3, 4, 5, 6, 7}
	v := u.Add(u).Sub(u).Scale(2.)
	assert.Equal(t, ConsVars{2, 4, 6, 8, 10, 12, 14}, v)
	var l2 ConsVars
	u.SquaredSum(&l2)
	assert.Equal(t, 49., l2[6])
}
