package turbulence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
)

func TestNewModel(t *testing.T) {
	assert.True(t, NewModel("none").IsNone())
	assert.False(t, NewModel("kOmegaWilcox").IsNone())
	assert.Panics(t, func() { NewModel("kEpsilon") })
}

func TestNoneIsInert(t *testing.T) {
	var (
		m = NewModel("none")
		q = fluid.PrimVars{1, 0.5, 0, 0, 1 / 1.4, 1.e-3, 10}
	)
	assert.Equal(t, 0., m.EddyViscosity(q, geom.Tensor{}, 1.))
	src, rad := m.Source(q, geom.Tensor{}, geom.Vec3{}, geom.Vec3{}, 1.e-5, 1.)
	assert.Equal(t, fluid.ConsVars{}, src)
	assert.Equal(t, 0., rad)
}

func TestKOmegaEddyViscosity(t *testing.T) {
	var (
		m = NewKOmegaWilcox()
		q = fluid.PrimVars{1, 0, 0, 0, 1 / 1.4, 1.e-2, 100.}
	)
	// quiescent flow: mut = rho*k/omega
	mut := m.EddyViscosity(q, geom.Tensor{}, 1.)
	assert.InDelta(t, 1.e-4, mut, 1.e-12)

	// strong strain engages the stress limiter and lowers mut
	var sheared geom.Tensor
	sheared[1] = 1.e4 // du/dy
	mutLim := m.EddyViscosity(q, sheared, 1.)
	assert.Less(t, mutLim, mut)
}

func TestKOmegaSourceSigns(t *testing.T) {
	var (
		m = NewKOmegaWilcox()
		q = fluid.PrimVars{1, 0, 0, 0, 1 / 1.4, 1.e-2, 100.}
	)
	// no production: both sources are pure destruction
	src, rad := m.Source(q, geom.Tensor{}, geom.Vec3{}, geom.Vec3{}, 1.e-5, 1.)
	assert.Less(t, src[fluid.EqTke], 0.)
	assert.Less(t, src[fluid.EqOmega], 0.)
	assert.Greater(t, rad, 0.)

	// shear produces turbulent kinetic energy
	var sheared geom.Tensor
	sheared[1] = 10.
	src, _ = m.Source(q, sheared, geom.Vec3{}, geom.Vec3{}, 1.e-5, 1.)
	assert.Greater(t, src[fluid.EqTke], -m.BetaStar*q.Rho()*q.Tke()*q.Omega())
}

func TestWallState(t *testing.T) {
	var (
		m = NewKOmegaWilcox()
		q = fluid.PrimVars{1, 0, 0, 0, 1 / 1.4, 1.e-2, 100.}
	)
	tke, omega := m.WallState(q, 1.e-5, 1.e-3)
	assert.Equal(t, 0., tke)
	// Menter wall omega: 60*mu/(rho*beta0*d^2)
	assert.InDelta(t, 60.*1.e-5/(m.Beta0*1.e-6), omega, 1.e-6)
}
