package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// unit cube face areas, outward convention lower-to-higher handled by the
// gradient formulas
var (
	ax = Vec3{1, 0, 0}
	ay = Vec3{0, 1, 0}
	az = Vec3{0, 0, 1}
)

func TestScalarGradGGLinearField(t *testing.T) {
	// T = 2x + 3y - z on a unit cube centered at the origin: face values at
	// the six face centers
	f := func(p Vec3) float64 { return 2*p.X() + 3*p.Y() - p.Z() }
	grad := ScalarGradGG(
		f(Vec3{-0.5, 0, 0}), f(Vec3{0.5, 0, 0}),
		f(Vec3{0, -0.5, 0}), f(Vec3{0, 0.5, 0}),
		f(Vec3{0, 0, -0.5}), f(Vec3{0, 0, 0.5}),
		ax, ax, ay, ay, az, az, 1.)
	assert.InDelta(t, 2., grad.X(), 1.e-14)
	assert.InDelta(t, 3., grad.Y(), 1.e-14)
	assert.InDelta(t, -1., grad.Z(), 1.e-14)
}

func TestVectorGradGGLinearField(t *testing.T) {
	// v = (x, 2y, 3z) has gradient diag(1,2,3)
	f := func(p Vec3) Vec3 { return Vec3{p.X(), 2 * p.Y(), 3 * p.Z()} }
	grad := VectorGradGG(
		f(Vec3{-0.5, 0, 0}), f(Vec3{0.5, 0, 0}),
		f(Vec3{0, -0.5, 0}), f(Vec3{0, 0.5, 0}),
		f(Vec3{0, 0, -0.5}), f(Vec3{0, 0, 0.5}),
		ax, ax, ay, ay, az, az, 1.)
	assert.InDelta(t, 1., grad.XX(), 1.e-14)
	assert.InDelta(t, 2., grad.YY(), 1.e-14)
	assert.InDelta(t, 3., grad.ZZ(), 1.e-14)
	assert.InDelta(t, 0., grad.XY(), 1.e-14)
	assert.InDelta(t, 0., grad.ZX(), 1.e-14)
}

func TestTauNormalPureShear(t *testing.T) {
	// du/dy = 1 shear with unit viscosity: traction on a y-normal face is
	// (mu, 0, 0)
	var grad Tensor
	grad[1] = 1. // du/dy
	tau := TauNormal(grad, Vec3{0, 1, 0}, 1., 0.)
	assert.InDelta(t, 1., tau.X(), 1.e-14)
	assert.InDelta(t, 0., tau.Y(), 1.e-14)
	assert.InDelta(t, 0., tau.Z(), 1.e-14)
}

func TestUnitVec3Mag(t *testing.T) {
	u := NewUnitVec3Mag(Vec3{3, 4, 0})
	assert.InDelta(t, 5., u.Mag, 1.e-14)
	assert.InDelta(t, 0.6, u.Unit.X(), 1.e-14)
	v := u.Vector()
	assert.InDelta(t, 3., v.X(), 1.e-14)
	r := u.Reverse()
	assert.InDelta(t, -0.6, r.Unit.X(), 1.e-14)
	assert.InDelta(t, 5., r.Mag, 1.e-14)
}
