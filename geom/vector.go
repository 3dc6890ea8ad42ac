package geom

import "math"

// Vec3 is a cartesian 3-vector.
type Vec3 [3]float64

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{s * v[0], s * v[1], s * v[2]}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

func (v Vec3) Mag() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vec3) MagSq() float64 {
	return v.Dot(v)
}

func (v Vec3) Normalize() Vec3 {
	var (
		mag = v.Mag()
	)
	if mag == 0 {
		return Vec3{}
	}
	return v.Scale(1. / mag)
}

func (v Vec3) DistTo(o Vec3) float64 {
	return v.Sub(o).Mag()
}

// UnitVec3Mag stores a direction and a magnitude separately, the natural form
// for a face area vector.
type UnitVec3Mag struct {
	Unit Vec3
	Mag  float64
}

func NewUnitVec3Mag(v Vec3) (u UnitVec3Mag) {
	u = UnitVec3Mag{
		Unit: v.Normalize(),
		Mag:  v.Mag(),
	}
	return
}

// Vector reconstitutes the full area vector.
func (u UnitVec3Mag) Vector() Vec3 {
	return u.Unit.Scale(u.Mag)
}

// Reverse flips the direction, keeping the magnitude.
func (u UnitVec3Mag) Reverse() UnitVec3Mag {
	return UnitVec3Mag{Unit: u.Unit.Scale(-1), Mag: u.Mag}
}
