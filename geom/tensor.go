package geom

// Tensor is a 3x3 second order tensor, row major.
type Tensor [9]float64

func (t Tensor) XX() float64 { return t[0] }
func (t Tensor) XY() float64 { return t[1] }
func (t Tensor) XZ() float64 { return t[2] }
func (t Tensor) YX() float64 { return t[3] }
func (t Tensor) YY() float64 { return t[4] }
func (t Tensor) YZ() float64 { return t[5] }
func (t Tensor) ZX() float64 { return t[6] }
func (t Tensor) ZY() float64 { return t[7] }
func (t Tensor) ZZ() float64 { return t[8] }

func (t Tensor) Add(o Tensor) (r Tensor) {
	for n := range t {
		r[n] = t[n] + o[n]
	}
	return
}

func (t Tensor) Scale(s float64) (r Tensor) {
	for n := range t {
		r[n] = s * t[n]
	}
	return
}

func (t Tensor) Trace() float64 {
	return t[0] + t[4] + t[8]
}

func (t Tensor) Transpose() (r Tensor) {
	r = Tensor{
		t[0], t[3], t[6],
		t[1], t[4], t[7],
		t[2], t[5], t[8],
	}
	return
}

// MatVec applies the tensor to a vector.
func (t Tensor) MatVec(v Vec3) (r Vec3) {
	r = Vec3{
		t[0]*v[0] + t[1]*v[1] + t[2]*v[2],
		t[3]*v[0] + t[4]*v[1] + t[5]*v[2],
		t[6]*v[0] + t[7]*v[1] + t[8]*v[2],
	}
	return
}
