package geom

/*
Green-Gauss gradient reconstruction over a hexahedral control volume:

	dU/dxj = (1/V) * Sum_faces U * Aj

U is the face value, Aj the j-component of the face area vector, V the
volume. The convention is for area vectors to point from lower to higher
index, so lower face contributions enter with a negative sign.
*/

// VectorGradGG computes the gradient tensor of a vector field from its six
// face values and the six face area vectors of the control volume.
func VectorGradGG(vil, viu, vjl, vju, vkl, vku Vec3,
	ail, aiu, ajl, aju, akl, aku Vec3, vol float64) (grad Tensor) {
	var (
		ooVol = 1. / vol
	)
	for n := 0; n < 3; n++ { // gradient direction (column)
		for m := 0; m < 3; m++ { // vector component (row)
			grad[3*m+n] = ooVol * (viu[m]*aiu[n] - vil[m]*ail[n] +
				vju[m]*aju[n] - vjl[m]*ajl[n] +
				vku[m]*aku[n] - vkl[m]*akl[n])
		}
	}
	return
}

// ScalarGradGG computes the gradient of a scalar field from its six face
// values and the six face area vectors of the control volume.
func ScalarGradGG(til, tiu, tjl, tju, tkl, tku float64,
	ail, aiu, ajl, aju, akl, aku Vec3, vol float64) (grad Vec3) {
	var (
		ooVol = 1. / vol
	)
	for n := 0; n < 3; n++ {
		grad[n] = ooVol * (tiu*aiu[n] - til*ail[n] +
			tju*aju[n] - tjl*ajl[n] +
			tku*aku[n] - tkl*akl[n])
	}
	return
}

// TauNormal projects the viscous stress tensor onto a face normal. The second
// coefficient of viscosity comes from Stokes' hypothesis (zero bulk
// viscosity).
func TauNormal(velGrad Tensor, normal Vec3, mu, mut float64) (tau Vec3) {
	var (
		lambda = -2. / 3. * (mu + mut)
	)
	tau = normal.Scale(lambda * velGrad.Trace()).
		Add(velGrad.MatVec(normal).Add(velGrad.Transpose().MatVec(normal)).Scale(mu + mut))
	return
}
