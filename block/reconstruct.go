package block

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/mbcfd/fluid"
)

type LimiterType uint

const (
	LIMITER_None LimiterType = iota
	LIMITER_MinMod
	LIMITER_VanAlbada
)

var (
	LimiterNames = map[string]LimiterType{
		"none":      LIMITER_None,
		"minmod":    LIMITER_MinMod,
		"vanalbada": LIMITER_VanAlbada,
	}
	LimiterPrintNames = []string{"None", "MinMod", "Van Albada"}
)

func (lt LimiterType) Print() (txt string) {
	txt = LimiterPrintNames[lt]
	return
}

func NewLimiterType(label string) (lt LimiterType) {
	var (
		ok  bool
		err error
	)
	if lt, ok = LimiterNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("unable to use limiter named %s", label)
		panic(err)
	}
	return
}

func (lt LimiterType) apply(r float64) (phi float64) {
	switch lt {
	case LIMITER_None:
		phi = 1.
	case LIMITER_MinMod:
		phi = math.Max(0., math.Min(1., r))
	case LIMITER_VanAlbada:
		if r > 0 {
			phi = (r*r + r) / (r*r + 1.)
		}
	}
	return
}

/*
faceReconMUSCL builds a kappa-scheme MUSCL face state biased off uw1, the
cell adjacent to the face on the reconstruction side. uw2 sits one cell
further upwind, dw on the far side of the face. The three widths are the
distances between consecutive face centers bracketing the stencil, which
supply the geometric weights on nonuniform grids.
*/
func faceReconMUSCL(uw2, uw1, dw fluid.PrimVars, hUU, hU, hD, kappa float64,
	lim LimiterType) (face fluid.PrimVars) {
	var (
		wUp   = hU / (0.5 * (hU + hUU))
		wDown = hU / (0.5 * (hU + hD))
	)
	face = uw1
	for n := 0; n < fluid.NumEquations; n++ {
		var (
			duUp   = (uw1[n] - uw2[n]) * wUp
			duDown = (dw[n] - uw1[n]) * wDown
			denom  = duUp
		)
		if math.Abs(denom) < 1.e-30 {
			denom = math.Copysign(1.e-30, denom)
		}
		phi := lim.apply(duDown / denom)
		face[n] += 0.25 * phi * ((1.-kappa)*duUp + (1.+kappa)*duDown)
	}
	return
}
