package turbulence

import (
	"fmt"
	"math"

	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
)

/*
Model is the closure capability set consumed by the flux and source-term
assembly: an eddy viscosity, the two-equation source terms with their
linearized spectral radius, and the wall and freestream states of the
turbulence scalars.
*/
type Model interface {
	Print() string
	IsNone() bool
	// EddyViscosity returns mu_t from the local state and velocity gradient.
	EddyViscosity(q fluid.PrimVars, velGrad geom.Tensor, wallDist float64) float64
	// Source returns the source vector for the turbulence equations and the
	// spectral radius of its jacobian, used on the implicit diagonal.
	Source(q fluid.PrimVars, velGrad geom.Tensor, tkeGrad, omegaGrad geom.Vec3,
		mu, wallDist float64) (src fluid.ConsVars, specRad float64)
	// SigmaK and SigmaW scale the eddy viscosity in the diffusive fluxes of
	// the k and omega equations.
	SigmaK() float64
	SigmaW() float64
	// WallState gives the ghost-cell turbulence scalars at a viscous wall.
	WallState(q fluid.PrimVars, mu, wallDist float64) (tke, omega float64)
}

type ModelType uint

const (
	ModelNone ModelType = iota
	ModelKOmegaWilcox
)

var (
	ModelNames = map[string]ModelType{
		"none":         ModelNone,
		"kOmegaWilcox": ModelKOmegaWilcox,
	}
	ModelPrintNames = []string{"None", "K-Omega (Wilcox 2006)"}
)

func NewModel(label string) (m Model) {
	var (
		mt  ModelType
		ok  bool
		err error
	)
	if mt, ok = ModelNames[label]; !ok {
		err = fmt.Errorf("unable to use turbulence model named %s", label)
		panic(err)
	}
	switch mt {
	case ModelNone:
		m = &None{}
	case ModelKOmegaWilcox:
		m = NewKOmegaWilcox()
	}
	return
}

// None is the laminar / inviscid closure: no eddy viscosity, no sources.
type None struct{}

func (t *None) Print() string { return ModelPrintNames[ModelNone] }
func (t *None) IsNone() bool  { return true }

func (t *None) EddyViscosity(q fluid.PrimVars, velGrad geom.Tensor, wallDist float64) float64 {
	return 0.
}

func (t *None) Source(q fluid.PrimVars, velGrad geom.Tensor, tkeGrad, omegaGrad geom.Vec3,
	mu, wallDist float64) (src fluid.ConsVars, specRad float64) {
	return
}

func (t *None) SigmaK() float64 { return 0. }
func (t *None) SigmaW() float64 { return 0. }

func (t *None) WallState(q fluid.PrimVars, mu, wallDist float64) (tke, omega float64) {
	return
}

// KOmegaWilcox is the two-equation k-omega closure with the 2006 constant
// set and a stress-limited production term.
type KOmegaWilcox struct {
	Alpha, BetaStar  float64
	Beta0            float64
	SigmaKC, SigmaWC float64
	SigmaDo          float64
	CLim             float64
}

func NewKOmegaWilcox() (t *KOmegaWilcox) {
	t = &KOmegaWilcox{
		Alpha:    0.52,
		BetaStar: 0.09,
		Beta0:    0.0708,
		SigmaKC:  0.6,
		SigmaWC:  0.5,
		SigmaDo:  0.125,
		CLim:     0.875,
	}
	return
}

func (t *KOmegaWilcox) Print() string { return ModelPrintNames[ModelKOmegaWilcox] }
func (t *KOmegaWilcox) IsNone() bool  { return false }

func (t *KOmegaWilcox) SigmaK() float64 { return t.SigmaKC }
func (t *KOmegaWilcox) SigmaW() float64 { return t.SigmaWC }

// meanStrainRateSq returns 2*Sij*Sij with the trace removed.
func meanStrainRateSq(g geom.Tensor) float64 {
	var (
		div = g.Trace() / 3.
		s   float64
	)
	for m := 0; m < 3; m++ {
		for n := 0; n < 3; n++ {
			sij := 0.5 * (g[3*m+n] + g[3*n+m])
			if m == n {
				sij -= div
			}
			s += 2. * sij * sij
		}
	}
	return s
}

func (t *KOmegaWilcox) EddyViscosity(q fluid.PrimVars, velGrad geom.Tensor, wallDist float64) float64 {
	var (
		sSq    = meanStrainRateSq(velGrad)
		omgBar = math.Max(q.Omega(), t.CLim*math.Sqrt(sSq/t.BetaStar))
	)
	if omgBar <= 0. {
		return 0.
	}
	return q.Rho() * q.Tke() / omgBar
}

func (t *KOmegaWilcox) Source(q fluid.PrimVars, velGrad geom.Tensor, tkeGrad, omegaGrad geom.Vec3,
	mu, wallDist float64) (src fluid.ConsVars, specRad float64) {
	var (
		rho  = q.Rho()
		tke  = q.Tke()
		omg  = math.Max(q.Omega(), 1.e-10)
		mut  = t.EddyViscosity(q, velGrad, wallDist)
		sSq  = meanStrainRateSq(velGrad)
		prod = mut * sSq
	)
	// bound production to avoid runaway in stagnation regions
	prod = math.Min(prod, 20.*t.BetaStar*rho*tke*omg)

	// cross diffusion is active only where k and omega gradients align
	var sigmaD float64
	if tkeGrad.Dot(omegaGrad) > 0. {
		sigmaD = t.SigmaDo
	}

	src[fluid.EqTke] = prod - t.BetaStar*rho*tke*omg
	src[fluid.EqOmega] = t.Alpha*omg/tke*prod - t.Beta0*rho*omg*omg +
		sigmaD*rho/omg*tkeGrad.Dot(omegaGrad)
	if tke <= 0. {
		src[fluid.EqOmega] = -t.Beta0 * rho * omg * omg
	}

	// destruction-term jacobian dominates; used on the implicit diagonal
	specRad = math.Max(t.BetaStar*omg, 2.*t.Beta0*omg)
	return
}

func (t *KOmegaWilcox) WallState(q fluid.PrimVars, mu, wallDist float64) (tke, omega float64) {
	var (
		d = math.Max(wallDist, 1.e-10)
	)
	tke = 0.
	// Menter wall value for omega on the first cell off the wall
	omega = 60. * mu / (q.Rho() * t.Beta0 * d * d)
	return
}
