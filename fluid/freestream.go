package fluid

import "math"

// FreeStream holds the nondimensional reference state the solution is
// initialized from and that far-field boundary conditions refer back to.
type FreeStream struct {
	Mach, Alpha   float64 // Mach number and angle of attack (degrees)
	Gamma         float64
	ARef, LRef    float64 // reference speed of sound and length for time scaling
	Qinf          PrimVars
	Pinf, Cinf    float64
	TkeInf        float64
	OmegaInf      float64
	TurbIntensity float64
}

func NewFreeStream(mach, gamma, alpha, lRef float64) (fs *FreeStream) {
	var (
		uinf = mach * math.Cos(alpha*math.Pi/180.)
		winf = mach * math.Sin(alpha*math.Pi/180.)
		pinf = 1. / gamma
	)
	fs = &FreeStream{
		Mach:          mach,
		Alpha:         alpha,
		Gamma:         gamma,
		ARef:          1.,
		LRef:          lRef,
		TurbIntensity: 0.01,
	}
	// freestream turbulence scaled off the velocity magnitude
	fs.TkeInf = 1.5 * fs.TurbIntensity * fs.TurbIntensity * mach * mach
	fs.OmegaInf = math.Max(fs.TkeInf/1.e-3, 1.)
	fs.Qinf = PrimVars{1., uinf, 0., winf, pinf, fs.TkeInf, fs.OmegaInf}
	fs.Pinf = pinf
	fs.Cinf = math.Sqrt(gamma * pinf)
	return
}

// NondimTime scales a dimensional time step into solver units.
func (fs *FreeStream) NondimTime(dt float64) float64 {
	return dt * fs.ARef / fs.LRef
}
