package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Input is the resolved input deck consumed by the core. Every process parses
// its own YAML job file; at job start the workers take the Title broadcast
// from the coordinator.
type Input struct {
	Title               string  `yaml:"Title"`
	TimeIntegration     string  `yaml:"TimeIntegration"` // explicitEuler, rk4, implicitEuler, bdf2
	OrderOfAccuracy     string  `yaml:"OrderOfAccuracy"` // first, second
	Limiter             string  `yaml:"Limiter"`         // none, minmod, vanAlbada
	Kappa               float64 `yaml:"Kappa"`           // MUSCL kappa, 0 is Fromm
	MatrixSolver        string  `yaml:"MatrixSolver"`    // lusgs, blusgs, dplur, bdplur
	MatrixSweeps        int     `yaml:"MatrixSweeps"`
	MatrixRelaxation    float64 `yaml:"MatrixRelaxation"` // sigma in (0,1]
	CFL                 float64 `yaml:"CFL"`
	DualTimeCFL         float64 `yaml:"DualTimeCFL"`
	Dt                  float64 `yaml:"Dt"` // fixed time step; 0 selects local stepping
	LRef                float64 `yaml:"LRef"`
	TRef                float64 `yaml:"TRef"`
	Gamma               float64 `yaml:"Gamma"`
	Mach                float64 `yaml:"Mach"`
	Alpha               float64 `yaml:"Alpha"`
	Re                  float64 `yaml:"Re"`          // Reynolds number for viscosity scaling
	EquationSet         string  `yaml:"EquationSet"` // euler, laminar, turbulent
	TurbulenceModel     string  `yaml:"TurbulenceModel"`
	MaxIterations       int     `yaml:"MaxIterations"`
	NonlinearIterations int     `yaml:"NonlinearIterations"` // >1 enables dual time stepping
	NumGhosts           int     `yaml:"NumGhosts"`
	Decomposition       string  `yaml:"Decomposition"` // manual
}

func NewInput() (inp *Input) {
	inp = &Input{
		TimeIntegration:     "explicitEuler",
		OrderOfAccuracy:     "first",
		Limiter:             "none",
		MatrixSolver:        "lusgs",
		MatrixSweeps:        4,
		MatrixRelaxation:    1.,
		CFL:                 0.5,
		DualTimeCFL:         10.,
		LRef:                1.,
		TRef:                288.15,
		Gamma:               1.4,
		EquationSet:         "euler",
		TurbulenceModel:     "none",
		MaxIterations:       100,
		NonlinearIterations: 1,
		NumGhosts:           2,
		Decomposition:       "manual",
	}
	return
}

func (inp *Input) Parse(data []byte) error {
	return yaml.Unmarshal(data, inp)
}

func (inp *Input) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", inp.Title)
	fmt.Printf("[%s]\t\t= Time Integration\n", inp.TimeIntegration)
	fmt.Printf("[%s]\t\t= Order Of Accuracy\n", inp.OrderOfAccuracy)
	fmt.Printf("[%s]\t\t= Equation Set\n", inp.EquationSet)
	fmt.Printf("%8.5f\t\t= CFL\n", inp.CFL)
	fmt.Printf("%8.5f\t\t= Mach\n", inp.Mach)
	fmt.Printf("%8.5f\t\t= Alpha\n", inp.Alpha)
	fmt.Printf("[%d]\t\t\t= Max Iterations\n", inp.MaxIterations)
	if inp.IsImplicit() {
		fmt.Printf("[%s]\t\t= Matrix Solver\n", inp.MatrixSolver)
		fmt.Printf("[%d]\t\t\t= Matrix Sweeps\n", inp.MatrixSweeps)
		fmt.Printf("%8.5f\t\t= Matrix Relaxation\n", inp.MatrixRelaxation)
	}
	if inp.IsTurbulent() {
		fmt.Printf("[%s]\t= Turbulence Model\n", inp.TurbulenceModel)
	}
}

func (inp *Input) IsViscous() bool {
	return inp.EquationSet != "euler"
}

func (inp *Input) IsTurbulent() bool {
	return inp.EquationSet == "turbulent"
}

func (inp *Input) IsImplicit() bool {
	return inp.TimeIntegration == "implicitEuler" || inp.TimeIntegration == "bdf2"
}

func (inp *Input) IsSecondOrder() bool {
	return inp.OrderOfAccuracy == "second"
}

func (inp *Input) IsDualTime() bool {
	return inp.NonlinearIterations > 1
}

// Theta and Zeta are the two parameters of the temporal operator the
// implicit solvers linearize: implicit Euler is (1, 0), BDF2 is (1, 1/2).
func (inp *Input) Theta() float64 {
	return 1.
}

func (inp *Input) Zeta() float64 {
	if inp.TimeIntegration == "bdf2" {
		return 0.5
	}
	return 0.
}

// ViscousCoeff weights the viscous spectral radii in the time step bound.
func (inp *Input) ViscousCoeff() float64 {
	return 2.
}
