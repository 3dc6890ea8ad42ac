package solver

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/mbcfd/InputParameters"
	"github.com/notargets/mbcfd/block"
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/comm"
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/turbulence"
	"github.com/notargets/mbcfd/types"
)

var (
	timeIntegrations = map[string]bool{
		"explicitEuler": true,
		"rk4":           true,
		"implicitEuler": true,
		"bdf2":          true,
	}
	matrixSolvers = map[string]bool{
		"lusgs":  true,
		"blusgs": true,
		"dplur":  true,
		"bdplur": true,
	}
)

/*
Solver drives the per-worker iteration: the three-phase ghost fill, the
residual assembly, the local time step, the explicit or implicit update,
and the global residual reduction. Blocks holds this worker's blocks;
Conns the full broadcast connection list with local indices resolved.
*/
type Solver struct {
	Inp    *InputParameters.Input
	Phys   *block.FlowPhys
	Bus    comm.Bus
	Blocks []*block.Block
	Conns  []boundary.Connection

	// positions within Conns of the entries touching this rank; positions
	// are identical on every rank and key the swap tags
	localConns []int

	mainDiag []types.Array3D[float64]
	reorder  [][][3]int
	du       []types.Array3D[fluid.ConsVars]
	started  bool
}

// New builds the worker driver. localConns carries the broadcast-list
// positions of this rank's connections (from parallel.LocalConnections);
// nil derives them from the connection ranks.
func New(inp *InputParameters.Input, bus comm.Bus, blocks []*block.Block,
	conns []boundary.Connection, localConns []int) (s *Solver, err error) {
	if !timeIntegrations[inp.TimeIntegration] {
		err = fmt.Errorf("%w: time integration %s is not recognized; choose explicitEuler, rk4, implicitEuler, or bdf2",
			types.ErrConfigMismatch, inp.TimeIntegration)
		return
	}
	if inp.IsImplicit() && !matrixSolvers[inp.MatrixSolver] {
		err = fmt.Errorf("%w: matrix solver %s is not recognized; choose lusgs, blusgs, dplur, or bdplur",
			types.ErrConfigMismatch, inp.MatrixSolver)
		return
	}
	if localConns == nil {
		for n := range conns {
			if conns[n].Rank[0] == bus.Rank() || conns[n].Rank[1] == bus.Rank() {
				localConns = append(localConns, n)
			}
		}
	}
	s = &Solver{
		Inp:        inp,
		Bus:        bus,
		Blocks:     blocks,
		Conns:      conns,
		localConns: localConns,
		Phys: &block.FlowPhys{
			EOS:  fluid.NewIdealGas(inp.Gamma),
			Suth: fluid.NewSutherland(inp.TRef),
			Turb: turbulence.NewModel(inp.TurbulenceModel),
			FS:   fluid.NewFreeStream(inp.Mach, inp.Gamma, inp.Alpha, inp.LRef),
			Inp:  inp,
		},
	}
	if inp.IsImplicit() {
		s.mainDiag = make([]types.Array3D[float64], len(blocks))
		s.reorder = make([][][3]int, len(blocks))
		s.du = make([]types.Array3D[fluid.ConsVars], len(blocks))
		for n, b := range blocks {
			s.mainDiag[n] = types.NewArray3D[float64](b.NI, b.NJ, b.NK)
			s.reorder[n] = block.HyperplaneReorder(b.NI, b.NJ, b.NK)
		}
	}
	return
}

// localSides returns the connection sides whose rank is this worker's, empty
// when neither side is local.
func (s *Solver) localSides(c *boundary.Connection) (sides []int) {
	for side := 0; side < 2; side++ {
		if c.Rank[side] == s.Bus.Rank() {
			sides = append(sides, side)
		}
	}
	return
}

// SwapGeometry exchanges ghost geometry across every connection, recording
// T-intersection border adjustments on the connection records.
func (s *Solver) SwapGeometry() (err error) {
	for _, n := range s.localConns {
		c := &s.Conns[n]
		sides := s.localSides(c)
		switch len(sides) {
		case 2:
			err = block.SwapGeomSlice(c, s.Blocks[c.LocalBlock[0]], s.Blocks[c.LocalBlock[1]])
		case 1:
			b := s.Blocks[c.LocalBlock[sides[0]]]
			err = b.SwapGeomSliceBus(c, sides[0], s.Bus, s.swapTag(n))
		}
		if err != nil {
			return
		}
	}
	err = s.Bus.Barrier()
	return
}

// swapTag gives each connection a distinct point-to-point tag space.
func (s *Solver) swapTag(conn int) int {
	return 100 + conn
}

/*
GetBoundaryConditions runs the three ghost-fill phases. The barrier between
the swap and the edge pass enforces the global ordering the edge ghosts
depend on.
*/
func (s *Solver) GetBoundaryConditions() (err error) {
	for _, b := range s.Blocks {
		if err = b.AssignInviscidGhostCells(s.Phys); err != nil {
			return
		}
	}
	if err = s.swapStates(); err != nil {
		return
	}
	if err = s.Bus.Barrier(); err != nil {
		return
	}
	for _, b := range s.Blocks {
		if err = b.AssignInviscidGhostCellsEdge(s.Phys); err != nil {
			return
		}
	}
	if s.Inp.IsViscous() {
		for _, b := range s.Blocks {
			if err = b.AssignViscousGhostCells(s.Phys); err != nil {
				return
			}
		}
	}
	return
}

func (s *Solver) swapStates() (err error) {
	for _, n := range s.localConns {
		c := &s.Conns[n]
		sides := s.localSides(c)
		switch len(sides) {
		case 2:
			err = block.SwapStateSlice(c, s.Blocks[c.LocalBlock[0]], s.Blocks[c.LocalBlock[1]])
		case 1:
			b := s.Blocks[c.LocalBlock[sides[0]]]
			err = b.SwapStateSliceBus(c, sides[0], s.Bus, s.swapTag(n))
		}
		if err != nil {
			return
		}
	}
	return
}

// CalcResidual assembles residuals and, for turbulent runs, the source
// terms on every local block.
func (s *Solver) CalcResidual() (err error) {
	for _, b := range s.Blocks {
		if err = b.CalcResidualNoSource(s.Phys); err != nil {
			return
		}
	}
	if s.Inp.IsTurbulent() {
		for _, b := range s.Blocks {
			b.CalcSrcTerms(s.Phys)
		}
	}
	return
}

func (s *Solver) CalcTimeStep() {
	for _, b := range s.Blocks {
		b.CalcBlockTimeStep(s.Phys)
	}
}

// ExplicitUpdate advances one explicit substep on every block.
func (s *Solver) ExplicitUpdate(mm int, l2 *fluid.ConsVars, linf *comm.Resid) (err error) {
	for _, b := range s.Blocks {
		if err = b.UpdateBlock(s.Phys, nil, mm, l2, linf); err != nil {
			return
		}
	}
	return
}

/*
ImplicitUpdate solves the linearized system by the configured matrix-free
relaxation and applies the update. The outer sweep loop exchanges delta-U
ghost values between sweeps so across-block coupling lags by exactly one
sweep. Returns the accumulated relaxation error.
*/
func (s *Solver) ImplicitUpdate(mm int, l2 *fluid.ConsVars, linf *comm.Resid) (matErr float64, err error) {
	for n, b := range s.Blocks {
		b.CalcMainDiagonal(&s.mainDiag[n], s.Phys)
		s.du[n] = b.InitializeMatrixUpdate()
	}
	switch s.Inp.MatrixSolver {
	case "lusgs", "blusgs":
		for sweep := 0; sweep < s.Inp.MatrixSweeps; sweep++ {
			if err = s.swapImplicitUpdate(); err != nil {
				return
			}
			for n, b := range s.Blocks {
				b.LUSGSForward(s.reorder[n], &s.du[n], &s.mainDiag[n], s.Phys)
			}
			if err = s.swapImplicitUpdate(); err != nil {
				return
			}
			for n, b := range s.Blocks {
				matErr += b.LUSGSBackward(s.reorder[n], &s.du[n], &s.mainDiag[n], s.Phys)
			}
		}
	case "dplur", "bdplur":
		for sweep := 0; sweep < s.Inp.MatrixSweeps; sweep++ {
			if err = s.swapImplicitUpdate(); err != nil {
				return
			}
			for n, b := range s.Blocks {
				matErr += b.DPLUR(&s.du[n], &s.mainDiag[n], s.Phys)
			}
		}
	default:
		err = fmt.Errorf("%w: matrix solver %s is not recognized",
			types.ErrConfigMismatch, s.Inp.MatrixSolver)
		return
	}
	for n, b := range s.Blocks {
		if err = b.UpdateBlock(s.Phys, &s.du[n], mm, l2, linf); err != nil {
			return
		}
		if (s.Inp.IsDualTime() || s.Inp.Zeta() != 0) && mm == s.Inp.NonlinearIterations-1 {
			b.AssignSolToTimeNm1()
		}
	}
	return
}

func (s *Solver) swapImplicitUpdate() (err error) {
	for _, n := range s.localConns {
		c := &s.Conns[n]
		sides := s.localSides(c)
		switch len(sides) {
		case 2:
			block.SwapUpdateSlice(c, &s.du[c.LocalBlock[0]], &s.du[c.LocalBlock[1]], s.Blocks[0].NumGhosts)
		case 1:
			lb := c.LocalBlock[sides[0]]
			err = block.SwapUpdateSliceBus(c, &s.du[lb], sides[0],
				s.Blocks[lb].NumGhosts, s.Bus, s.swapTag(n))
		}
		if err != nil {
			return
		}
	}
	return
}

// substeps is the number of inner updates of one outer iteration.
func (s *Solver) substeps() int {
	switch {
	case s.Inp.TimeIntegration == "rk4":
		return block.NumRKStages
	case s.Inp.IsImplicit():
		return s.Inp.NonlinearIterations
	default:
		return 1
	}
}

/*
Step runs one outer iteration: snapshot time level n, iterate the substeps
with a fresh ghost fill, residual and time step each, update, and reduce
the residual norms globally. Every worker returns identical reduced norms.
*/
func (s *Solver) Step() (l2 fluid.ConsVars, linf comm.Resid, err error) {
	for _, b := range s.Blocks {
		b.AssignSolToTimeN(s.Phys.EOS)
	}
	if !s.started {
		// seed time level n-1 so the first BDF2 step degrades to BDF1
		for _, b := range s.Blocks {
			b.AssignSolToTimeNm1()
		}
		s.started = true
	}
	for mm := 0; mm < s.substeps(); mm++ {
		if err = s.GetBoundaryConditions(); err != nil {
			return
		}
		if err = s.CalcResidual(); err != nil {
			return
		}
		s.CalcTimeStep()
		if s.Inp.IsImplicit() {
			var matErr float64
			if matErr, err = s.ImplicitUpdate(mm, &l2, &linf); err != nil {
				return
			}
			log.Debugf("matrix relaxation error %e at substep %d", matErr, mm)
		} else {
			if err = s.ExplicitUpdate(mm, &l2, &linf); err != nil {
				return
			}
		}
	}
	// global reduction: L2 by summation, Linf by locator-preserving max
	var sum []float64
	if sum, err = s.Bus.AllReduceSum(l2[:]); err != nil {
		return
	}
	copy(l2[:], sum)
	linf, err = s.Bus.AllReduceMaxResid(linf)
	return
}

// Run iterates to MaxIterations, logging the reduced norms each step.
func (s *Solver) Run() (err error) {
	var (
		l2   fluid.ConsVars
		linf comm.Resid
	)
	for iter := 0; iter < s.Inp.MaxIterations; iter++ {
		if l2, linf, err = s.Step(); err != nil {
			return
		}
		log.WithFields(log.Fields{
			"iteration": iter,
			"l2":        math.Sqrt(floats.Sum(l2[:])),
			"linf":      linf.Linf,
			"block":     linf.Blk,
			"cell":      fmt.Sprintf("(%d,%d,%d)", linf.I, linf.J, linf.K),
			"equation":  linf.Eq,
		}).Info("residual")
	}
	return
}
