package block

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/mbcfd/InputParameters"
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/comm"
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/turbulence"
	"github.com/notargets/mbcfd/types"
)

var quiescent = fluid.PrimVars{1., 0., 0., 0., 1. / 1.4, 0., 0.}

func testPhys(mods ...func(*InputParameters.Input)) *FlowPhys {
	inp := InputParameters.NewInput()
	for _, mod := range mods {
		mod(inp)
	}
	return &FlowPhys{
		EOS:  fluid.NewIdealGas(inp.Gamma),
		Suth: fluid.NewSutherland(inp.TRef),
		Turb: turbulence.NewModel(inp.TurbulenceModel),
		FS:   fluid.NewFreeStream(inp.Mach, inp.Gamma, inp.Alpha, inp.LRef),
		Inp:  inp,
	}
}

func allSlipWalls(nI, nJ, nK int) boundary.Conditions {
	return boundary.NewCubeConditions(nI, nJ, nK, [6]string{
		"slipWall", "slipWall", "slipWall", "slipWall", "slipWall", "slipWall"})
}

// Ghost geometry invariant: the ghost center is the interior center
// reflected through the boundary face.
func TestGhostGeometryReflection(t *testing.T) {
	var (
		gh = 2
		b  = NewCartesianBlock(geom.Vec3{}, geom.Vec3{0.25, 0.2, 0.125}, 4, 4, 4, gh, allSlipWalls(4, 4, 4))
	)
	b.AssignGhostCellsGeom()
	for kp := gh; kp < 4+gh; kp++ {
		for jp := gh; jp < 4+gh; jp++ {
			for layer := 1; layer <= 2; layer++ {
				var (
					fcB   = b.FCenterI.At(gh, jp, kp)
					ghost = b.Center.At(gh-layer, jp, kp)
					inter = b.Center.At(gh+layer-1, jp, kp)
				)
				lhs := ghost.Sub(fcB)
				rhs := fcB.Sub(inter)
				assert.InDelta(t, rhs.X(), lhs.X(), 1.e-14)
				assert.InDelta(t, rhs.Y(), lhs.Y(), 1.e-14)
				assert.InDelta(t, rhs.Z(), lhs.Z(), 1.e-14)
				// volumes copy outward
				assert.Equal(t, b.Vol.At(gh+layer-1, jp, kp), b.Vol.At(gh-layer, jp, kp))
			}
		}
	}
}

// Hyperplane ordering: every cell once, lower neighbors always earlier.
func TestHyperplaneReorder(t *testing.T) {
	var (
		nI, nJ, nK = 3, 4, 5
		reorder    = HyperplaneReorder(nI, nJ, nK)
		position   = map[[3]int]int{}
	)
	assert.Len(t, reorder, nI*nJ*nK)
	for n, c := range reorder {
		_, dup := position[c]
		assert.False(t, dup, "cell %v visited twice", c)
		position[c] = n
	}
	for _, c := range reorder {
		for d := 0; d < 3; d++ {
			low := c
			low[d]--
			if low[d] < 0 {
				continue
			}
			assert.Less(t, position[low], position[c],
				"lower neighbor %v of %v ordered after it", low, c)
		}
	}
}

// Residual of a uniform state on uniform geometry is identically zero, and
// ten explicit Euler steps leave the state untouched.
func TestUniformStateUnchanged(t *testing.T) {
	var (
		fp = testPhys(func(inp *InputParameters.Input) {
			inp.CFL = 0.5
		})
		gh = fp.Inp.NumGhosts
		b  = NewCartesianBlock(geom.Vec3{}, geom.Vec3{0.5, 0.5, 0.5}, 2, 2, 2, gh, allSlipWalls(2, 2, 2))
	)
	b.AssignGhostCellsGeom()
	b.InitializeState(quiescent)
	for step := 0; step < 10; step++ {
		assert.NoError(t, b.AssignInviscidGhostCells(fp))
		assert.NoError(t, b.AssignInviscidGhostCellsEdge(fp))
		assert.NoError(t, b.CalcResidualNoSource(fp))
		b.CalcBlockTimeStep(fp)
		var (
			l2   fluid.ConsVars
			linf comm.Resid
		)
		assert.NoError(t, b.UpdateBlock(fp, nil, 0, &l2, &linf))
		for n := range l2 {
			assert.InDelta(t, 0., l2[n], 1.e-24)
		}
	}
	for kp := 0; kp < 2; kp++ {
		for jp := 0; jp < 2; jp++ {
			for ip := 0; ip < 2; ip++ {
				q := b.State.At(ip+gh, jp+gh, kp+gh)
				for n := range q {
					assert.InDelta(t, quiescent[n], q[n], 1.e-14)
				}
			}
		}
	}
}

// twoBlockPair builds two cartesian blocks abutting on an I face with an
// interblock connection, geometry and ghost fill complete.
func twoBlockPair(t *testing.T, fp *FlowPhys) (a, b *Block, conn *boundary.Connection) {
	var (
		gh = fp.Inp.NumGhosts
		d  = geom.Vec3{0.25, 0.25, 0.25}
	)
	a = NewCartesianBlock(geom.Vec3{}, d, 4, 4, 4, gh, boundary.NewCubeConditions(4, 4, 4,
		[6]string{"slipWall", "interblock", "slipWall", "slipWall", "slipWall", "slipWall"}))
	b = NewCartesianBlock(geom.Vec3{1, 0, 0}, d, 4, 4, 4, gh, boundary.NewCubeConditions(4, 4, 4,
		[6]string{"interblock", "slipWall", "slipWall", "slipWall", "slipWall", "slipWall"}))
	a.GlobalPos, b.GlobalPos = 0, 1
	b.ParentBlock = 1

	var sA, sB boundary.Surface
	for n := 0; n < a.BC.NumSurfaces(); n++ {
		if s := a.BC.GetSurface(n); s.Type == "interblock" {
			sA = s
		}
	}
	for n := 0; n < b.BC.NumSurfaces(); n++ {
		if s := b.BC.GetSurface(n); s.Type == "interblock" {
			sB = s
		}
	}
	c, err := boundary.NewConnection(0, 1, sA, sB, 1)
	assert.NoError(t, err)
	c.LocalBlock = [2]int{0, 1}
	conn = &c

	a.AssignGhostCellsGeom()
	b.AssignGhostCellsGeom()
	assert.NoError(t, SwapGeomSlice(conn, a, b))
	return
}

// Inter-block geometry swap: ghost geometry equals the partner interior
// exactly, volumes positive, area directions unit length.
func TestInterblockGeomSwap(t *testing.T) {
	var (
		fp = testPhys()
		gh = fp.Inp.NumGhosts
	)
	a, b, conn := twoBlockPair(t, fp)
	for _, flags := range conn.Border {
		for _, f := range flags {
			assert.False(t, f)
		}
	}
	for kp := gh; kp < 4+gh; kp++ {
		for jp := gh; jp < 4+gh; jp++ {
			for layer := 0; layer < gh; layer++ {
				var (
					gi = 4 + gh + layer // a's ghost
					si = gh + layer     // b's matching interior
				)
				assert.Equal(t, b.Vol.At(si, jp, kp), a.Vol.At(gi, jp, kp))
				assert.Greater(t, a.Vol.At(gi, jp, kp), 0.)
				assert.Equal(t, b.Center.At(si, jp, kp), a.Center.At(gi, jp, kp))
				assert.InDelta(t, 1., a.FAreaI.At(gi, jp, kp).Unit.Mag(), 1.e-13)
				assert.Equal(t, b.FAreaI.At(si, jp, kp), a.FAreaI.At(gi, jp, kp))

				// and symmetrically on b's lower side
				gBi := gh - 1 - layer
				sAi := 4 + gh - 1 - layer
				assert.Equal(t, a.Vol.At(sAi, jp, kp), b.Vol.At(gBi, jp, kp))
				assert.Equal(t, a.Center.At(sAi, jp, kp), b.Center.At(gBi, jp, kp))
			}
		}
	}
}

// One step on two joined blocks with a uniform state: ghost states equal
// the partner interior exactly and the residual is zero.
func TestInterblockStateSwap(t *testing.T) {
	var (
		fp = testPhys()
		gh = fp.Inp.NumGhosts
	)
	a, b, conn := twoBlockPair(t, fp)
	a.InitializeState(quiescent)
	b.InitializeState(quiescent)
	// distinct interior values so the copy is observable
	for kp := gh; kp < 4+gh; kp++ {
		for jp := gh; jp < 4+gh; jp++ {
			for ip := gh; ip < 4+gh; ip++ {
				qa, qb := quiescent, quiescent
				qa[0] = 1. + 0.001*float64(ip+10*jp+100*kp)
				qb[0] = 2. + 0.001*float64(ip+10*jp+100*kp)
				a.State.Set(ip, jp, kp, qa)
				b.State.Set(ip, jp, kp, qb)
			}
		}
	}
	assert.NoError(t, a.AssignInviscidGhostCells(fp))
	assert.NoError(t, b.AssignInviscidGhostCells(fp))
	assert.NoError(t, SwapStateSlice(conn, a, b))
	for kp := gh; kp < 4+gh; kp++ {
		for jp := gh; jp < 4+gh; jp++ {
			for layer := 0; layer < gh; layer++ {
				assert.Equal(t, b.State.At(gh+layer, jp, kp), a.State.At(4+gh+layer, jp, kp))
				assert.Equal(t, a.State.At(4+gh-1-layer, jp, kp), b.State.At(gh-1-layer, jp, kp))
			}
		}
	}

	// uniform state through the full pair: zero residual
	a.InitializeState(quiescent)
	b.InitializeState(quiescent)
	assert.NoError(t, a.AssignInviscidGhostCells(fp))
	assert.NoError(t, b.AssignInviscidGhostCells(fp))
	assert.NoError(t, SwapStateSlice(conn, a, b))
	assert.NoError(t, a.AssignInviscidGhostCellsEdge(fp))
	assert.NoError(t, b.AssignInviscidGhostCellsEdge(fp))
	assert.NoError(t, a.CalcResidualNoSource(fp))
	assert.NoError(t, b.CalcResidualNoSource(fp))
	for _, blk := range []*Block{a, b} {
		for _, r := range blk.Residual.Data() {
			for n := range r {
				assert.InDelta(t, 0., r[n], 1.e-14)
			}
		}
	}
}

// Orientation consistency: for every tag, the state swap places each donor
// interior cell at the ghost location the coordinate maps name, for both
// sides.
func TestOrientationSwapConsistency(t *testing.T) {
	var (
		gh = 2
	)
	for orient := 1; orient <= 8; orient++ {
		var (
			d = geom.Vec3{0.25, 0.25, 0.25}
			a = NewCartesianBlock(geom.Vec3{}, d, 4, 4, 4, gh, boundary.NewCubeConditions(4, 4, 4,
				[6]string{"slipWall", "interblock", "slipWall", "slipWall", "slipWall", "slipWall"}))
			b = NewCartesianBlock(geom.Vec3{1, 0, 0}, d, 4, 4, 4, gh, boundary.NewCubeConditions(4, 4, 4,
				[6]string{"interblock", "slipWall", "slipWall", "slipWall", "slipWall", "slipWall"}))
		)
		var sA, sB boundary.Surface
		for n := 0; n < a.BC.NumSurfaces(); n++ {
			if s := a.BC.GetSurface(n); s.Type == "interblock" {
				sA = s
			}
		}
		for n := 0; n < b.BC.NumSurfaces(); n++ {
			if s := b.BC.GetSurface(n); s.Type == "interblock" {
				sB = s
			}
		}
		c, err := boundary.NewConnection(0, 1, sA, sB, orient)
		assert.NoError(t, err)

		// unique value per padded cell
		stamp := func(blk *Block, base float64) {
			for kp := 0; kp < 4+2*gh; kp++ {
				for jp := 0; jp < 4+2*gh; jp++ {
					for ip := 0; ip < 4+2*gh; ip++ {
						q := quiescent
						q[0] = base + float64(ip) + 10.*float64(jp) + 100.*float64(kp)
						blk.State.Set(ip, jp, kp, q)
					}
				}
			}
		}
		stamp(a, 1000.)
		stamp(b, 2000.)
		assert.NoError(t, SwapStateSlice(&c, a, b))

		for _, recvSide := range []int{0, 1} {
			blk := a
			donor := b
			if recvSide == 1 {
				blk, donor = b, a
			}
			for t2 := -gh; t2 < c.PatchLen2(recvSide)+gh; t2++ {
				for t1 := -gh; t1 < c.PatchLen1(recvSide)+gh; t1++ {
					s1, s2 := c.MapToDonor(recvSide, t1, t2)
					for layer := 0; layer < gh; layer++ {
						gi, gj, gk := c.GhostIndex(recvSide, t1, t2, layer, gh)
						di, dj, dk := c.InteriorIndex(1-recvSide, s1, s2, layer, gh)
						assert.Equal(t, donor.State.At(di, dj, dk), blk.State.At(gi, gj, gk),
							"orientation %d side %d at (%d,%d,%d)", orient, recvSide, t1, t2, layer)
					}
				}
			}
		}
	}
}

// Conservation at a partition boundary: the residual sum over two coupled
// blocks equals the sum over the equivalent single block.
func TestConservationAcrossPartition(t *testing.T) {
	var (
		fp = testPhys(func(inp *InputParameters.Input) {
			inp.OrderOfAccuracy = "first"
		})
		gh   = fp.Inp.NumGhosts
		d    = geom.Vec3{0.25, 0.25, 0.25}
		tags = [6]string{"supersonicOutflow", "supersonicOutflow", "slipWall", "slipWall", "slipWall", "slipWall"}
	)
	ramp := func(x geom.Vec3) fluid.PrimVars {
		q := quiescent
		q[0] = 1. + 0.05*x.X()
		q[1] = 0.3
		return q
	}
	whole := NewCartesianBlock(geom.Vec3{}, d, 8, 4, 4, gh, boundary.NewCubeConditions(8, 4, 4, tags))
	whole.AssignGhostCellsGeom()
	for kp := gh; kp < 4+gh; kp++ {
		for jp := gh; jp < 4+gh; jp++ {
			for ip := gh; ip < 8+gh; ip++ {
				whole.State.Set(ip, jp, kp, ramp(whole.Center.At(ip, jp, kp)))
			}
		}
	}
	assert.NoError(t, whole.AssignInviscidGhostCells(fp))
	assert.NoError(t, whole.AssignInviscidGhostCellsEdge(fp))
	assert.NoError(t, whole.CalcResidualNoSource(fp))

	a := NewCartesianBlock(geom.Vec3{}, d, 4, 4, 4, gh, boundary.NewCubeConditions(4, 4, 4,
		[6]string{"supersonicOutflow", "interblock", "slipWall", "slipWall", "slipWall", "slipWall"}))
	b := NewCartesianBlock(geom.Vec3{1, 0, 0}, d, 4, 4, 4, gh, boundary.NewCubeConditions(4, 4, 4,
		[6]string{"interblock", "supersonicOutflow", "slipWall", "slipWall", "slipWall", "slipWall"}))
	var sA, sB boundary.Surface
	for n := 0; n < a.BC.NumSurfaces(); n++ {
		if s := a.BC.GetSurface(n); s.Type == "interblock" {
			sA = s
		}
	}
	for n := 0; n < b.BC.NumSurfaces(); n++ {
		if s := b.BC.GetSurface(n); s.Type == "interblock" {
			sB = s
		}
	}
	c, err := boundary.NewConnection(0, 1, sA, sB, 1)
	assert.NoError(t, err)
	a.AssignGhostCellsGeom()
	b.AssignGhostCellsGeom()
	assert.NoError(t, SwapGeomSlice(&c, a, b))
	for _, blk := range []*Block{a, b} {
		for kp := gh; kp < 4+gh; kp++ {
			for jp := gh; jp < 4+gh; jp++ {
				for ip := gh; ip < 4+gh; ip++ {
					blk.State.Set(ip, jp, kp, ramp(blk.Center.At(ip, jp, kp)))
				}
			}
		}
	}
	assert.NoError(t, a.AssignInviscidGhostCells(fp))
	assert.NoError(t, b.AssignInviscidGhostCells(fp))
	assert.NoError(t, SwapStateSlice(&c, a, b))
	assert.NoError(t, a.AssignInviscidGhostCellsEdge(fp))
	assert.NoError(t, b.AssignInviscidGhostCellsEdge(fp))
	assert.NoError(t, a.CalcResidualNoSource(fp))
	assert.NoError(t, b.CalcResidualNoSource(fp))

	var sumWhole, sumSplit fluid.ConsVars
	for _, r := range whole.Residual.Data() {
		sumWhole = sumWhole.Add(r)
	}
	for _, blk := range []*Block{a, b} {
		for _, r := range blk.Residual.Data() {
			sumSplit = sumSplit.Add(r)
		}
	}
	for n := range sumWhole {
		assert.InDelta(t, sumWhole[n], sumSplit[n], 1.e-12)
	}
}

// Viscous wall ghost: reversed velocity, matched pressure.
func TestViscousWallGhost(t *testing.T) {
	var (
		fp = testPhys(func(inp *InputParameters.Input) {
			inp.EquationSet = "laminar"
		})
		gh = fp.Inp.NumGhosts
		b  = NewCartesianBlock(geom.Vec3{}, geom.Vec3{1. / 3., 1. / 3., 1. / 3.}, 3, 3, 3, gh,
			boundary.NewCubeConditions(3, 3, 3, [6]string{
				"slipWall", "slipWall", "viscousWall", "slipWall", "slipWall", "slipWall"}))
	)
	b.AssignGhostCellsGeom()
	q := quiescent
	q[1], q[3] = 0.3, 0.1
	b.InitializeState(q)
	assert.NoError(t, b.AssignInviscidGhostCells(fp))
	assert.NoError(t, b.AssignViscousGhostCells(fp))
	for kp := gh; kp < 3+gh; kp++ {
		for ip := gh; ip < 3+gh; ip++ {
			for layer := 1; layer <= gh; layer++ {
				ghost := b.State.At(ip, gh-layer, kp)
				inter := b.State.At(ip, gh+layer-1, kp)
				assert.InDelta(t, -inter.U(), ghost.U(), 1.e-14)
				assert.InDelta(t, -inter.W(), ghost.W(), 1.e-14)
				assert.InDelta(t, inter.P(), ghost.P(), 1.e-14)
				assert.InDelta(t, inter.Rho(), ghost.Rho(), 1.e-14)
			}
		}
	}
}

// LU-SGS identity check: with zero residual and a dominant diagonal, a
// nonzero delta-U input collapses within five sweeps.
func TestLUSGSZeroResidual(t *testing.T) {
	var (
		fp = testPhys(func(inp *InputParameters.Input) {
			inp.TimeIntegration = "implicitEuler"
			inp.MatrixRelaxation = 1.
		})
		gh = fp.Inp.NumGhosts
		b  = NewCartesianBlock(geom.Vec3{}, geom.Vec3{0.25, 0.25, 0.25}, 4, 4, 4, gh, allSlipWalls(4, 4, 4))
	)
	b.AssignGhostCellsGeom()
	b.InitializeState(quiescent)
	assert.NoError(t, b.AssignInviscidGhostCells(fp))
	assert.NoError(t, b.AssignInviscidGhostCellsEdge(fp))
	assert.NoError(t, b.CalcResidualNoSource(fp))
	b.AssignSolToTimeN(fp.EOS)
	b.Residual.Fill(fluid.ConsVars{})
	b.Dt.Fill(1.e-6)

	var (
		mainD   = types.NewArray3D[float64](b.NI, b.NJ, b.NK)
		du      = b.InitializeMatrixUpdate()
		reorder = HyperplaneReorder(4, 4, 4)
	)
	b.CalcMainDiagonal(&mainD, fp)
	// seed a nonzero update in the interior
	for kp := gh; kp < 4+gh; kp++ {
		for jp := gh; jp < 4+gh; jp++ {
			for ip := gh; ip < 4+gh; ip++ {
				du.Set(ip, jp, kp, fluid.ConsVars{1.e-3, 1.e-3, -1.e-3, 0, 1.e-3, 0, 0})
			}
		}
	}
	for sweep := 0; sweep < 5; sweep++ {
		b.LUSGSForward(reorder, &du, &mainD, fp)
		b.LUSGSBackward(reorder, &du, &mainD, fp)
	}
	var maxDu float64
	for _, u := range du.Data() {
		for _, v := range u {
			maxDu = math.Max(maxDu, math.Abs(v))
		}
	}
	assert.Less(t, maxDu, 1.e-10)
}

// RK4 stability on linear advection: the scalar surrogate stays bounded
// for a thousand steps at CFL one.
func TestRK4LinearAdvectionStable(t *testing.T) {
	var (
		n  = 32
		u  = make([]float64, n)
		u0 = make([]float64, n)
		r  = make([]float64, n)
	)
	for i := range u {
		u[i] = math.Sin(2. * math.Pi * float64(i) / float64(n))
	}
	rhs := func(u []float64) {
		for i := range u {
			// first order upwind on a periodic line, dt/dx = CFL = 1
			r[i] = u[i] - u[(i+n-1)%n]
		}
	}
	for step := 0; step < 1000; step++ {
		copy(u0, u)
		for _, alpha := range rkCoeffs {
			rhs(u)
			for i := range u {
				u[i] = u0[i] - alpha*r[i]
			}
		}
	}
	var maxU float64
	for _, v := range u {
		maxU = math.Max(maxU, math.Abs(v))
	}
	assert.Less(t, maxU, 2.)
}
