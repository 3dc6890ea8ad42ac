package block

import (
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

/*
Block owns one rectangular sub-grid: the padded state and geometry arrays,
the interior-only residual and time-step arrays, and the boundary
descriptor. All flux assembly, ghost filling and time advance happens here.

Index convention: padded arrays run [0, n+2*Gh) per direction; physical cell
p lives at padded index p+Gh. Loops over the physical range carry the two
indices together, ghost = physical + Gh. Face arrays have one extra entry
along their own direction. Residual, Dt, AvgWaveSpeed and WallDist carry no
ghosts.
*/
type Block struct {
	NI, NJ, NK int
	NumGhosts  int

	ParentBlock               int
	ParentStartI, ParentEndI  int
	ParentStartJ, ParentEndJ  int
	ParentStartK, ParentEndK  int
	Rank, GlobalPos, LocalPos int

	State        types.Array3D[fluid.PrimVars] // padded
	SolN         types.Array3D[fluid.ConsVars] // interior, time level n
	SolNm1       types.Array3D[fluid.ConsVars] // interior, time level n-1
	Residual     types.Array3D[fluid.ConsVars] // interior
	Dt           types.Array3D[float64]        // interior
	AvgWaveSpeed types.Array3D[float64]        // interior
	WallDist     types.Array3D[float64]        // interior

	Vol    types.Array3D[float64]   // padded
	Center types.Array3D[geom.Vec3] // padded

	FAreaI, FAreaJ, FAreaK       types.Array3D[geom.UnitVec3Mag] // padded, +1 in own direction
	FCenterI, FCenterJ, FCenterK types.Array3D[geom.Vec3]

	// spectral radii accumulated during flux assembly, interior
	SpecRadI, SpecRadJ, SpecRadK types.Array3D[float64]
	ViscRadI, ViscRadJ, ViscRadK types.Array3D[float64]
	SrcRad                       types.Array3D[float64] // turbulence source jacobian

	// low-storage RK4 scratch, allocated on first use
	rk0  types.Array3D[fluid.ConsVars]
	rkDt types.Array3D[float64]

	BC boundary.Conditions
}

// NewBlock allocates all arrays of an nI x nJ x nK block with gh ghost
// layers. Ghost volumes start at zero; the T-intersection rule depends on
// that sentinel.
func NewBlock(nI, nJ, nK, gh int) (b *Block) {
	var (
		pI, pJ, pK = nI + 2*gh, nJ + 2*gh, nK + 2*gh
	)
	b = &Block{
		NI:        nI,
		NJ:        nJ,
		NK:        nK,
		NumGhosts: gh,

		State:        types.NewArray3D[fluid.PrimVars](pI, pJ, pK),
		SolN:         types.NewArray3D[fluid.ConsVars](nI, nJ, nK),
		SolNm1:       types.NewArray3D[fluid.ConsVars](nI, nJ, nK),
		Residual:     types.NewArray3D[fluid.ConsVars](nI, nJ, nK),
		Dt:           types.NewArray3D[float64](nI, nJ, nK),
		AvgWaveSpeed: types.NewArray3D[float64](nI, nJ, nK),
		WallDist:     types.NewArray3D[float64](nI, nJ, nK),

		Vol:    types.NewArray3D[float64](pI, pJ, pK),
		Center: types.NewArray3D[geom.Vec3](pI, pJ, pK),

		FAreaI: types.NewArray3D[geom.UnitVec3Mag](pI+1, pJ, pK),
		FAreaJ: types.NewArray3D[geom.UnitVec3Mag](pI, pJ+1, pK),
		FAreaK: types.NewArray3D[geom.UnitVec3Mag](pI, pJ, pK+1),

		FCenterI: types.NewArray3D[geom.Vec3](pI+1, pJ, pK),
		FCenterJ: types.NewArray3D[geom.Vec3](pI, pJ+1, pK),
		FCenterK: types.NewArray3D[geom.Vec3](pI, pJ, pK+1),

		SpecRadI: types.NewArray3D[float64](nI, nJ, nK),
		SpecRadJ: types.NewArray3D[float64](nI, nJ, nK),
		SpecRadK: types.NewArray3D[float64](nI, nJ, nK),
		ViscRadI: types.NewArray3D[float64](nI, nJ, nK),
		ViscRadJ: types.NewArray3D[float64](nI, nJ, nK),
		ViscRadK: types.NewArray3D[float64](nI, nJ, nK),
		SrcRad:   types.NewArray3D[float64](nI, nJ, nK),
	}
	return
}

func (b *Block) NumCells() int {
	return b.NI * b.NJ * b.NK
}

// Dims of a padded cell array.
func (b *Block) PaddedDims() (pI, pJ, pK int) {
	return b.NI + 2*b.NumGhosts, b.NJ + 2*b.NumGhosts, b.NK + 2*b.NumGhosts
}

// NumDir returns the physical cell count along a direction.
func (b *Block) NumDir(dir types.Direction) int {
	switch dir {
	case types.DirI:
		return b.NI
	case types.DirJ:
		return b.NJ
	default:
		return b.NK
	}
}

// FArea and FCenter select a face array by direction.
func (b *Block) FArea(dir types.Direction) *types.Array3D[geom.UnitVec3Mag] {
	switch dir {
	case types.DirI:
		return &b.FAreaI
	case types.DirJ:
		return &b.FAreaJ
	default:
		return &b.FAreaK
	}
}

func (b *Block) FCenter(dir types.Direction) *types.Array3D[geom.Vec3] {
	switch dir {
	case types.DirI:
		return &b.FCenterI
	case types.DirJ:
		return &b.FCenterJ
	default:
		return &b.FCenterK
	}
}

// InitializeState writes one state into every padded cell.
func (b *Block) InitializeState(q fluid.PrimVars) {
	b.State.Fill(q)
}

// AssignSolToTimeN snapshots the interior conserved solution as time level
// n for the temporal operator.
func (b *Block) AssignSolToTimeN(eos fluid.IdealGas) {
	var (
		gh = b.NumGhosts
	)
	for kp := 0; kp < b.NK; kp++ {
		for jp := 0; jp < b.NJ; jp++ {
			for ip := 0; ip < b.NI; ip++ {
				b.SolN.Set(ip, jp, kp, b.State.At(ip+gh, jp+gh, kp+gh).Cons(eos))
			}
		}
	}
}

// AssignSolToTimeNm1 shifts time level n back to n-1 for BDF2.
func (b *Block) AssignSolToTimeNm1() {
	copy(b.SolNm1.Data(), b.SolN.Data())
}

// ResetResiduals zeroes the residual and the accumulated spectral radii
// ahead of a fresh assembly.
func (b *Block) ResetResiduals() {
	b.Residual.Fill(fluid.ConsVars{})
	b.SpecRadI.Fill(0)
	b.SpecRadJ.Fill(0)
	b.SpecRadK.Fill(0)
	b.ViscRadI.Fill(0)
	b.ViscRadJ.Fill(0)
	b.ViscRadK.Fill(0)
}

// SetWallDistance installs the wall-distance field computed by the
// wall-distance collaborator.
func (b *Block) SetWallDistance(dist types.Array3D[float64]) {
	b.WallDist = dist
}

/*
NewCartesianBlock builds a block over a uniform cartesian box: origin at
org, cell spacing d. Geometry is exact for this grid, which makes it the
workhorse of the solver's own tests and the built-in duct case.
*/
func NewCartesianBlock(org, d geom.Vec3, nI, nJ, nK, gh int, bc boundary.Conditions) (b *Block) {
	b = NewBlock(nI, nJ, nK, gh)
	b.BC = bc
	var (
		areaI = geom.UnitVec3Mag{Unit: geom.Vec3{1, 0, 0}, Mag: d.Y() * d.Z()}
		areaJ = geom.UnitVec3Mag{Unit: geom.Vec3{0, 1, 0}, Mag: d.X() * d.Z()}
		areaK = geom.UnitVec3Mag{Unit: geom.Vec3{0, 0, 1}, Mag: d.X() * d.Y()}
		vol   = d.X() * d.Y() * d.Z()
	)
	// interior cells only; ghost geometry is derived afterwards
	for kp := 0; kp < nK; kp++ {
		for jp := 0; jp < nJ; jp++ {
			for ip := 0; ip < nI; ip++ {
				ig, jg, kg := ip+gh, jp+gh, kp+gh
				ctr := org.Add(geom.Vec3{(float64(ip) + 0.5) * d.X(),
					(float64(jp) + 0.5) * d.Y(), (float64(kp) + 0.5) * d.Z()})
				b.Vol.Set(ig, jg, kg, vol)
				b.Center.Set(ig, jg, kg, ctr)
			}
		}
	}
	for kp := 0; kp < nK; kp++ {
		for jp := 0; jp < nJ; jp++ {
			for ip := 0; ip <= nI; ip++ {
				b.FAreaI.Set(ip+gh, jp+gh, kp+gh, areaI)
				b.FCenterI.Set(ip+gh, jp+gh, kp+gh, org.Add(geom.Vec3{
					float64(ip) * d.X(), (float64(jp) + 0.5) * d.Y(), (float64(kp) + 0.5) * d.Z()}))
			}
		}
	}
	for kp := 0; kp < nK; kp++ {
		for jp := 0; jp <= nJ; jp++ {
			for ip := 0; ip < nI; ip++ {
				b.FAreaJ.Set(ip+gh, jp+gh, kp+gh, areaJ)
				b.FCenterJ.Set(ip+gh, jp+gh, kp+gh, org.Add(geom.Vec3{
					(float64(ip) + 0.5) * d.X(), float64(jp) * d.Y(), (float64(kp) + 0.5) * d.Z()}))
			}
		}
	}
	for kp := 0; kp <= nK; kp++ {
		for jp := 0; jp < nJ; jp++ {
			for ip := 0; ip < nI; ip++ {
				b.FAreaK.Set(ip+gh, jp+gh, kp+gh, areaK)
				b.FCenterK.Set(ip+gh, jp+gh, kp+gh, org.Add(geom.Vec3{
					(float64(ip) + 0.5) * d.X(), (float64(jp) + 0.5) * d.Y(), float64(kp) * d.Z()}))
			}
		}
	}
	return
}
