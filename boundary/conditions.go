package boundary

import (
	"fmt"

	"github.com/notargets/mbcfd/types"
)

// Surface ids 1..6 follow the I-low/I-high/J-low/J-high/K-low/K-high order.
const (
	SurfILow = iota + 1
	SurfIHigh
	SurfJLow
	SurfJHigh
	SurfKLow
	SurfKHigh
)

/*
Surface is one tagged rectangular patch of a block face. Index ranges are
half-open cell ranges in the two tangential directions; in the constant
direction Min == Max and holds the face index (0 on a low face, the cell
count on a high face). Tag pairs interblock partners.
*/
type Surface struct {
	Type                               string
	SurfType                           int // 1..6
	IMin, IMax, JMin, JMax, KMin, KMax int
	Tag                                int
}

func (s Surface) BCType() BCType {
	return NewBCType(s.Type)
}

// Direction3 is the face-normal direction of the surface.
func (s Surface) Direction3() types.Direction {
	switch s.SurfType {
	case SurfILow, SurfIHigh:
		return types.DirI
	case SurfJLow, SurfJHigh:
		return types.DirJ
	default:
		return types.DirK
	}
}

// Direction1 and Direction2 are the in-surface directions; the convention is
// I-surface: (j,k), J-surface: (i,k), K-surface: (i,j).
func (s Surface) Direction1() types.Direction {
	if s.Direction3() == types.DirI {
		return types.DirJ
	}
	return types.DirI
}

func (s Surface) Direction2() types.Direction {
	if s.Direction3() == types.DirK {
		return types.DirJ
	}
	return types.DirK
}

func (s Surface) IsLower() bool {
	return s.SurfType == SurfILow || s.SurfType == SurfJLow || s.SurfType == SurfKLow
}

// ConstIndex is the face index in the constant direction.
func (s Surface) ConstIndex() int {
	switch s.Direction3() {
	case types.DirI:
		return s.IMin
	case types.DirJ:
		return s.JMin
	default:
		return s.KMin
	}
}

// Range1 and Range2 are the half-open cell ranges along Direction1/2.
func (s Surface) Range1() (lo, hi int) {
	if s.Direction3() == types.DirI {
		return s.JMin, s.JMax
	}
	return s.IMin, s.IMax
}

func (s Surface) Range2() (lo, hi int) {
	if s.Direction3() == types.DirK {
		return s.JMin, s.JMax
	}
	return s.KMin, s.KMax
}

// RangeDir returns the half-open range of the surface along a block axis.
func (s Surface) RangeDir(dir types.Direction) (lo, hi int) {
	switch dir {
	case types.DirI:
		return s.IMin, s.IMax
	case types.DirJ:
		return s.JMin, s.JMax
	default:
		return s.KMin, s.KMax
	}
}

func (s *Surface) setRangeDir(dir types.Direction, lo, hi int) {
	switch dir {
	case types.DirI:
		s.IMin, s.IMax = lo, hi
	case types.DirJ:
		s.JMin, s.JMax = lo, hi
	default:
		s.KMin, s.KMax = lo, hi
	}
}

/*
Conditions is the ordered surface-patch table of one block: all I surfaces,
then J, then K. It is the unit shipped with a block during decomposition and
consulted by every ghost-fill pass.
*/
type Conditions struct {
	numSurfI, numSurfJ, numSurfK int
	surfs                        []Surface
}

func NewConditions(surfs []Surface) (bc Conditions) {
	var (
		byDir [3][]Surface
	)
	for _, s := range surfs {
		byDir[s.Direction3()] = append(byDir[s.Direction3()], s)
	}
	bc = Conditions{
		numSurfI: len(byDir[types.DirI]),
		numSurfJ: len(byDir[types.DirJ]),
		numSurfK: len(byDir[types.DirK]),
	}
	bc.surfs = append(bc.surfs, byDir[types.DirI]...)
	bc.surfs = append(bc.surfs, byDir[types.DirJ]...)
	bc.surfs = append(bc.surfs, byDir[types.DirK]...)
	return
}

// NewCubeConditions builds the six single-patch surfaces of an nI x nJ x nK
// block with the given tags in surface-id order.
func NewCubeConditions(nI, nJ, nK int, tags [6]string) Conditions {
	return NewConditions([]Surface{
		{Type: tags[0], SurfType: SurfILow, IMin: 0, IMax: 0, JMin: 0, JMax: nJ, KMin: 0, KMax: nK},
		{Type: tags[1], SurfType: SurfIHigh, IMin: nI, IMax: nI, JMin: 0, JMax: nJ, KMin: 0, KMax: nK},
		{Type: tags[2], SurfType: SurfJLow, IMin: 0, IMax: nI, JMin: 0, JMax: 0, KMin: 0, KMax: nK},
		{Type: tags[3], SurfType: SurfJHigh, IMin: 0, IMax: nI, JMin: nJ, JMax: nJ, KMin: 0, KMax: nK},
		{Type: tags[4], SurfType: SurfKLow, IMin: 0, IMax: nI, JMin: 0, JMax: nJ, KMin: 0, KMax: 0},
		{Type: tags[5], SurfType: SurfKHigh, IMin: 0, IMax: nI, JMin: 0, JMax: nJ, KMin: nK, KMax: nK},
	})
}

func (bc *Conditions) NumSurfaces() int { return len(bc.surfs) }
func (bc *Conditions) NumSurfI() int    { return bc.numSurfI }
func (bc *Conditions) NumSurfJ() int    { return bc.numSurfJ }
func (bc *Conditions) NumSurfK() int    { return bc.numSurfK }

func (bc *Conditions) GetSurface(n int) Surface {
	return bc.surfs[n]
}

func (bc *Conditions) SetSurface(n int, s Surface) {
	bc.surfs[n] = s
}

// GetBCName returns the tag of the patch covering cell (i,j,k) on the given
// surface id, or "undefined" when no patch covers it. The constant-direction
// coordinate is ignored; only the tangential ranges select the patch.
func (bc *Conditions) GetBCName(i, j, k, surfType int) (name string) {
	name = "undefined"
	for _, s := range bc.surfs {
		if s.SurfType != surfType {
			continue
		}
		var t1, t2 int
		switch s.Direction3() {
		case types.DirI:
			t1, t2 = j, k
		case types.DirJ:
			t1, t2 = i, k
		default:
			t1, t2 = i, j
		}
		lo1, hi1 := s.Range1()
		lo2, hi2 := s.Range2()
		if t1 >= lo1 && t1 < hi1 && t2 >= lo2 && t2 < hi2 {
			name = s.Type
			return
		}
	}
	return
}

// NumViscousFaces counts the faces covered by viscousWall patches.
func (bc *Conditions) NumViscousFaces() (n int) {
	for _, s := range bc.surfs {
		if s.BCType() == BC_ViscousWall {
			lo1, hi1 := s.Range1()
			lo2, hi2 := s.Range2()
			n += (hi1 - lo1) * (hi2 - lo2)
		}
	}
	return
}

/*
Split bisects the surface table at the plane dir=ind, in cell units. The
receiver becomes the lower half; the upper half is returned with its indices
rebased to the new block origin. A fresh interblock pair is created on the
cut plane, tagged with the partner block ids. Any interblock patch that was
cut is appended to altered so the coordinator can rework its partner.
*/
func (bc *Conditions) Split(dir types.Direction, ind, parent, child int, altered *[]Surface) (upper Conditions) {
	var (
		lowerSurfs, upperSurfs []Surface
		extent                 [3][2]int // running extent of the block in each direction
	)
	for _, s := range bc.surfs {
		for d := types.DirI; d <= types.DirK; d++ {
			if _, hi := s.RangeDir(d); hi > extent[d][1] {
				extent[d][1] = hi
			}
		}
	}
	for _, s := range bc.surfs {
		if s.Direction3() == dir {
			// surface normal to the cut: belongs wholly to one half
			if s.ConstIndex() <= 0 {
				lowerSurfs = append(lowerSurfs, s)
			} else {
				u := s
				lo, hi := u.RangeDir(dir)
				u.setRangeDir(dir, lo-ind, hi-ind)
				upperSurfs = append(upperSurfs, u)
			}
			continue
		}
		lo, hi := s.RangeDir(dir)
		switch {
		case hi <= ind:
			lowerSurfs = append(lowerSurfs, s)
		case lo >= ind:
			u := s
			u.setRangeDir(dir, lo-ind, hi-ind)
			upperSurfs = append(upperSurfs, u)
		default:
			// patch straddles the cut: split it
			l, u := s, s
			l.setRangeDir(dir, lo, ind)
			u.setRangeDir(dir, 0, hi-ind)
			lowerSurfs = append(lowerSurfs, l)
			upperSurfs = append(upperSurfs, u)
			if s.BCType() == BC_Interblock {
				cut := s
				*altered = append(*altered, cut)
			}
		}
	}
	// the interface between the halves becomes an interblock pair
	lowFace, highFace := interfaceSurfaces(dir, ind, extent, parent, child)
	lowerSurfs = append(lowerSurfs, highFace)
	upperSurfs = append(upperSurfs, lowFace)

	upper = NewConditions(upperSurfs)
	*bc = NewConditions(lowerSurfs)
	return
}

func interfaceSurfaces(dir types.Direction, ind int, extent [3][2]int, parent, child int) (lowFace, highFace Surface) {
	var (
		ni, nj, nk = extent[types.DirI][1], extent[types.DirJ][1], extent[types.DirK][1]
	)
	switch dir {
	case types.DirI:
		highFace = Surface{Type: "interblock", SurfType: SurfIHigh, IMin: ind, IMax: ind, JMin: 0, JMax: nj, KMin: 0, KMax: nk, Tag: child}
		lowFace = Surface{Type: "interblock", SurfType: SurfILow, IMin: 0, IMax: 0, JMin: 0, JMax: nj, KMin: 0, KMax: nk, Tag: parent}
	case types.DirJ:
		highFace = Surface{Type: "interblock", SurfType: SurfJHigh, IMin: 0, IMax: ni, JMin: ind, JMax: ind, KMin: 0, KMax: nk, Tag: child}
		lowFace = Surface{Type: "interblock", SurfType: SurfJLow, IMin: 0, IMax: ni, JMin: 0, JMax: 0, KMin: 0, KMax: nk, Tag: parent}
	default:
		highFace = Surface{Type: "interblock", SurfType: SurfKHigh, IMin: 0, IMax: ni, JMin: 0, JMax: nj, KMin: ind, KMax: ind, Tag: child}
		lowFace = Surface{Type: "interblock", SurfType: SurfKLow, IMin: 0, IMax: ni, JMin: 0, JMax: nj, KMin: 0, KMax: 0, Tag: parent}
	}
	return
}

/*
Join is the inverse of Split: the receiver is the lower half, other the
upper. lowerCells is the receiver's cell count along dir. The interface
interblock pair is dropped, the upper surfaces are rebased, and patches that
line up across the seam with identical type and tag are merged. Interblock
patches that get merged are appended to altered.
*/
func (bc *Conditions) Join(other Conditions, dir types.Direction, lowerCells int, altered *[]Surface) {
	var (
		merged []Surface
	)
	keep := func(s Surface, isUpper bool) bool {
		if s.Direction3() != dir {
			return true
		}
		// drop the two faces that meet at the seam
		if !isUpper && !s.IsLower() && s.ConstIndex() == lowerCells {
			return false
		}
		if isUpper && s.IsLower() && s.ConstIndex() == 0 {
			return false
		}
		return true
	}
	for _, s := range bc.surfs {
		if keep(s, false) {
			merged = append(merged, s)
		}
	}
	for _, s := range other.surfs {
		if !keep(s, true) {
			continue
		}
		u := s
		lo, hi := u.RangeDir(dir)
		u.setRangeDir(dir, lo+lowerCells, hi+lowerCells)
		merged = append(merged, u)
	}
	// coalesce patches that abut along dir with matching type, tag, and
	// tangential ranges
	for changed := true; changed; {
		changed = false
		for a := 0; a < len(merged) && !changed; a++ {
			for b := a + 1; b < len(merged); b++ {
				if joinable(merged[a], merged[b], dir) {
					loA, _ := merged[a].RangeDir(dir)
					_, hiB := merged[b].RangeDir(dir)
					merged[a].setRangeDir(dir, loA, hiB)
					if merged[a].BCType() == BC_Interblock {
						*altered = append(*altered, merged[a])
					}
					merged = append(merged[:b], merged[b+1:]...)
					changed = true
					break
				}
			}
		}
	}
	*bc = NewConditions(merged)
}

func joinable(a, b Surface, dir types.Direction) bool {
	if a.Direction3() == dir || b.Direction3() == dir {
		return false
	}
	if a.SurfType != b.SurfType || a.Type != b.Type || a.Tag != b.Tag {
		return false
	}
	_, hiA := a.RangeDir(dir)
	loB, _ := b.RangeDir(dir)
	if hiA != loB {
		return false
	}
	for d := types.DirI; d <= types.DirK; d++ {
		if d == dir {
			continue
		}
		loA, hA := a.RangeDir(d)
		lB, hB := b.RangeDir(d)
		if loA != lB || hA != hB {
			return false
		}
	}
	return true
}

// Ranges exposes the parallel index vectors of the table in surface order,
// the layout shipped inside the halo buffer.
func (bc *Conditions) Ranges() (iMin, iMax, jMin, jMax, kMin, kMax, tags []int, names []string) {
	for _, s := range bc.surfs {
		iMin = append(iMin, s.IMin)
		iMax = append(iMax, s.IMax)
		jMin = append(jMin, s.JMin)
		jMax = append(jMax, s.JMax)
		kMin = append(kMin, s.KMin)
		kMax = append(kMax, s.KMax)
		tags = append(tags, s.Tag)
		names = append(names, s.Type)
	}
	return
}

// ConditionsFromRanges rebuilds a table from the halo-buffer vectors. The
// surface ids are recovered from the per-direction counts and the constant
// index.
func ConditionsFromRanges(nSurfI, nSurfJ, nSurfK int,
	iMin, iMax, jMin, jMax, kMin, kMax, tags []int, names []string) (bc Conditions, err error) {
	var (
		total = nSurfI + nSurfJ + nSurfK
	)
	if len(iMin) != total || len(names) != total {
		err = fmt.Errorf("%w: surface counts %d+%d+%d against %d ranges",
			types.ErrHaloProtocol, nSurfI, nSurfJ, nSurfK, len(iMin))
		return
	}
	surfs := make([]Surface, total)
	for n := 0; n < total; n++ {
		s := Surface{
			Type: names[n],
			IMin: iMin[n], IMax: iMax[n],
			JMin: jMin[n], JMax: jMax[n],
			KMin: kMin[n], KMax: kMax[n],
			Tag: tags[n],
		}
		switch {
		case n < nSurfI:
			s.SurfType = SurfILow
			if s.IMin > 0 {
				s.SurfType = SurfIHigh
			}
		case n < nSurfI+nSurfJ:
			s.SurfType = SurfJLow
			if s.JMin > 0 {
				s.SurfType = SurfJHigh
			}
		default:
			s.SurfType = SurfKLow
			if s.KMin > 0 {
				s.SurfType = SurfKHigh
			}
		}
		surfs[n] = s
	}
	bc = NewConditions(surfs)
	return
}
