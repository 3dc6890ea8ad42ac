package boundary

import (
	"fmt"

	"github.com/notargets/mbcfd/types"
)

/*
Connection pairs two face patches on two blocks (possibly the same block)
into a virtual interior boundary. Side 0 is the "first" patch, side 1 the
"second". All per-side fields follow the wire layout of the inter-block
record: rank, block, localBlock, boundary, d1Start, d1End, d2Start, d2End,
constSurf, then the shared orientation.

The orientation tag 1..8 encodes how the first patch's in-surface coordinate
frame (d1,d2) maps onto the second patch's: an optional axis swap composed
with per-axis reversals.

Border flags are not part of the wire record; they are discovered locally
during geometry swaps (the T-intersection rule) and steer which edge strips
later state swaps may write.
*/
type Connection struct {
	Rank        [2]int
	Block       [2]int
	LocalBlock  [2]int
	Boundary    [2]int // surface id 1..6
	D1Start     [2]int
	D1End       [2]int
	D2Start     [2]int
	D2End       [2]int
	ConstSurf   [2]int
	Orientation int

	Border [2][4]bool
}

var orientations = [9]struct{ swap, rev1, rev2 bool }{
	{},
	{false, false, false},
	{true, false, false},
	{false, true, false},
	{false, false, true},
	{true, true, false},
	{true, false, true},
	{false, true, true},
	{true, true, true},
}

// NewConnection validates the pairing of two interblock surfaces under an
// orientation tag and builds the record. Ranks and local block ids are
// populated later by the decomposition.
func NewConnection(block1, block2 int, s1, s2 Surface, orientation int) (conn Connection, err error) {
	if orientation < 1 || orientation > 8 {
		err = fmt.Errorf("%w: orientation %d not in 1..8", types.ErrHaloProtocol, orientation)
		return
	}
	conn = Connection{
		Block:       [2]int{block1, block2},
		Boundary:    [2]int{s1.SurfType, s2.SurfType},
		Orientation: orientation,
	}
	for side, s := range []Surface{s1, s2} {
		lo1, hi1 := s.Range1()
		lo2, hi2 := s.Range2()
		conn.D1Start[side], conn.D1End[side] = lo1, hi1
		conn.D2Start[side], conn.D2End[side] = lo2, hi2
		conn.ConstSurf[side] = s.ConstIndex()
	}
	var (
		n1 = (conn.D1End[0] - conn.D1Start[0]) * (conn.D2End[0] - conn.D2Start[0])
		n2 = (conn.D1End[1] - conn.D1Start[1]) * (conn.D2End[1] - conn.D2Start[1])
	)
	if n1 != n2 {
		err = fmt.Errorf("%w: patch cell counts %d and %d between blocks %d and %d",
			types.ErrBoundaryMismatch, n1, n2, block1, block2)
		return
	}
	if orientations[orientation].swap {
		if conn.PatchLen1(0) != conn.PatchLen2(1) || conn.PatchLen2(0) != conn.PatchLen1(1) {
			err = fmt.Errorf("%w: swapped patch extents %dx%d against %dx%d",
				types.ErrBoundaryMismatch, conn.PatchLen1(0), conn.PatchLen2(0),
				conn.PatchLen1(1), conn.PatchLen2(1))
		}
	} else if conn.PatchLen1(0) != conn.PatchLen1(1) || conn.PatchLen2(0) != conn.PatchLen2(1) {
		err = fmt.Errorf("%w: patch extents %dx%d against %dx%d",
			types.ErrBoundaryMismatch, conn.PatchLen1(0), conn.PatchLen2(0),
			conn.PatchLen1(1), conn.PatchLen2(1))
	}
	return
}

func (c *Connection) PatchLen1(side int) int { return c.D1End[side] - c.D1Start[side] }
func (c *Connection) PatchLen2(side int) int { return c.D2End[side] - c.D2Start[side] }

// Dir3 is the face-normal block axis of a side; Dir1/Dir2 the in-surface
// axes, same convention as Surface.
func (c *Connection) Dir3(side int) types.Direction {
	switch c.Boundary[side] {
	case SurfILow, SurfIHigh:
		return types.DirI
	case SurfJLow, SurfJHigh:
		return types.DirJ
	case SurfKLow, SurfKHigh:
		return types.DirK
	}
	panic(fmt.Errorf("%w: boundary id %d not in 1..6", types.ErrHaloProtocol, c.Boundary[side]))
}

func (c *Connection) Dir1(side int) types.Direction {
	if c.Dir3(side) == types.DirI {
		return types.DirJ
	}
	return types.DirI
}

func (c *Connection) Dir2(side int) types.Direction {
	if c.Dir3(side) == types.DirK {
		return types.DirJ
	}
	return types.DirK
}

func (c *Connection) IsLowerSide(side int) bool {
	return c.Boundary[side] == SurfILow || c.Boundary[side] == SurfJLow || c.Boundary[side] == SurfKLow
}

// SameRank reports whether both endpoints live on one worker.
func (c *Connection) SameRank() bool { return c.Rank[0] == c.Rank[1] }

/*
SliceIndices returns the padded half-open cell range of the donor slice a
side contributes: the full patch extent widened by gh in both tangential
directions (covering the donor's edge ghosts) and gh layers deep along the
surface normal starting at the first interior cell.
*/
func (c *Connection) SliceIndices(side, gh int) (is, ie, js, je, ks, ke int) {
	var (
		lo = [3]int{}
		hi = [3]int{}
	)
	d1, d2, d3 := c.Dir1(side), c.Dir2(side), c.Dir3(side)
	lo[d1], hi[d1] = c.D1Start[side], c.D1End[side]+2*gh // padded: phys range -gh..+gh
	lo[d2], hi[d2] = c.D2Start[side], c.D2End[side]+2*gh
	if c.IsLowerSide(side) {
		lo[d3], hi[d3] = gh, 2*gh
	} else {
		lo[d3], hi[d3] = c.ConstSurf[side], c.ConstSurf[side]+gh
	}
	return lo[0], hi[0], lo[1], hi[1], lo[2], hi[2]
}

// GhostIndex maps receiving-patch coordinates (t1 and t2 in extended patch
// units, layer 0 nearest the boundary) to padded block indices.
func (c *Connection) GhostIndex(side, t1, t2, layer, gh int) (i, j, k int) {
	var (
		idx [3]int
	)
	idx[c.Dir1(side)] = c.D1Start[side] + t1 + gh
	idx[c.Dir2(side)] = c.D2Start[side] + t2 + gh
	if c.IsLowerSide(side) {
		idx[c.Dir3(side)] = gh - 1 - layer
	} else {
		idx[c.Dir3(side)] = c.ConstSurf[side] + gh + layer
	}
	return idx[0], idx[1], idx[2]
}

// InteriorIndex maps donor-patch coordinates (depth 0 at the first interior
// cell) to padded block indices.
func (c *Connection) InteriorIndex(side, s1, s2, depth, gh int) (i, j, k int) {
	var (
		idx [3]int
	)
	idx[c.Dir1(side)] = c.D1Start[side] + s1 + gh
	idx[c.Dir2(side)] = c.D2Start[side] + s2 + gh
	if c.IsLowerSide(side) {
		idx[c.Dir3(side)] = gh + depth
	} else {
		idx[c.Dir3(side)] = c.ConstSurf[side] + gh - 1 - depth
	}
	return idx[0], idx[1], idx[2]
}

/*
MapToDonor translates in-surface coordinates of the receiving patch into the
donor patch's frame under the orientation tag. Extended coordinates (the
±gh edge strips) map consistently because reversal is symmetric about the
patch extent.
*/
func (c *Connection) MapToDonor(recvSide, t1, t2 int) (s1, s2 int) {
	var (
		o     = orientations[c.Orientation]
		donor = 1 - recvSide
	)
	if recvSide == 0 {
		// forward map: first frame into second frame
		a, b := t1, t2
		if o.swap {
			a, b = t2, t1
		}
		if o.rev1 {
			a = c.PatchLen1(donor) - 1 - a
		}
		if o.rev2 {
			b = c.PatchLen2(donor) - 1 - b
		}
		return a, b
	}
	// inverse map: second frame into first frame
	a, b := t1, t2
	if o.rev1 {
		a = c.PatchLen1(recvSide) - 1 - a
	}
	if o.rev2 {
		b = c.PatchLen2(recvSide) - 1 - b
	}
	if o.swap {
		a, b = b, a
	}
	return a, b
}

/*
AxisMap derives, for the receiving side, the correspondence between the
receiver block's axes and the donor block's axes inside the swapped region:
perm[r] is the donor axis matching receiver axis r, sign[r] is -1 when
increasing receiver index runs against increasing donor index. Derived by
probing the coordinate maps so the orientation case analysis lives in one
place only.
*/
func (c *Connection) AxisMap(recvSide, gh int) (perm [3]types.Direction, sign [3]int) {
	var (
		donor = 1 - recvSide
	)
	probe := func(t1a, t2a, la, t1b, t2b, lb int) (axis types.Direction, dir int) {
		s1a, s2a := c.MapToDonor(recvSide, t1a, t2a)
		s1b, s2b := c.MapToDonor(recvSide, t1b, t2b)
		ia, ja, ka := c.InteriorIndex(donor, s1a, s2a, la, gh)
		ib, jb, kb := c.InteriorIndex(donor, s1b, s2b, lb, gh)
		switch {
		case ib != ia:
			return types.DirI, ib - ia
		case jb != ja:
			return types.DirJ, jb - ja
		default:
			return types.DirK, kb - ka
		}
	}
	set := func(recvAxis types.Direction, donorAxis types.Direction, dir int) {
		perm[recvAxis] = donorAxis
		sign[recvAxis] = 1
		if dir < 0 {
			sign[recvAxis] = -1
		}
	}
	a1, s1 := probe(0, 0, 0, 1, 0, 0)
	set(c.Dir1(recvSide), a1, s1)
	a2, s2 := probe(0, 0, 0, 0, 1, 0)
	set(c.Dir2(recvSide), a2, s2)
	// along the receiver normal, layer and depth increase together; the
	// receiver axis direction depends on which side the ghost region is on
	a3, s3 := probe(0, 0, 0, 0, 0, 1)
	if c.IsLowerSide(recvSide) {
		s3 = -s3 // ghost index decreases as layer increases
	}
	set(c.Dir3(recvSide), a3, s3)
	return
}

// EdgeStrips returns which of the four border strips of the receiving patch
// the extended coordinates (t1,t2) fall into: 0/1 are the d1 lower/upper
// strips, 2/3 the d2 strips.
func (c *Connection) EdgeStrips(side, t1, t2 int) (edges []int) {
	if t1 < 0 {
		edges = append(edges, 0)
	}
	if t1 >= c.PatchLen1(side) {
		edges = append(edges, 1)
	}
	if t2 < 0 {
		edges = append(edges, 2)
	}
	if t2 >= c.PatchLen2(side) {
		edges = append(edges, 3)
	}
	return
}

// OnBorderedStrip reports whether (t1,t2) lies in a strip already claimed by
// a neighboring connection on the same surface.
func (c *Connection) OnBorderedStrip(side, t1, t2 int) bool {
	for _, e := range c.EdgeStrips(side, t1, t2) {
		if c.Border[side][e] {
			return true
		}
	}
	return false
}

// UpdateBorder marks an edge of a side as adjusted by the T-intersection
// rule; later state swaps skip that strip.
func (c *Connection) UpdateBorder(side, edge int) {
	c.Border[side][edge] = true
}
