package comm

import (
	"fmt"

	"github.com/notargets/mbcfd/boundary"
)

/*
Resid is the L-infinity residual record: the magnitude plus five integers
locating the offending cell and equation. The wire form is one double
followed by five ints.
*/
type Resid struct {
	Linf         float64
	Blk, I, J, K int
	Eq           int
}

// Update replaces the record when the magnitude of val exceeds the running
// maximum.
func (r *Resid) Update(val float64, blk, i, j, k, eq int) {
	if val < 0 {
		val = -val
	}
	if val > r.Linf {
		*r = Resid{Linf: val, Blk: blk, I: i, J: j, K: k, Eq: eq}
	}
}

// Max is the pairwise reduction operator; it preserves the locator of the
// larger operand.
func (r Resid) Max(o Resid) Resid {
	if o.Linf > r.Linf {
		return o
	}
	return r
}

func (r Resid) String() string {
	return fmt.Sprintf("%23.4e found in block %5d at (%d, %d, %d) of equation %d",
		r.Linf, r.Blk, r.I, r.J, r.K, r.Eq)
}

func (b *Buffer) PackResid(r Resid) {
	b.PackFloat(r.Linf)
	b.PackInts([]int{r.Blk, r.I, r.J, r.K, r.Eq})
}

func (rd *Reader) UnpackResid() (r Resid, err error) {
	if r.Linf, err = rd.UnpackFloat(); err != nil {
		return
	}
	var loc []int
	if loc, err = rd.UnpackInts(5); err != nil {
		return
	}
	r.Blk, r.I, r.J, r.K, r.Eq = loc[0], loc[1], loc[2], loc[3], loc[4]
	return
}

// PackConnection writes the ten integer groups of the inter-block record:
// rank, block, localBlock, boundary, d1Start, d1End, d2Start, d2End,
// constSurf (two each), then the orientation.
func (b *Buffer) PackConnection(c boundary.Connection) {
	for side := 0; side < 2; side++ {
		b.PackInt(c.Rank[side])
	}
	for side := 0; side < 2; side++ {
		b.PackInt(c.Block[side])
	}
	for side := 0; side < 2; side++ {
		b.PackInt(c.LocalBlock[side])
	}
	for side := 0; side < 2; side++ {
		b.PackInt(c.Boundary[side])
	}
	for side := 0; side < 2; side++ {
		b.PackInt(c.D1Start[side])
	}
	for side := 0; side < 2; side++ {
		b.PackInt(c.D1End[side])
	}
	for side := 0; side < 2; side++ {
		b.PackInt(c.D2Start[side])
	}
	for side := 0; side < 2; side++ {
		b.PackInt(c.D2End[side])
	}
	for side := 0; side < 2; side++ {
		b.PackInt(c.ConstSurf[side])
	}
	b.PackInt(c.Orientation)
}

func (rd *Reader) UnpackConnection() (c boundary.Connection, err error) {
	var vs []int
	if vs, err = rd.UnpackInts(19); err != nil {
		return
	}
	c.Rank = [2]int{vs[0], vs[1]}
	c.Block = [2]int{vs[2], vs[3]}
	c.LocalBlock = [2]int{vs[4], vs[5]}
	c.Boundary = [2]int{vs[6], vs[7]}
	c.D1Start = [2]int{vs[8], vs[9]}
	c.D1End = [2]int{vs[10], vs[11]}
	c.D2Start = [2]int{vs[12], vs[13]}
	c.D2End = [2]int{vs[14], vs[15]}
	c.ConstSurf = [2]int{vs[16], vs[17]}
	c.Orientation = vs[18]
	return
}
