package parallel

import (
	"fmt"

	"github.com/notargets/mbcfd/block"
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/comm"
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

// tagGeometry is the well-known tag of the geometry scatter; the solution
// gather tags messages with the block's global position instead.
const tagGeometry = 2

/*
PackBlock serializes a block for the geometry scatter. Layout: fifteen
int32 descriptors, the padded state, center, face area and face center
arrays, the volumes, then the boundary descriptor as three surface counts,
seven index vectors, the name lengths, and the concatenated names.
*/
func PackBlock(b *block.Block) []byte {
	var (
		buf = comm.NewBuffer()
	)
	buf.PackInts([]int{
		b.NumCells(), fluid.NumEquations,
		b.NI, b.NJ, b.NK, b.NumGhosts,
		b.ParentBlock,
		b.ParentStartI, b.ParentEndI,
		b.ParentStartJ, b.ParentEndJ,
		b.ParentStartK, b.ParentEndK,
		b.Rank, b.GlobalPos,
	})
	buf.PackPrimVarsSlice(b.State.Data())
	buf.PackVec3s(b.Center.Data())
	buf.PackUnitVec3Mags(b.FAreaI.Data())
	buf.PackUnitVec3Mags(b.FAreaJ.Data())
	buf.PackUnitVec3Mags(b.FAreaK.Data())
	buf.PackVec3s(b.FCenterI.Data())
	buf.PackVec3s(b.FCenterJ.Data())
	buf.PackVec3s(b.FCenterK.Data())
	buf.PackFloats(b.Vol.Data())

	buf.PackInts([]int{b.BC.NumSurfI(), b.BC.NumSurfJ(), b.BC.NumSurfK()})
	iMin, iMax, jMin, jMax, kMin, kMax, tags, names := b.BC.Ranges()
	buf.PackInts(iMin)
	buf.PackInts(iMax)
	buf.PackInts(jMin)
	buf.PackInts(jMax)
	buf.PackInts(kMin)
	buf.PackInts(kMax)
	buf.PackInts(tags)
	for _, name := range names {
		buf.PackInt(len(name))
	}
	for _, name := range names {
		buf.PackString(name)
	}
	return buf.Bytes()
}

// UnpackBlock rebuilds a block from the geometry scatter buffer.
func UnpackBlock(data []byte) (b *block.Block, err error) {
	var (
		rd = comm.NewReader(data)
		hd []int
	)
	if hd, err = rd.UnpackInts(15); err != nil {
		return
	}
	if hd[1] != fluid.NumEquations {
		err = fmt.Errorf("%w: buffer carries %d equations against %d",
			types.ErrHaloProtocol, hd[1], fluid.NumEquations)
		return
	}
	b = block.NewBlock(hd[2], hd[3], hd[4], hd[5])
	b.ParentBlock = hd[6]
	b.ParentStartI, b.ParentEndI = hd[7], hd[8]
	b.ParentStartJ, b.ParentEndJ = hd[9], hd[10]
	b.ParentStartK, b.ParentEndK = hd[11], hd[12]
	b.Rank, b.GlobalPos = hd[13], hd[14]

	unpackInto := func(n int, assign func(int) error) error {
		for i := 0; i < n; i++ {
			if errA := assign(i); errA != nil {
				return errA
			}
		}
		return nil
	}
	if err = unpackInto(b.State.Size(), func(i int) (e error) {
		b.State.Data()[i], e = rd.UnpackPrimVars()
		return
	}); err != nil {
		return
	}
	if err = unpackInto(b.Center.Size(), func(i int) (e error) {
		b.Center.Data()[i], e = rd.UnpackVec3()
		return
	}); err != nil {
		return
	}
	for _, fa := range []*types.Array3D[geom.UnitVec3Mag]{&b.FAreaI, &b.FAreaJ, &b.FAreaK} {
		if err = unpackInto(fa.Size(), func(i int) (e error) {
			fa.Data()[i], e = rd.UnpackUnitVec3Mag()
			return
		}); err != nil {
			return
		}
	}
	for _, fc := range []*types.Array3D[geom.Vec3]{&b.FCenterI, &b.FCenterJ, &b.FCenterK} {
		if err = unpackInto(fc.Size(), func(i int) (e error) {
			fc.Data()[i], e = rd.UnpackVec3()
			return
		}); err != nil {
			return
		}
	}
	if err = unpackInto(b.Vol.Size(), func(i int) (e error) {
		b.Vol.Data()[i], e = rd.UnpackFloat()
		return
	}); err != nil {
		return
	}

	var surfs []int
	if surfs, err = rd.UnpackInts(3); err != nil {
		return
	}
	total := surfs[0] + surfs[1] + surfs[2]
	var ranges [7][]int
	for n := 0; n < 7; n++ {
		if ranges[n], err = rd.UnpackInts(total); err != nil {
			return
		}
	}
	var strLens []int
	if strLens, err = rd.UnpackInts(total); err != nil {
		return
	}
	names := make([]string, total)
	for n := 0; n < total; n++ {
		if names[n], err = rd.UnpackString(strLens[n]); err != nil {
			return
		}
	}
	b.BC, err = boundary.ConditionsFromRanges(surfs[0], surfs[1], surfs[2],
		ranges[0], ranges[1], ranges[2], ranges[3], ranges[4], ranges[5], ranges[6], names)
	return
}

/*
SendBlocks scatters the decomposed blocks: the coordinator keeps its own
and ships the rest; workers receive numLocal blocks in order. Every rank
returns its local block list with local positions assigned.
*/
func SendBlocks(blocks []*block.Block, bus comm.Bus, numLocal int) (local []*block.Block, err error) {
	if bus.Rank() == ROOT {
		for _, b := range blocks {
			if b.Rank == ROOT {
				b.LocalPos = len(local)
				local = append(local, b)
				continue
			}
			if err = bus.Send(b.Rank, tagGeometry, PackBlock(b)); err != nil {
				return
			}
		}
		return
	}
	for n := 0; n < numLocal; n++ {
		var data []byte
		if data, err = bus.Recv(ROOT, tagGeometry); err != nil {
			return
		}
		var b *block.Block
		if b, err = UnpackBlock(data); err != nil {
			return
		}
		b.Rank = bus.Rank()
		b.LocalPos = n
		local = append(local, b)
	}
	return
}

/*
GetBlocks gathers the solution: workers pack state, residual, time step and
wave speed keyed by global position; the coordinator receives in global
position order and commits into its full block list.
*/
func GetBlocks(blocks []*block.Block, local []*block.Block, bus comm.Bus) (err error) {
	if bus.Rank() != ROOT {
		for _, b := range local {
			buf := comm.NewBuffer()
			buf.PackPrimVarsSlice(b.State.Data())
			buf.PackConsVarsSlice(b.Residual.Data())
			buf.PackFloats(b.Dt.Data())
			buf.PackFloats(b.AvgWaveSpeed.Data())
			if err = bus.Send(ROOT, b.GlobalPos, buf.Bytes()); err != nil {
				return
			}
		}
		return
	}
	var locNum int
	for _, b := range blocks {
		if b.Rank == ROOT {
			// already mutated in place on the coordinator
			locNum++
			continue
		}
		var data []byte
		if data, err = bus.Recv(b.Rank, b.GlobalPos); err != nil {
			return
		}
		rd := comm.NewReader(data)
		var qs []fluid.PrimVars
		if qs, err = rd.UnpackPrimVarsSlice(b.State.Size()); err != nil {
			return
		}
		copy(b.State.Data(), qs)
		var us []fluid.ConsVars
		if us, err = rd.UnpackConsVarsSlice(b.Residual.Size()); err != nil {
			return
		}
		copy(b.Residual.Data(), us)
		var fs []float64
		if fs, err = rd.UnpackFloats(b.Dt.Size()); err != nil {
			return
		}
		copy(b.Dt.Data(), fs)
		if fs, err = rd.UnpackFloats(b.AvgWaveSpeed.Size()); err != nil {
			return
		}
		copy(b.AvgWaveSpeed.Data(), fs)
	}
	return
}

// SendConnections broadcasts the full connection list; every worker
// receives the count first, then the records.
func SendConnections(conns []boundary.Connection, bus comm.Bus) (out []boundary.Connection, err error) {
	var payload []byte
	if bus.Rank() == ROOT {
		buf := comm.NewBuffer()
		buf.PackInt(len(conns))
		for _, c := range conns {
			buf.PackConnection(c)
		}
		payload = buf.Bytes()
	}
	if payload, err = bus.Broadcast(ROOT, payload); err != nil {
		return
	}
	rd := comm.NewReader(payload)
	var count int
	if count, err = rd.UnpackInt(); err != nil {
		return
	}
	out = make([]boundary.Connection, count)
	for n := 0; n < count; n++ {
		if out[n], err = rd.UnpackConnection(); err != nil {
			return
		}
	}
	return
}

// BroadcastString ships a string from the coordinator to every rank; the job
// driver uses it for the job title.
func BroadcastString(s string, bus comm.Bus) (out string, err error) {
	var payload []byte
	if bus.Rank() == ROOT {
		buf := comm.NewBuffer()
		buf.PackInt(len(s))
		buf.PackString(s)
		payload = buf.Bytes()
	}
	if payload, err = bus.Broadcast(ROOT, payload); err != nil {
		return
	}
	rd := comm.NewReader(payload)
	var n int
	if n, err = rd.UnpackInt(); err != nil {
		return
	}
	out, err = rd.UnpackString(n)
	return
}
