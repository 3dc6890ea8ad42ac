package parallel

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/mbcfd/block"
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/comm"
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

func makeBlocks(n int) (blocks []*block.Block) {
	for i := 0; i < n; i++ {
		bc := boundary.NewCubeConditions(3, 3, 3, [6]string{
			"slipWall", "slipWall", "slipWall", "slipWall", "slipWall", "slipWall"})
		b := block.NewCartesianBlock(geom.Vec3{float64(i), 0, 0},
			geom.Vec3{1. / 3., 1. / 3., 1. / 3.}, 3, 3, 3, 2, bc)
		b.AssignGhostCellsGeom()
		// distinct states so transfer faithfulness is observable
		for m := range b.State.Data() {
			b.State.Data()[m] = fluid.PrimVars{
				1. + float64(i), float64(m), 0.1, -0.2, 1. / 1.4, 0, 0}
		}
		blocks = append(blocks, b)
	}
	return
}

func TestManualDecompositionCounts(t *testing.T) {
	blocks := makeBlocks(3)
	loadBal, err := ManualDecomposition(blocks, 3, nil)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, loadBal)
	for n, b := range blocks {
		assert.Equal(t, n, b.Rank)
		assert.Equal(t, n, b.GlobalPos)
	}

	_, err = ManualDecomposition(blocks, 2, nil)
	assert.True(t, errors.Is(err, types.ErrConfigMismatch))
}

func TestDecompositionUpdatesConnectionRanks(t *testing.T) {
	blocks := makeBlocks(2)
	conns := []boundary.Connection{{Block: [2]int{0, 1}}}
	_, err := ManualDecomposition(blocks, 2, conns)
	assert.NoError(t, err)
	assert.Equal(t, [2]int{0, 1}, conns[0].Rank)
}

func TestPackUnpackBlock(t *testing.T) {
	b := makeBlocks(1)[0]
	b.ParentBlock = 3
	b.ParentStartI, b.ParentEndI = 2, 5
	b.GlobalPos = 7
	back, err := UnpackBlock(PackBlock(b))
	assert.NoError(t, err)
	assert.Equal(t, b.NI, back.NI)
	assert.Equal(t, b.NumGhosts, back.NumGhosts)
	assert.Equal(t, 3, back.ParentBlock)
	assert.Equal(t, 2, back.ParentStartI)
	assert.Equal(t, 7, back.GlobalPos)
	assert.Equal(t, b.State.Data(), back.State.Data())
	assert.Equal(t, b.Vol.Data(), back.Vol.Data())
	assert.Equal(t, b.FAreaJ.Data(), back.FAreaJ.Data())
	assert.Equal(t, b.BC.NumSurfaces(), back.BC.NumSurfaces())
	assert.Equal(t, "slipWall", back.BC.GetBCName(0, 1, 1, boundary.SurfILow))
}

func TestPackBlockTruncatedBuffer(t *testing.T) {
	b := makeBlocks(1)[0]
	data := PackBlock(b)
	_, err := UnpackBlock(data[:len(data)-8])
	assert.True(t, errors.Is(err, types.ErrHaloProtocol))
}

/*
Scatter and gather across three workers: the coordinator's scatter hands
each worker exactly one block, and the gather reproduces the original
state arrays bit for bit.
*/
func TestScatterGatherRoundTrip(t *testing.T) {
	var (
		blocks   = makeBlocks(3)
		original [][]fluid.PrimVars
		cl       = comm.NewChanCluster(3)
	)
	for _, b := range blocks {
		saved := make([]fluid.PrimVars, b.State.Size())
		copy(saved, b.State.Data())
		original = append(original, saved)
	}
	loadBal, err := ManualDecomposition(blocks, 3, nil)
	assert.NoError(t, err)

	var wg sync.WaitGroup
	for rank := 0; rank < 3; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			var (
				bus = cl.Endpoint(rank)
				lb  []int
			)
			if rank == ROOT {
				lb = loadBal
			}
			numLocal, errW := bus.ScatterInt(ROOT, lb)
			assert.NoError(t, errW)
			assert.Equal(t, 1, numLocal)

			var myBlocks []*block.Block
			if rank == ROOT {
				myBlocks = blocks
			}
			local, errW := SendBlocks(myBlocks, bus, numLocal)
			assert.NoError(t, errW)
			assert.Len(t, local, 1)
			assert.Equal(t, rank, local[0].Rank)

			errW = GetBlocks(myBlocks, local, bus)
			assert.NoError(t, errW)
		}(rank)
	}
	wg.Wait()

	for n, b := range blocks {
		assert.Equal(t, original[n], b.State.Data(), "block %d state changed in transit", n)
	}
}

func TestSendConnectionsBroadcast(t *testing.T) {
	var (
		cl    = comm.NewChanCluster(2)
		conns = []boundary.Connection{{
			Rank:        [2]int{0, 1},
			Block:       [2]int{0, 1},
			Boundary:    [2]int{2, 1},
			D1End:       [2]int{4, 4},
			D2End:       [2]int{4, 4},
			ConstSurf:   [2]int{4, 0},
			Orientation: 1,
		}}
		wg sync.WaitGroup
	)
	for rank := 0; rank < 2; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			var (
				bus = cl.Endpoint(rank)
				in  []boundary.Connection
			)
			if rank == ROOT {
				in = conns
			}
			out, err := SendConnections(in, bus)
			assert.NoError(t, err)
			assert.Len(t, out, 1)
			assert.Equal(t, conns[0].Orientation, out[0].Orientation)
			assert.Equal(t, conns[0].Boundary, out[0].Boundary)

			s, err := BroadcastString("duct.yaml", bus)
			assert.NoError(t, err)
			assert.Equal(t, "duct.yaml", s)
		}(rank)
	}
	wg.Wait()
}

func TestLocalConnections(t *testing.T) {
	blocks := makeBlocks(2)
	blocks[0].GlobalPos, blocks[1].GlobalPos = 0, 1
	conns := []boundary.Connection{
		{Rank: [2]int{0, 1}, Block: [2]int{0, 1}},
		{Rank: [2]int{2, 3}, Block: [2]int{2, 3}},
	}
	local := LocalConnections(conns, blocks[:1], 0)
	assert.Equal(t, []int{0}, local)
	assert.Equal(t, 0, conns[0].LocalBlock[0])
}
