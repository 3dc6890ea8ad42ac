package parallel

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/notargets/mbcfd/block"
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/types"
)

// ROOT is the coordinator rank, passed explicitly to every routine that
// needs it rather than consulted as ambient state.
const ROOT = 0

/*
ManualDecomposition assigns one block per worker, in block order. The
worker count must equal the block count; anything else is a configuration
mismatch. Connection ranks are rewritten from the assignment and the load
balance statistic max_load/ideal_load is reported.
*/
func ManualDecomposition(blocks []*block.Block, numProc int, conns []boundary.Connection) (loadBal []int, err error) {
	if len(blocks) != numProc {
		err = fmt.Errorf("%w: manual decomposition requires one block per processor, have %d blocks over %d processors",
			types.ErrConfigMismatch, len(blocks), numProc)
		return
	}
	var (
		totalCells int
		maxLoad    int
	)
	for _, b := range blocks {
		totalCells += b.NumCells()
	}
	idealLoad := float64(totalCells) / float64(numProc)

	loadBal = make([]int, numProc)
	for n, b := range blocks {
		b.Rank = n
		b.GlobalPos = n
		loadBal[n] = 1
		if b.NumCells() > maxLoad {
			maxLoad = b.NumCells()
		}
	}
	log.Infof("using manual grid decomposition over %d processors", numProc)
	log.WithFields(log.Fields{
		"max_load":   maxLoad,
		"ideal_load": idealLoad,
	}).Infof("ratio of most loaded processor to average is %.4f", float64(maxLoad)/idealLoad)

	// connections pick up the rank assignment of their endpoints
	for n := range conns {
		conns[n].Rank[0] = blocks[conns[n].Block[0]].Rank
		conns[n].Rank[1] = blocks[conns[n].Block[1]].Rank
	}
	return
}

/*
LocalConnections resolves the local block indices of the entries touching a
rank and returns their positions within the broadcast list. Positions index
the same list on every rank, so they double as the swap tag space of the
cross-worker exchanges.
*/
func LocalConnections(conns []boundary.Connection, localBlocks []*block.Block, rank int) (local []int) {
	for n := range conns {
		c := &conns[n]
		if c.Rank[0] != rank && c.Rank[1] != rank {
			continue
		}
		for side := 0; side < 2; side++ {
			if c.Rank[side] != rank {
				continue
			}
			for lb, b := range localBlocks {
				if b.GlobalPos == c.Block[side] {
					c.LocalBlock[side] = lb
				}
			}
		}
		local = append(local, n)
	}
	return
}
