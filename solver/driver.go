package solver

import (
	log "github.com/sirupsen/logrus"

	"github.com/notargets/mbcfd/InputParameters"
	"github.com/notargets/mbcfd/block"
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/comm"
	"github.com/notargets/mbcfd/parallel"
)

/*
RunJob is the whole-job driver of one worker. The coordinator supplies the
full block and connection lists; other ranks pass nils. Decomposition,
scatter, ghost geometry, the outer iterations, and the solution gather run
in order, with the coordinator holding the committed solution at return.
*/
func RunJob(inp *InputParameters.Input, bus comm.Bus,
	blocks []*block.Block, conns []boundary.Connection) (err error) {
	var (
		loadBal []int
	)
	if bus.Rank() == parallel.ROOT {
		if loadBal, err = parallel.ManualDecomposition(blocks, bus.Size(), conns); err != nil {
			return
		}
	}
	// every rank adopts the coordinator's job title
	if inp.Title, err = parallel.BroadcastString(inp.Title, bus); err != nil {
		return
	}
	numLocal, err := bus.ScatterInt(parallel.ROOT, loadBal)
	if err != nil {
		return
	}
	local, err := parallel.SendBlocks(blocks, bus, numLocal)
	if err != nil {
		return
	}
	allConns, err := parallel.SendConnections(conns, bus)
	if err != nil {
		return
	}
	localConns := parallel.LocalConnections(allConns, local, bus.Rank())

	for _, b := range local {
		b.AssignGhostCellsGeom()
	}
	s, err := New(inp, bus, local, allConns, localConns)
	if err != nil {
		return
	}
	if err = s.SwapGeometry(); err != nil {
		return
	}
	for _, b := range local {
		b.InitializeState(s.Phys.FS.Qinf)
	}
	if err = s.Run(); err != nil {
		return
	}
	if err = parallel.GetBlocks(blocks, local, bus); err != nil {
		return
	}
	if bus.Rank() == parallel.ROOT {
		log.Infof("job complete after %d iterations over %d blocks",
			inp.MaxIterations, len(blocks))
	}
	return
}
