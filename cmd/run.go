package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notargets/mbcfd/InputParameters"
	"github.com/notargets/mbcfd/block"
	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/comm"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/solver"
	"github.com/notargets/mbcfd/types"
)

type runModel struct {
	InputFile  string
	NI, NJ, NK int
	NP         int
	Serve      string
	Connect    string
	Rank, Size int
	Profile    bool
}

// runCmd solves a built-in cartesian duct case: subsonic inflow and
// outflow in I, slip walls elsewhere, split into one block per worker.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the solver on a built-in duct grid",
	Long:  `Run the solver on a built-in cartesian duct grid, decomposed one block per worker`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			m   runModel
			err error
		)
		if m.InputFile, err = cmd.Flags().GetString("inputFile"); err != nil {
			panic(err)
		}
		m.NI, _ = cmd.Flags().GetInt("ni")
		m.NJ, _ = cmd.Flags().GetInt("nj")
		m.NK, _ = cmd.Flags().GetInt("nk")
		m.NP, _ = cmd.Flags().GetInt("np")
		m.Serve, _ = cmd.Flags().GetString("serve")
		m.Connect, _ = cmd.Flags().GetString("connect")
		m.Rank, _ = cmd.Flags().GetInt("rank")
		m.Size, _ = cmd.Flags().GetInt("size")
		m.Profile, _ = cmd.Flags().GetBool("profile")
		if m.Profile {
			defer profile.Start().Stop()
		}
		Run(&m, processDeck(&m))
	},
}

func processDeck(m *runModel) (inp *InputParameters.Input) {
	inp = InputParameters.NewInput()
	if len(m.InputFile) == 0 {
		fmt.Println("no input deck supplied (-I); using defaults")
		return
	}
	data, err := os.ReadFile(m.InputFile)
	if err != nil {
		panic(err)
	}
	if err = inp.Parse(data); err != nil {
		panic(err)
	}
	inp.Print()
	return
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("inputFile", "I", "", "YAML input deck")
	runCmd.Flags().Int("ni", 16, "duct cells in I")
	runCmd.Flags().Int("nj", 8, "duct cells in J")
	runCmd.Flags().Int("nk", 8, "duct cells in K")
	runCmd.Flags().Int("np", 1, "worker count for in-process execution")
	runCmd.Flags().String("serve", "", "coordinate a distributed run on this address")
	runCmd.Flags().String("connect", "", "join a distributed run at this ws:// URL")
	runCmd.Flags().Int("rank", 0, "this worker's rank when connecting")
	runCmd.Flags().Int("size", 1, "total worker count of the distributed run")
	runCmd.Flags().Bool("profile", false, "write a CPU profile")
}

/*
BuildDuctGrid constructs the built-in case: one cartesian block with
subsonic inflow and outflow on the I faces and slip walls elsewhere, then
split along I into np blocks with connections at each seam.
*/
func BuildDuctGrid(nI, nJ, nK, np, gh int) (blocks []*block.Block, conns []boundary.Connection, err error) {
	var (
		d  = geom.Vec3{1. / float64(nI), 1. / float64(nJ), 1. / float64(nK)}
		bc = boundary.NewCubeConditions(nI, nJ, nK, [6]string{
			"subsonicInflow", "subsonicOutflow",
			"slipWall", "slipWall", "slipWall", "slipWall"})
	)
	b0 := block.NewCartesianBlock(geom.Vec3{}, d, nI, nJ, nK, gh, bc)
	blocks = []*block.Block{b0}
	for n := 1; n < np; n++ {
		var (
			altered   []boundary.Surface
			last      = blocks[len(blocks)-1]
			remaining = np - n + 1
		)
		upper := last.Split(types.DirI, last.NI/remaining, n, &altered)
		blocks = append(blocks, upper)
	}
	// pair the interblock faces created by the splits
	for n := 0; n+1 < len(blocks); n++ {
		var (
			lo, hi boundary.Surface
			found  int
		)
		for sn := 0; sn < blocks[n].BC.NumSurfaces(); sn++ {
			s := blocks[n].BC.GetSurface(sn)
			if s.Type == "interblock" && s.SurfType == boundary.SurfIHigh {
				lo = s
				found++
			}
		}
		for sn := 0; sn < blocks[n+1].BC.NumSurfaces(); sn++ {
			s := blocks[n+1].BC.GetSurface(sn)
			if s.Type == "interblock" && s.SurfType == boundary.SurfILow {
				hi = s
				found++
			}
		}
		if found != 2 {
			err = fmt.Errorf("duct split produced %d interblock faces between blocks %d and %d", found, n, n+1)
			return
		}
		var c boundary.Connection
		if c, err = boundary.NewConnection(n, n+1, lo, hi, 1); err != nil {
			return
		}
		conns = append(conns, c)
	}
	return
}

func Run(m *runModel, inp *InputParameters.Input) {
	switch {
	case m.Connect != "":
		bus, err := comm.DialWsBus(m.Connect, m.Rank, m.Size)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		if err = solver.RunJob(inp, bus, nil, nil); err != nil {
			log.Fatalf("worker %d: %v", m.Rank, err)
		}
	case m.Serve != "":
		blocks, conns, err := BuildDuctGrid(m.NI, m.NJ, m.NK, m.Size, inp.NumGhosts)
		if err != nil {
			log.Fatalf("grid: %v", err)
		}
		bus, err := comm.ServeWsBus(m.Serve, m.Size)
		if err != nil {
			log.Fatalf("serve: %v", err)
		}
		if err = solver.RunJob(inp, bus, blocks, conns); err != nil {
			log.Fatalf("coordinator: %v", err)
		}
	default:
		blocks, conns, err := BuildDuctGrid(m.NI, m.NJ, m.NK, m.NP, inp.NumGhosts)
		if err != nil {
			log.Fatalf("grid: %v", err)
		}
		cluster := comm.NewChanCluster(m.NP)
		var wg sync.WaitGroup
		for rank := 0; rank < m.NP; rank++ {
			wg.Add(1)
			go func(rank int) {
				defer wg.Done()
				var (
					bs []*block.Block
					cs []boundary.Connection
				)
				if rank == 0 {
					bs, cs = blocks, conns
				}
				if errR := solver.RunJob(inp, cluster.Endpoint(rank), bs, cs); errR != nil {
					log.Fatalf("rank %d: %v", rank, errR)
				}
			}(rank)
		}
		wg.Wait()
	}
}
