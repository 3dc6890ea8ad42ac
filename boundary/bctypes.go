package boundary

import (
	"fmt"
	"strings"
)

type BCType uint

const (
	BC_SlipWall BCType = iota
	BC_ViscousWall
	BC_Interblock
	BC_SubsonicInflow
	BC_SubsonicOutflow
	BC_SupersonicInflow
	BC_SupersonicOutflow
	BC_Characteristic
)

var (
	BCNames = map[string]BCType{
		"slipwall":          BC_SlipWall,
		"viscouswall":       BC_ViscousWall,
		"interblock":        BC_Interblock,
		"subsonicinflow":    BC_SubsonicInflow,
		"subsonicoutflow":   BC_SubsonicOutflow,
		"supersonicinflow":  BC_SupersonicInflow,
		"supersonicoutflow": BC_SupersonicOutflow,
		"characteristic":    BC_Characteristic,
	}
	BCPrintNames = []string{
		"slipWall",
		"viscousWall",
		"interblock",
		"subsonicInflow",
		"subsonicOutflow",
		"supersonicInflow",
		"supersonicOutflow",
		"characteristic",
	}
)

func (bt BCType) Print() (txt string) {
	txt = BCPrintNames[bt]
	return
}

func NewBCType(label string) (bt BCType) {
	var (
		ok  bool
		err error
	)
	if bt, ok = BCNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("unable to use boundary condition named %s", label)
		panic(err)
	}
	return
}

// IsWall reports whether the tag is one of the wall conditions; the edge
// ghost pass distinguishes wall from non-wall neighbors.
func (bt BCType) IsWall() bool {
	return bt == BC_SlipWall || bt == BC_ViscousWall
}
