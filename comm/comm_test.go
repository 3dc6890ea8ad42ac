package comm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/mbcfd/boundary"
	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
)

func TestCodecRoundTrip(t *testing.T) {
	buf := NewBuffer()
	buf.PackInt(-7)
	buf.PackFloat(3.14159)
	buf.PackVec3(geom.Vec3{1, 2, 3})
	buf.PackUnitVec3Mag(geom.NewUnitVec3Mag(geom.Vec3{0, 3, 4}))
	buf.PackPrimVars(fluid.PrimVars{1, 2, 3, 4, 5, 6, 7})
	buf.PackInt(5)
	buf.PackString("hello")

	rd := NewReader(buf.Bytes())
	i, err := rd.UnpackInt()
	assert.NoError(t, err)
	assert.Equal(t, -7, i)
	f, err := rd.UnpackFloat()
	assert.NoError(t, err)
	assert.Equal(t, 3.14159, f)
	v, err := rd.UnpackVec3()
	assert.NoError(t, err)
	assert.Equal(t, geom.Vec3{1, 2, 3}, v)
	u, err := rd.UnpackUnitVec3Mag()
	assert.NoError(t, err)
	assert.InDelta(t, 5., u.Mag, 1.e-14)
	q, err := rd.UnpackPrimVars()
	assert.NoError(t, err)
	assert.Equal(t, fluid.PrimVars{1, 2, 3, 4, 5, 6, 7}, q)
	n, err := rd.UnpackInt()
	assert.NoError(t, err)
	s, err := rd.UnpackString(n)
	assert.NoError(t, err)
	assert.Equal(t, "hello", s)
	assert.Equal(t, 0, rd.Remaining())
}

func TestCodecUnderrun(t *testing.T) {
	rd := NewReader([]byte{1, 2})
	_, err := rd.UnpackFloat()
	assert.Error(t, err)
}

func TestResidMaxPreservesLocator(t *testing.T) {
	a := Resid{Linf: 1.5, Blk: 0, I: 1, J: 2, K: 3, Eq: 4}
	b := Resid{Linf: 2.5, Blk: 7, I: 4, J: 5, K: 6, Eq: 1}
	m := a.Max(b)
	assert.Equal(t, 2.5, m.Linf)
	assert.Equal(t, 7, m.Blk)
	m = b.Max(a)
	assert.Equal(t, 7, m.Blk)

	var r Resid
	r.Update(0.5, 1, 0, 0, 0, 2)
	r.Update(0.25, 9, 9, 9, 9, 9)
	assert.Equal(t, 0.5, r.Linf)
	assert.Equal(t, 1, r.Blk)
}

func TestConnectionRecordRoundTrip(t *testing.T) {
	c := boundary.Connection{
		Rank:        [2]int{0, 1},
		Block:       [2]int{3, 4},
		LocalBlock:  [2]int{0, 0},
		Boundary:    [2]int{2, 1},
		D1Start:     [2]int{0, 0},
		D1End:       [2]int{4, 4},
		D2Start:     [2]int{0, 0},
		D2End:       [2]int{3, 3},
		ConstSurf:   [2]int{4, 0},
		Orientation: 5,
	}
	buf := NewBuffer()
	buf.PackConnection(c)
	// ten integer groups of sizes 2,2,2,2,2,2,2,2,2,1
	assert.Equal(t, 19*4, buf.Len())
	rd := NewReader(buf.Bytes())
	back, err := rd.UnpackConnection()
	assert.NoError(t, err)
	assert.Equal(t, c, back)
}

func runCluster(t *testing.T, size int, body func(bus Bus)) {
	cl := NewChanCluster(size)
	var wg sync.WaitGroup
	for rank := 0; rank < size; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			body(cl.Endpoint(rank))
		}(rank)
	}
	wg.Wait()
}

func TestChanBusSendRecv(t *testing.T) {
	runCluster(t, 2, func(bus Bus) {
		if bus.Rank() == 0 {
			assert.NoError(t, bus.Send(1, 42, []byte("ping")))
			data, err := bus.Recv(1, 43)
			assert.NoError(t, err)
			assert.Equal(t, "pong", string(data))
		} else {
			data, err := bus.Recv(0, 42)
			assert.NoError(t, err)
			assert.Equal(t, "ping", string(data))
			assert.NoError(t, bus.Send(0, 43, []byte("pong")))
		}
	})
}

func TestChanBusTagMatching(t *testing.T) {
	runCluster(t, 2, func(bus Bus) {
		if bus.Rank() == 0 {
			assert.NoError(t, bus.Send(1, 1, []byte("first")))
			assert.NoError(t, bus.Send(1, 2, []byte("second")))
		} else {
			// receive out of order; the first message is stashed
			data, err := bus.Recv(0, 2)
			assert.NoError(t, err)
			assert.Equal(t, "second", string(data))
			data, err = bus.Recv(0, 1)
			assert.NoError(t, err)
			assert.Equal(t, "first", string(data))
		}
	})
}

func TestBroadcastAndScatter(t *testing.T) {
	runCluster(t, 3, func(bus Bus) {
		var payload []byte
		if bus.Rank() == 0 {
			payload = []byte("deck.yaml")
		}
		data, err := bus.Broadcast(0, payload)
		assert.NoError(t, err)
		assert.Equal(t, "deck.yaml", string(data))

		var vals []int
		if bus.Rank() == 0 {
			vals = []int{10, 20, 30}
		}
		v, err := bus.ScatterInt(0, vals)
		assert.NoError(t, err)
		assert.Equal(t, 10*(bus.Rank()+1), v)
	})
}

// The reduced Linf must be the maximum over all workers and carry one of
// the contributing locators; the L2 reduction sums.
func TestAllReduce(t *testing.T) {
	runCluster(t, 4, func(bus Bus) {
		sum, err := bus.AllReduceSum([]float64{float64(bus.Rank()), 1.})
		assert.NoError(t, err)
		assert.InDelta(t, 6., sum[0], 1.e-14)
		assert.InDelta(t, 4., sum[1], 1.e-14)

		mine := Resid{Linf: float64(bus.Rank()), Blk: bus.Rank(), I: bus.Rank()}
		red, err := bus.AllReduceMaxResid(mine)
		assert.NoError(t, err)
		assert.Equal(t, 3., red.Linf)
		assert.Equal(t, 3, red.Blk)
		assert.Equal(t, 3, red.I)
	})
}

func TestBarrier(t *testing.T) {
	runCluster(t, 3, func(bus Bus) {
		for n := 0; n < 5; n++ {
			assert.NoError(t, bus.Barrier())
		}
	})
}
