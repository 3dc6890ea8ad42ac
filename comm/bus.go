package comm

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Reserved tags used by the collective operations; point-to-point traffic
// must use non-negative tags.
const (
	tagBroadcast = -(100 + iota)
	tagScatter
	tagReduce
	tagBarrier
)

/*
Bus is the message-passing substrate the solver assumes: point-to-point
sends of opaque byte buffers, a synchronous pairwise exchange, and the
collectives used by decomposition and the residual reduction. Reductions are
all-reduce; every worker sees identical reduced values.
*/
type Bus interface {
	Rank() int
	Size() int
	Send(dst, tag int, payload []byte) error
	Recv(src, tag int) ([]byte, error)
	// SendRecv pairs a send and a receive with one peer under one tag; both
	// sides must call it for the exchange to complete.
	SendRecv(peer, tag int, payload []byte) ([]byte, error)
	Broadcast(root int, payload []byte) ([]byte, error)
	// ScatterInt hands each rank one integer from the root's vector.
	ScatterInt(root int, vals []int) (int, error)
	AllReduceSum(vals []float64) ([]float64, error)
	AllReduceMaxResid(r Resid) (Resid, error)
	Barrier() error
}

type envelope struct {
	tag  int
	data []byte
}

// pointToPoint is what a transport must provide; the collectives are built
// on top of it once, in collectives.
type pointToPoint interface {
	Rank() int
	Size() int
	Send(dst, tag int, payload []byte) error
	Recv(src, tag int) ([]byte, error)
}

type collectives struct {
	pointToPoint
}

func (b *collectives) SendRecv(peer, tag int, payload []byte) (data []byte, err error) {
	if err = b.Send(peer, tag, payload); err != nil {
		return
	}
	data, err = b.Recv(peer, tag)
	return
}

func (b *collectives) Broadcast(root int, payload []byte) (data []byte, err error) {
	if b.Rank() == root {
		for dst := 0; dst < b.Size(); dst++ {
			if dst == root {
				continue
			}
			if err = b.Send(dst, tagBroadcast, payload); err != nil {
				return
			}
		}
		data = payload
		return
	}
	data, err = b.Recv(root, tagBroadcast)
	return
}

func (b *collectives) ScatterInt(root int, vals []int) (v int, err error) {
	if b.Rank() == root {
		if len(vals) != b.Size() {
			err = fmt.Errorf("scatter of %d values over %d ranks", len(vals), b.Size())
			return
		}
		for dst := 0; dst < b.Size(); dst++ {
			if dst == root {
				continue
			}
			buf := NewBuffer()
			buf.PackInt(vals[dst])
			if err = b.Send(dst, tagScatter, buf.Bytes()); err != nil {
				return
			}
		}
		v = vals[root]
		return
	}
	var data []byte
	if data, err = b.Recv(root, tagScatter); err != nil {
		return
	}
	v, err = NewReader(data).UnpackInt()
	return
}

// allReduce gathers every payload at rank 0, folds with combine, and
// broadcasts the result back so all ranks observe the same value.
func (b *collectives) allReduce(payload []byte, combine func(acc, in []byte) ([]byte, error)) (out []byte, err error) {
	const root = 0
	if b.Rank() == root {
		acc := payload
		for src := 1; src < b.Size(); src++ {
			var in []byte
			if in, err = b.Recv(src, tagReduce); err != nil {
				return
			}
			if acc, err = combine(acc, in); err != nil {
				return
			}
		}
		return b.Broadcast(root, acc)
	}
	if err = b.Send(root, tagReduce, payload); err != nil {
		return
	}
	return b.Broadcast(root, nil)
}

func (b *collectives) AllReduceSum(vals []float64) (out []float64, err error) {
	buf := NewBuffer()
	buf.PackFloats(vals)
	var data []byte
	data, err = b.allReduce(buf.Bytes(), func(acc, in []byte) ([]byte, error) {
		a, errA := NewReader(acc).UnpackFloats(len(vals))
		if errA != nil {
			return nil, errA
		}
		c, errC := NewReader(in).UnpackFloats(len(vals))
		if errC != nil {
			return nil, errC
		}
		floats.Add(a, c)
		o := NewBuffer()
		o.PackFloats(a)
		return o.Bytes(), nil
	})
	if err != nil {
		return
	}
	out, err = NewReader(data).UnpackFloats(len(vals))
	return
}

func (b *collectives) AllReduceMaxResid(r Resid) (out Resid, err error) {
	buf := NewBuffer()
	buf.PackResid(r)
	var data []byte
	data, err = b.allReduce(buf.Bytes(), func(acc, in []byte) ([]byte, error) {
		a, errA := NewReader(acc).UnpackResid()
		if errA != nil {
			return nil, errA
		}
		c, errC := NewReader(in).UnpackResid()
		if errC != nil {
			return nil, errC
		}
		o := NewBuffer()
		o.PackResid(a.Max(c))
		return o.Bytes(), nil
	})
	if err != nil {
		return
	}
	out, err = NewReader(data).UnpackResid()
	return
}

func (b *collectives) Barrier() (err error) {
	const root = 0
	if b.Rank() == root {
		for src := 1; src < b.Size(); src++ {
			if _, err = b.Recv(src, tagBarrier); err != nil {
				return
			}
		}
		_, err = b.Broadcast(root, nil)
		return
	}
	if err = b.Send(root, tagBarrier, nil); err != nil {
		return
	}
	_, err = b.Broadcast(root, nil)
	return
}

// ChanCluster is the in-process realization of the Bus: one endpoint per
// worker goroutine, mail routed through buffered channels, one channel per
// ordered endpoint pair.
type ChanCluster struct {
	size  int
	pipes [][]chan envelope // pipes[src][dst]
}

func NewChanCluster(size int) (cl *ChanCluster) {
	cl = &ChanCluster{
		size:  size,
		pipes: make([][]chan envelope, size),
	}
	for src := 0; src < size; src++ {
		cl.pipes[src] = make([]chan envelope, size)
		for dst := 0; dst < size; dst++ {
			cl.pipes[src][dst] = make(chan envelope, 64)
		}
	}
	return
}

// Endpoint returns the Bus bound to one rank.
func (cl *ChanCluster) Endpoint(rank int) Bus {
	ep := &chanEndpoint{
		cluster: cl,
		rank:    rank,
		pending: make([][]envelope, cl.size),
	}
	return &chanBus{collectives{ep}}
}

type chanBus struct {
	collectives
}

type chanEndpoint struct {
	cluster *ChanCluster
	rank    int
	pending [][]envelope // out-of-order arrivals per source
}

func (e *chanEndpoint) Rank() int { return e.rank }
func (e *chanEndpoint) Size() int { return e.cluster.size }

func (e *chanEndpoint) Send(dst, tag int, payload []byte) (err error) {
	if dst < 0 || dst >= e.cluster.size {
		err = fmt.Errorf("send to rank %d of %d", dst, e.cluster.size)
		return
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	e.cluster.pipes[e.rank][dst] <- envelope{tag: tag, data: cp}
	return
}

func (e *chanEndpoint) Recv(src, tag int) (data []byte, err error) {
	if src < 0 || src >= e.cluster.size {
		err = fmt.Errorf("recv from rank %d of %d", src, e.cluster.size)
		return
	}
	// drain any stashed out-of-order arrival first
	for n, env := range e.pending[src] {
		if env.tag == tag {
			e.pending[src] = append(e.pending[src][:n], e.pending[src][n+1:]...)
			data = env.data
			return
		}
	}
	for {
		env := <-e.cluster.pipes[src][e.rank]
		if env.tag == tag {
			data = env.data
			return
		}
		e.pending[src] = append(e.pending[src], env)
	}
}
