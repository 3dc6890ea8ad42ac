package comm

import (
	"encoding/binary"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

/*
The websocket transport realizes the Bus across processes. Workers dial the
coordinator; every frame carries a (src, dst, tag) header ahead of the
opaque payload and the coordinator relays frames whose destination is
another worker. The coordinator itself participates as rank 0.
*/

const wsHeaderLen = 12

func encodeFrame(src, dst, tag int, payload []byte) []byte {
	frame := make([]byte, wsHeaderLen+len(payload))
	binary.LittleEndian.PutUint32(frame[0:], uint32(int32(src)))
	binary.LittleEndian.PutUint32(frame[4:], uint32(int32(dst)))
	binary.LittleEndian.PutUint32(frame[8:], uint32(int32(tag)))
	copy(frame[wsHeaderLen:], payload)
	return frame
}

func decodeFrame(frame []byte) (src, dst, tag int, payload []byte, err error) {
	if len(frame) < wsHeaderLen {
		err = fmt.Errorf("websocket frame of %d bytes below header size", len(frame))
		return
	}
	src = int(int32(binary.LittleEndian.Uint32(frame[0:])))
	dst = int(int32(binary.LittleEndian.Uint32(frame[4:])))
	tag = int(int32(binary.LittleEndian.Uint32(frame[8:])))
	payload = frame[wsHeaderLen:]
	return
}

type wsDelivery struct {
	src int
	env envelope
}

type wsEndpoint struct {
	rank, size int
	inbox      chan wsDelivery
	pending    [][]envelope
	sendFrame  func(dst, tag int, payload []byte) error
}

func (e *wsEndpoint) Rank() int { return e.rank }
func (e *wsEndpoint) Size() int { return e.size }

func (e *wsEndpoint) Send(dst, tag int, payload []byte) (err error) {
	if dst < 0 || dst >= e.size {
		err = fmt.Errorf("send to rank %d of %d", dst, e.size)
		return
	}
	return e.sendFrame(dst, tag, payload)
}

func (e *wsEndpoint) Recv(src, tag int) (data []byte, err error) {
	for n, env := range e.pending[src] {
		if env.tag == tag {
			e.pending[src] = append(e.pending[src][:n], e.pending[src][n+1:]...)
			data = env.data
			return
		}
	}
	for d := range e.inbox {
		if d.src == src && d.env.tag == tag {
			data = d.env.data
			return
		}
		e.pending[d.src] = append(e.pending[d.src], d.env)
	}
	err = fmt.Errorf("bus closed while waiting on rank %d tag %d", src, tag)
	return
}

type wsBus struct {
	collectives
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 20,
	WriteBufferSize: 1 << 20,
}

/*
ServeWsBus runs the coordinator side: it listens on addr, waits for the
size-1 workers to dial in and announce their ranks, then serves as rank 0
while relaying worker-to-worker frames.
*/
func ServeWsBus(addr string, size int) (bus Bus, err error) {
	var (
		mu    sync.Mutex
		conns = make([]*wsConn, size)
		ready = make(chan int, size)
	)
	ep := &wsEndpoint{
		rank:    0,
		size:    size,
		inbox:   make(chan wsDelivery, 1024),
		pending: make([][]envelope, size),
	}
	deliver := func(src, dst, tag int, payload []byte) {
		data := make([]byte, len(payload))
		copy(data, payload)
		if dst == 0 {
			ep.inbox <- wsDelivery{src: src, env: envelope{tag: tag, data: data}}
			return
		}
		mu.Lock()
		peer := conns[dst]
		mu.Unlock()
		if peer == nil {
			log.Errorf("relay to unconnected rank %d", dst)
			return
		}
		if errW := peer.write(encodeFrame(src, dst, tag, data)); errW != nil {
			log.Errorf("relay to rank %d: %v", dst, errW)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/bus", func(w http.ResponseWriter, r *http.Request) {
		conn, errU := wsUpgrader.Upgrade(w, r, nil)
		if errU != nil {
			log.Errorf("upgrade: %v", errU)
			return
		}
		// first frame announces the worker's rank
		_, hello, errR := conn.ReadMessage()
		if errR != nil {
			log.Errorf("hello: %v", errR)
			return
		}
		rank, _, _, _, errH := decodeFrame(hello)
		if errH != nil || rank <= 0 || rank >= size {
			log.Errorf("bad hello from %s", r.RemoteAddr)
			conn.Close()
			return
		}
		wc := &wsConn{conn: conn}
		mu.Lock()
		conns[rank] = wc
		mu.Unlock()
		ready <- rank
		for {
			_, frame, errM := conn.ReadMessage()
			if errM != nil {
				return
			}
			src, dst, tag, payload, errD := decodeFrame(frame)
			if errD != nil {
				log.Errorf("frame from rank %d: %v", rank, errD)
				continue
			}
			deliver(src, dst, tag, payload)
		}
	})
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if errS := server.ListenAndServe(); errS != nil && errS != http.ErrServerClosed {
			log.Fatalf("bus listener: %v", errS)
		}
	}()
	for n := 0; n < size-1; n++ {
		rank := <-ready
		log.Infof("rank %d connected", rank)
	}
	ep.sendFrame = func(dst, tag int, payload []byte) error {
		mu.Lock()
		peer := conns[dst]
		mu.Unlock()
		if peer == nil {
			return fmt.Errorf("rank %d not connected", dst)
		}
		return peer.write(encodeFrame(0, dst, tag, payload))
	}
	bus = &wsBus{collectives{ep}}
	return
}

// DialWsBus connects a worker of the given rank to the coordinator at url
// (ws://host:port/bus).
func DialWsBus(url string, rank, size int) (bus Bus, err error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return
	}
	wc := &wsConn{conn: conn}
	ep := &wsEndpoint{
		rank:    rank,
		size:    size,
		inbox:   make(chan wsDelivery, 1024),
		pending: make([][]envelope, size),
	}
	ep.sendFrame = func(dst, tag int, payload []byte) error {
		// everything routes through the coordinator
		return wc.write(encodeFrame(rank, dst, tag, payload))
	}
	if err = wc.write(encodeFrame(rank, 0, 0, nil)); err != nil {
		return
	}
	go func() {
		for {
			_, frame, errM := conn.ReadMessage()
			if errM != nil {
				close(ep.inbox)
				return
			}
			src, _, tag, payload, errD := decodeFrame(frame)
			if errD != nil {
				log.Errorf("frame: %v", errD)
				continue
			}
			data := make([]byte, len(payload))
			copy(data, payload)
			ep.inbox <- wsDelivery{src: src, env: envelope{tag: tag, data: data}}
		}
	}()
	bus = &wsBus{collectives{ep}}
	return
}
