// Package reactor owns all server socket I/O. A single dispatch goroutine
// consumes an event channel fed by the datagram reader and the per-connection
// stream readers, so every command executes serially and the forum store needs
// no locking. Responses to stream frames go through a per-connection outbound
// queue drained by a writer goroutine, preserving FIFO order per connection.
package reactor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/mvoronin/forumwire/internal/logging"
)

const (
	// DatagramBufferSize bounds a single datagram read.
	DatagramBufferSize = 8192
	// MaxFrameSize bounds a single stream read; one read is one frame.
	MaxFrameSize = 1 << 20
)

// Handler processes one decoded-or-not payload and returns the encoded
// response. A nil datagram response means no reply is due.
type Handler interface {
	HandleDatagram(ctx context.Context, raw []byte) []byte
	HandleStream(ctx context.Context, raw []byte) []byte
}

type eventKind int

const (
	evDatagram eventKind = iota
	evStream
	evClose
)

type event struct {
	kind eventKind
	data []byte
	addr *net.UDPAddr
	conn *streamConn
}

// streamConn pairs a TCP connection with its outbound queue. The queue is
// unbounded so that enqueueing never blocks the dispatch goroutine, no matter
// how slowly the peer reads. The writer goroutine drains it in FIFO order and
// closes the connection once closed is signalled.
type streamConn struct {
	conn   net.Conn
	closed chan struct{}

	mu    sync.Mutex
	queue [][]byte
	wake  chan struct{}
}

func newStreamConn(conn net.Conn) *streamConn {
	return &streamConn{
		conn:   conn,
		closed: make(chan struct{}),
		wake:   make(chan struct{}, 1),
	}
}

// enqueue appends a frame and nudges the writer. Never blocks.
func (sc *streamConn) enqueue(frame []byte) {
	sc.mu.Lock()
	sc.queue = append(sc.queue, frame)
	sc.mu.Unlock()

	select {
	case sc.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest queued frame, if any.
func (sc *streamConn) next() ([]byte, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if len(sc.queue) == 0 {
		return nil, false
	}
	frame := sc.queue[0]
	sc.queue = sc.queue[1:]
	return frame, true
}

// Reactor multiplexes the datagram control channel and the stream bulk
// channel over one dispatch goroutine.
type Reactor struct {
	handler Handler
	logger  logging.Logger

	udp      *net.UDPConn
	listener net.Listener
	events   chan event
	wg       sync.WaitGroup
}

// New binds the datagram and stream sockets. Pass ":0" addresses to let the
// kernel pick ports (used in tests).
func New(udpAddr, tcpAddr string, handler Handler, logger logging.Logger) (*Reactor, error) {
	addr, err := net.ResolveUDPAddr("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve udp %s: %w", udpAddr, err)
	}
	udp, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", udpAddr, err)
	}
	listener, err := net.Listen("tcp", tcpAddr)
	if err != nil {
		udp.Close()
		return nil, fmt.Errorf("listen tcp %s: %w", tcpAddr, err)
	}

	return &Reactor{
		handler:  handler,
		logger:   logger.With("module", "reactor"),
		udp:      udp,
		listener: listener,
		events:   make(chan event),
	}, nil
}

// UDPAddr returns the bound datagram address.
func (r *Reactor) UDPAddr() net.Addr { return r.udp.LocalAddr() }

// TCPAddr returns the bound stream address.
func (r *Reactor) TCPAddr() net.Addr { return r.listener.Addr() }

// Run serves until ctx is cancelled, then closes the sockets and drains every
// live connection.
func (r *Reactor) Run(ctx context.Context) error {
	r.logger.Info(ctx, "Server listening", "udp", r.UDPAddr().String(), "tcp", r.TCPAddr().String())

	r.wg.Add(2)
	go r.readDatagrams(ctx)
	go r.acceptStreams(ctx)

	r.dispatch(ctx)

	r.udp.Close()
	r.listener.Close()
	r.wg.Wait()
	return nil
}

// dispatch is the sole serialization point: every datagram and stream frame is
// handled here, one at a time.
func (r *Reactor) dispatch(ctx context.Context) {
	conns := make(map[*streamConn]struct{})

	defer func() {
		for sc := range conns {
			close(sc.closed)
			sc.conn.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.events:
			switch ev.kind {
			case evDatagram:
				if resp := r.handler.HandleDatagram(ctx, ev.data); resp != nil {
					if _, err := r.udp.WriteToUDP(resp, ev.addr); err != nil {
						r.logger.Warn(ctx, "Datagram write failed", "addr", ev.addr.String(), "error", err.Error())
					}
				}

			case evStream:
				conns[ev.conn] = struct{}{}
				ev.conn.enqueue(r.handler.HandleStream(ctx, ev.data))

			case evClose:
				delete(conns, ev.conn)
				close(ev.conn.closed)
			}
		}
	}
}

func (r *Reactor) readDatagrams(ctx context.Context) {
	defer r.wg.Done()

	buf := make([]byte, DatagramBufferSize)
	for {
		n, addr, err := r.udp.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				r.logger.Error(ctx, "Datagram read failed", "error", err.Error())
			}
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case r.events <- event{kind: evDatagram, data: data, addr: addr}:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reactor) acceptStreams(ctx context.Context) {
	defer r.wg.Done()

	for {
		conn, err := r.listener.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				r.logger.Error(ctx, "Accept failed", "error", err.Error())
			}
			return
		}

		sc := newStreamConn(conn)
		r.wg.Add(2)
		go r.readStream(ctx, sc)
		go r.writeStream(ctx, sc)
	}
}

// readStream posts one event per bounded read. A zero read or any error means
// the peer is gone; evClose tells the dispatcher to release the connection.
func (r *Reactor) readStream(ctx context.Context, sc *streamConn) {
	defer r.wg.Done()

	for {
		buf := make([]byte, MaxFrameSize)
		n, err := sc.conn.Read(buf)
		if err != nil || n == 0 {
			select {
			case r.events <- event{kind: evClose, conn: sc}:
			case <-ctx.Done():
			}
			return
		}

		select {
		case r.events <- event{kind: evStream, data: buf[:n], conn: sc}:
		case <-ctx.Done():
			return
		}
	}
}

// writeStream drains the outbound queue in FIFO order. After a write error the
// remaining frames are discarded so the queue still empties out.
func (r *Reactor) writeStream(ctx context.Context, sc *streamConn) {
	defer r.wg.Done()
	defer sc.conn.Close()

	failed := false
	for {
		select {
		case <-sc.wake:
			r.drainQueue(ctx, sc, &failed)
		case <-sc.closed:
			r.drainQueue(ctx, sc, &failed)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reactor) drainQueue(ctx context.Context, sc *streamConn, failed *bool) {
	for {
		frame, ok := sc.next()
		if !ok {
			return
		}
		if *failed {
			continue
		}
		if _, err := sc.conn.Write(frame); err != nil {
			r.logger.Warn(ctx, "Stream write failed", "addr", sc.conn.RemoteAddr().String(), "error", err.Error())
			*failed = true
		}
	}
}
