// SPDX-License-Identifier: MIT

// Package tcp implements comm.Communicator over a full mesh of TCP
// connections, one per pair of ranks, so that the SPMD partitioner can run as
// P separate OS processes.
//
// Connection setup: rank i dials every rank j < i and accepts a connection
// from every rank j > i. The dialing side announces its rank with a 4-byte
// big-endian handshake. Once the mesh is up, one reader goroutine per peer
// drains frames into a FIFO mailbox that Recv consumes.
package tcp

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/katalvlaran/lvlath-spectral/comm"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMailboxDepth = 64
	defaultDialBackoff  = 50 * time.Millisecond
	handshakeLen        = 4
)

// Listener accepts inbound peer connections for one rank.
type Listener struct {
	ln net.Listener
}

// Listen opens a TCP listener on addr (e.g. "127.0.0.1:0").
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp.Listen(%s): %w", addr, err)
	}

	return &Listener{ln: ln}, nil
}

// Addr returns the bound address, suitable for the peers list of Dial.
func (l *Listener) Addr() string { return l.ln.Addr().String() }

// Close stops accepting connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Option configures Dial.
type Option func(*options)

type options struct {
	compress     bool
	mailboxDepth int
	backoff      time.Duration
}

// WithCompression zstd-compresses outgoing frame bodies.
func WithCompression() Option {
	return func(o *options) { o.compress = true }
}

// WithMailboxDepth sets the number of undelivered frames buffered per peer.
// Panics if n < 1.
func WithMailboxDepth(n int) Option {
	if n < 1 {
		panic("tcp: WithMailboxDepth(n<1)")
	}
	return func(o *options) { o.mailboxDepth = n }
}

// WithDialBackoff sets the pause between attempts to reach a peer that is not
// listening yet. Panics if d <= 0.
func WithDialBackoff(d time.Duration) Option {
	if d <= 0 {
		panic("tcp: WithDialBackoff(d<=0)")
	}
	return func(o *options) { o.backoff = d }
}

// peer is the connection state towards one remote rank.
type peer struct {
	conn net.Conn
	wmu  sync.Mutex
	w    *bufio.Writer
	box  chan inbound
	err  atomic.Pointer[readErr] // set once the reader stops
}

type readErr struct{ err error }

type inbound struct {
	tag     comm.Tag
	payload []float64
}

// Comm is a TCP-backed comm.Communicator.
type Comm struct {
	rank, size int
	ln         *Listener
	peers      []*peer
	codec      *codec
	closed     atomic.Bool
	done       chan struct{}
	readers    sync.WaitGroup
}

var _ comm.Communicator = (*Comm)(nil)

// Dial connects rank to every other rank listed in addrs (indexed by rank,
// len(addrs) is the group size). ln must be this rank's listener, bound to
// addrs[rank]. Dial blocks until the whole mesh is connected or ctx ends.
func Dial(ctx context.Context, rank int, ln *Listener, addrs []string, opts ...Option) (*Comm, error) {
	size := len(addrs)
	if size == 0 || rank < 0 || rank >= size {
		return nil, fmt.Errorf("tcp.Dial: rank=%d peers=%d: %w", rank, size, ErrPeers)
	}
	if ln == nil && rank < size-1 {
		return nil, fmt.Errorf("tcp.Dial: rank=%d needs a listener: %w", rank, ErrPeers)
	}

	o := options{mailboxDepth: defaultMailboxDepth, backoff: defaultDialBackoff}
	for _, opt := range opts {
		opt(&o)
	}
	cd, err := newCodec(o.compress)
	if err != nil {
		return nil, fmt.Errorf("tcp.Dial: %w", err)
	}

	c := &Comm{rank: rank, size: size, ln: ln, peers: make([]*peer, size), codec: cd, done: make(chan struct{})}
	conns := make([]net.Conn, size)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for j := 0; j < rank; j++ {
		j := j
		g.Go(func() error {
			conn, err := dialPeer(gctx, addrs[j], rank, o.backoff)
			if err != nil {
				return fmt.Errorf("dial rank %d: %w", j, err)
			}
			mu.Lock()
			conns[j] = conn
			mu.Unlock()
			return nil
		})
	}
	if want := size - 1 - rank; want > 0 {
		g.Go(func() error {
			return acceptPeers(gctx, ln, rank, size, want, conns, &mu)
		})
	}
	if err := g.Wait(); err != nil {
		for _, conn := range conns {
			if conn != nil {
				_ = conn.Close()
			}
		}
		cd.close()
		return nil, fmt.Errorf("tcp.Dial(rank=%d): %w", rank, err)
	}

	for j, conn := range conns {
		if j == rank {
			continue
		}
		p := &peer{conn: conn, w: bufio.NewWriter(conn), box: make(chan inbound, o.mailboxDepth)}
		c.peers[j] = p
		c.readers.Add(1)
		go c.readLoop(p)
	}

	return c, nil
}

// dialPeer connects to addr, retrying until the peer listens or ctx ends,
// then announces our rank.
func dialPeer(ctx context.Context, addr string, rank int, backoff time.Duration) (net.Conn, error) {
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			var hs [handshakeLen]byte
			binary.BigEndian.PutUint32(hs[:], uint32(rank))
			if _, err = conn.Write(hs[:]); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ctx.Err(), err)
		case <-time.After(backoff):
		}
	}
}

// acceptPeers accepts want connections from ranks above ours.
func acceptPeers(ctx context.Context, ln *Listener, rank, size, want int, conns []net.Conn, mu *sync.Mutex) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for got := 0; got < want; got++ {
		conn, err := ln.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var hs [handshakeLen]byte
		if _, err := io.ReadFull(conn, hs[:]); err != nil {
			_ = conn.Close()
			return fmt.Errorf("handshake: %w", err)
		}
		from := int(binary.BigEndian.Uint32(hs[:]))
		mu.Lock()
		dup := from > rank && from < size && conns[from] != nil
		if from <= rank || from >= size || dup {
			mu.Unlock()
			_ = conn.Close()
			return fmt.Errorf("peer announced rank %d: %w", from, ErrHandshake)
		}
		conns[from] = conn
		mu.Unlock()
	}

	return nil
}

func (c *Comm) readLoop(p *peer) {
	defer c.readers.Done()
	defer close(p.box)
	r := bufio.NewReader(p.conn)
	for {
		tag, payload, err := c.codec.readFrame(r)
		if err != nil {
			if c.closed.Load() || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				err = comm.ErrClosed
			}
			p.err.Store(&readErr{err: err})
			return
		}
		select {
		case p.box <- inbound{tag: tag, payload: payload}:
		case <-c.done:
			p.err.Store(&readErr{err: comm.ErrClosed})
			return
		}
	}
}

// Rank implements comm.PointToPoint.
func (c *Comm) Rank() int { return c.rank }

// Size implements comm.PointToPoint.
func (c *Comm) Size() int { return c.size }

// Send implements comm.PointToPoint.
func (c *Comm) Send(ctx context.Context, dst int, tag comm.Tag, payload []float64) error {
	if err := comm.CheckPeer(c.rank, c.size, dst); err != nil {
		return fmt.Errorf("tcp.Send(rank=%d): %w", c.rank, err)
	}
	if c.closed.Load() {
		return fmt.Errorf("tcp.Send(rank=%d): %w", c.rank, comm.ErrClosed)
	}

	p := c.peers[dst]
	p.wmu.Lock()
	defer p.wmu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = p.conn.SetWriteDeadline(dl)
		defer func() { _ = p.conn.SetWriteDeadline(time.Time{}) }()
	}
	if err := c.codec.writeFrame(p.w, tag, payload); err != nil {
		return fmt.Errorf("tcp.Send(rank=%d → %d): %w", c.rank, dst, err)
	}
	if err := p.w.Flush(); err != nil {
		return fmt.Errorf("tcp.Send(rank=%d → %d): %w", c.rank, dst, err)
	}

	return nil
}

// Recv implements comm.PointToPoint.
func (c *Comm) Recv(ctx context.Context, src int, tag comm.Tag) ([]float64, error) {
	if err := comm.CheckPeer(c.rank, c.size, src); err != nil {
		return nil, fmt.Errorf("tcp.Recv(rank=%d): %w", c.rank, err)
	}

	p := c.peers[src]
	select {
	case in, ok := <-p.box:
		if !ok {
			err := comm.ErrClosed
			if re := p.err.Load(); re != nil {
				err = re.err
			}
			return nil, fmt.Errorf("tcp.Recv(rank=%d ← %d): %w", c.rank, src, err)
		}
		if in.tag != tag {
			return nil, fmt.Errorf("tcp.Recv(rank=%d): %w", c.rank, comm.MismatchError(src, tag, in.tag))
		}
		return in.payload, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("tcp.Recv(rank=%d ← %d): %w", c.rank, src, ctx.Err())
	}
}

// AllReduceSum implements comm.Communicator.
func (c *Comm) AllReduceSum(ctx context.Context, x float64) (float64, error) {
	return comm.AllReduceSum(ctx, c, x)
}

// Close shuts every connection and the listener down and waits for the
// reader goroutines. It is safe to call more than once.
func (c *Comm) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(c.done)
	var errs []error
	for _, p := range c.peers {
		if p == nil {
			continue
		}
		if err := p.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if c.ln != nil {
		if err := c.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	c.readers.Wait()
	c.codec.close()

	return errors.Join(errs...)
}
