// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/comm
//
// mesh.go — in-process transport: P ranks joined by buffered channels.
//
// Implementation:
//   - One channel per ordered pair (src, dst), depth defaultMailboxDepth.
//   - Send copies the payload before queueing; Send and Recv honour ctx.
//
// Complexity:
//   - NewMesh O(P²) channels. Send and Recv O(len(payload)).

package comm

import (
	"context"
	"fmt"
)

// defaultMailboxDepth bounds the number of undelivered frames per ordered
// pair of ranks before Send blocks.
const defaultMailboxDepth = 64

// frame is one message travelling between two ranks.
type frame struct {
	tag     Tag
	payload []float64
}

// Mesh is an in-process group of P ranks connected pairwise by buffered
// channels. It simulates a message-passing runtime for tests and for
// single-machine runs; ranks share nothing except the channels.
type Mesh struct {
	size  int
	links [][]chan frame // links[src][dst]
	eps   []*Endpoint
}

// NewMesh creates a fully connected in-process mesh of procs ranks.
// Returns ErrBadSize if procs <= 0.
// Complexity: O(procs²) channels.
func NewMesh(procs int) (*Mesh, error) {
	if procs <= 0 {
		return nil, fmt.Errorf("NewMesh: procs=%d: %w", procs, ErrBadSize)
	}

	m := &Mesh{size: procs, links: make([][]chan frame, procs)}
	for src := 0; src < procs; src++ {
		m.links[src] = make([]chan frame, procs)
		for dst := 0; dst < procs; dst++ {
			if src != dst {
				m.links[src][dst] = make(chan frame, defaultMailboxDepth)
			}
		}
	}
	m.eps = make([]*Endpoint, procs)
	for r := 0; r < procs; r++ {
		m.eps[r] = &Endpoint{mesh: m, rank: r}
	}

	return m, nil
}

// Size returns the number of ranks in the mesh.
func (m *Mesh) Size() int { return m.size }

// Endpoint returns the communicator of the given rank.
func (m *Mesh) Endpoint(rank int) (*Endpoint, error) {
	if rank < 0 || rank >= m.size {
		return nil, fmt.Errorf("Mesh.Endpoint(%d): %w", rank, ErrBadRank)
	}

	return m.eps[rank], nil
}

// Endpoints returns all communicators ordered by rank.
func (m *Mesh) Endpoints() []*Endpoint {
	out := make([]*Endpoint, len(m.eps))
	copy(out, m.eps)

	return out
}

// Endpoint is one rank's view of a Mesh. It implements Communicator.
type Endpoint struct {
	mesh *Mesh
	rank int
}

var _ Communicator = (*Endpoint)(nil)

// Rank implements PointToPoint.
func (e *Endpoint) Rank() int { return e.rank }

// Size implements PointToPoint.
func (e *Endpoint) Size() int { return e.mesh.size }

// Send implements PointToPoint. The payload is copied before it is queued.
func (e *Endpoint) Send(ctx context.Context, dst int, tag Tag, payload []float64) error {
	if err := checkPeer(e.rank, e.mesh.size, dst); err != nil {
		return commErrorf(opSend, e.rank, err)
	}

	buf := make([]float64, len(payload))
	copy(buf, payload)

	select {
	case e.mesh.links[e.rank][dst] <- frame{tag: tag, payload: buf}:
		return nil
	case <-ctx.Done():
		return commErrorf(opSend, e.rank, ctx.Err())
	}
}

// Recv implements PointToPoint.
func (e *Endpoint) Recv(ctx context.Context, src int, tag Tag) ([]float64, error) {
	if err := checkPeer(e.rank, e.mesh.size, src); err != nil {
		return nil, commErrorf(opRecv, e.rank, err)
	}

	select {
	case f := <-e.mesh.links[src][e.rank]:
		if f.tag != tag {
			return nil, commErrorf(opRecv, e.rank, MismatchError(src, tag, f.tag))
		}
		return f.payload, nil
	case <-ctx.Done():
		return nil, commErrorf(opRecv, e.rank, ctx.Err())
	}
}

// AllReduceSum implements Communicator.
func (e *Endpoint) AllReduceSum(ctx context.Context, x float64) (float64, error) {
	return AllReduceSum(ctx, e, x)
}
