// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/halo
//
// plan.go — per-peer send/receive lists derived from a sealed shard.
//
// Contract:
//   - For every owned u with a foreign neighbour w owned by rank r:
//     w ∈ Recv(r) and u ∈ Send(r).
//   - Because adjacency is symmetric, Send(r) on this rank equals Recv(self)
//     on rank r, element for element, in ascending id order.
//   - A Plan never changes after Build.
//
// Complexity:
//   - Build is O(local adjacency entries) plus bitmap flattening.

package halo

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/katalvlaran/lvlath-spectral/dgraph"
)

// Plan is the immutable halo schedule of one rank.
type Plan struct {
	rank  int
	peers []int         // ascending ranks appearing in send or recv
	recv  map[int][]int // peer → ghost ids, ascending
	send  map[int][]int // peer → owned ids, ascending
}

// Build scans the owned adjacency of g once and groups cut edges by the
// owning rank of the foreign endpoint.
func Build(g *dgraph.Graph) (*Plan, error) {
	if !g.Sealed() {
		return nil, fmt.Errorf("%s: rank=%d: %w", opBuild, g.Rank(), ErrNotSealed)
	}

	recv := make(map[int]*roaring.Bitmap)
	send := make(map[int]*roaring.Bitmap)
	bucket := func(m map[int]*roaring.Bitmap, r int) *roaring.Bitmap {
		b, ok := m[r]
		if !ok {
			b = roaring.New()
			m[r] = b
		}

		return b
	}

	var walkErr error
	g.Each(func(u int, nbrs *roaring.Bitmap) bool {
		it := nbrs.Iterator()
		for it.HasNext() {
			w := int(it.Next())
			if g.Owns(w) {
				continue
			}
			r, err := g.Owner(w)
			if err != nil {
				walkErr = err
				return false
			}
			bucket(recv, r).Add(uint32(w))
			bucket(send, r).Add(uint32(u))
		}

		return true
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%s: %w", opBuild, walkErr)
	}

	p := &Plan{
		rank: g.Rank(),
		recv: flatten(recv),
		send: flatten(send),
	}
	for r := range recv {
		p.peers = append(p.peers, r)
	}
	sort.Ints(p.peers)

	return p, nil
}

// flatten converts bitmaps to ascending int slices.
func flatten(m map[int]*roaring.Bitmap) map[int][]int {
	out := make(map[int][]int, len(m))
	for r, b := range m {
		ids := make([]int, 0, b.GetCardinality())
		it := b.Iterator()
		for it.HasNext() {
			ids = append(ids, int(it.Next()))
		}
		out[r] = ids
	}

	return out
}

// Rank returns the rank the plan was built for.
func (p *Plan) Rank() int { return p.rank }

// Peers returns the ranks this rank exchanges with, ascending.
func (p *Plan) Peers() []int {
	out := make([]int, len(p.peers))
	copy(out, p.peers)

	return out
}

// RecvIDs returns the ghost ids expected from peer, ascending.
func (p *Plan) RecvIDs(peer int) []int {
	out := make([]int, len(p.recv[peer]))
	copy(out, p.recv[peer])

	return out
}

// SendIDs returns the owned ids shipped to peer, ascending.
func (p *Plan) SendIDs(peer int) []int {
	out := make([]int, len(p.send[peer]))
	copy(out, p.send[peer])

	return out
}

// Volume returns the total number of values sent per exchange.
func (p *Plan) Volume() int {
	total := 0
	for _, ids := range p.send {
		total += len(ids)
	}

	return total
}
