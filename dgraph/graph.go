// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/dgraph
//
// graph.go — one rank's shard of a block-distributed undirected graph.
//
// Contract:
//   - A shard owns the adjacency rows of its Layout range; a cross-rank edge
//     is recorded by both endpoint owners.
//   - AddEdge is valid only before Seal; an edge with no owned endpoint is
//     a no-op. Seal orders ghosts by ascending
//     global id and assigns them slots after the owned ones.
//   - After Seal the shard is immutable and safe for concurrent readers.
//
// Errors:
//   - ErrLayoutMismatch, ErrEmptyShard on construction.
//   - ErrVertexOutOfRange, ErrSealed from AddEdge.
//   - ErrNotOwned from Degree and Neighbors.
//   - ErrNotSealed, ErrUnknownVertex from slot lookups.
//
// Complexity:
//   - AddEdge O(log d), Seal O(G log G) for G ghosts, LocalIndex O(1).

package dgraph

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Graph is one rank's shard of an undirected graph distributed by a block
// Layout. It owns the adjacency of its vertices; an edge between two ranks is
// stored by both of them.
//
// Index spaces:
//
//	owned vertex    global id g ∈ [start, start+size)  ↔  local slot g-start
//	ghost vertex    foreign neighbour of an owned vertex ↔ slot size+k, k in
//	                ascending ghost id order (assigned by Seal)
//
// Lifecycle: AddEdge while loading, then Seal. After Seal the graph is
// immutable and safe for concurrent readers.
type Graph struct {
	mu     sync.Mutex
	layout Layout
	rank   int
	start  int
	size   int

	adj       []*roaring.Bitmap // adj[local] = neighbour global ids
	ghostSet  *roaring.Bitmap   // foreign endpoints seen by AddEdge
	ghosts    []int             // ascending, filled by Seal
	ghostSlot map[int]int       // global id → extended slot, filled by Seal
	sealed    bool
}

// New initializes rank's shard of a graph with globalSize vertices spread
// over procs ranks. localSize must equal the block size the layout assigns to
// rank; every rank must own at least one vertex.
func New(rank, globalSize, localSize, procs int) (*Graph, error) {
	layout, err := NewLayout(globalSize, procs)
	if err != nil {
		return nil, graphErrorf(opNew, err)
	}
	g, err := NewFromLayout(layout, rank)
	if err != nil {
		return nil, err
	}
	if g.size != localSize {
		return nil, fmt.Errorf("%s: rank=%d local=%d layout=%d: %w", opNew, rank, localSize, g.size, ErrLayoutMismatch)
	}

	return g, nil
}

// NewFromLayout initializes rank's shard with the size the layout assigns.
func NewFromLayout(layout Layout, rank int) (*Graph, error) {
	start, count, err := layout.Range(rank)
	if err != nil {
		return nil, graphErrorf(opNew, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%s: rank=%d N=%d P=%d: %w", opNew, rank, layout.globalSize, layout.procs, ErrEmptyShard)
	}

	adj := make([]*roaring.Bitmap, count)
	for i := range adj {
		adj[i] = roaring.New()
	}

	return &Graph{
		layout:   layout,
		rank:     rank,
		start:    start,
		size:     count,
		adj:      adj,
		ghostSet: roaring.New(),
	}, nil
}

// Rank returns the rank owning this shard.
func (g *Graph) Rank() int { return g.rank }

// Procs returns the number of ranks.
func (g *Graph) Procs() int { return g.layout.procs }

// GlobalSize returns the total number of vertices.
func (g *Graph) GlobalSize() int { return g.layout.globalSize }

// LocalSize returns the number of owned vertices.
func (g *Graph) LocalSize() int { return g.size }

// Start returns the first owned global id.
func (g *Graph) Start() int { return g.start }

// Layout returns the replicated ownership map.
func (g *Graph) Layout() Layout { return g.layout }

// Owns reports whether id is owned by this rank.
func (g *Graph) Owns(id int) bool { return id >= g.start && id < g.start+g.size }

// Owner returns the rank owning id.
func (g *Graph) Owner(id int) (int, error) { return g.layout.Owner(id) }

// AddEdge registers the undirected edge {src, dst} on every endpoint owned by
// this rank and reports whether anything was stored. Duplicates are
// idempotent, self loops are ignored (they cancel in D − A), and an edge
// with no owned endpoint is a no-op so loaders may offer every edge to every
// rank.
func (g *Graph) AddEdge(src, dst int) (bool, error) {
	n := g.layout.globalSize
	if src < 0 || src >= n || dst < 0 || dst >= n {
		return false, fmt.Errorf("%s(%d,%d): %w", opAddEdge, src, dst, ErrVertexOutOfRange)
	}
	if src == dst {
		return false, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sealed {
		return false, fmt.Errorf("%s(%d,%d): %w", opAddEdge, src, dst, ErrSealed)
	}

	stored := false
	if g.Owns(src) {
		g.adj[src-g.start].Add(uint32(dst))
		if !g.Owns(dst) {
			g.ghostSet.Add(uint32(dst))
		}
		stored = true
	}
	if g.Owns(dst) {
		g.adj[dst-g.start].Add(uint32(src))
		if !g.Owns(src) {
			g.ghostSet.Add(uint32(src))
		}
		stored = true
	}

	return stored, nil
}

// Seal freezes the adjacency and assigns ghost slots. Calling it again is a
// no-op.
func (g *Graph) Seal() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sealed {
		return
	}

	for _, a := range g.adj {
		a.RunOptimize()
	}
	g.ghosts = make([]int, 0, g.ghostSet.GetCardinality())
	g.ghostSlot = make(map[int]int, g.ghostSet.GetCardinality())
	it := g.ghostSet.Iterator()
	for it.HasNext() {
		id := int(it.Next())
		g.ghostSlot[id] = g.size + len(g.ghosts)
		g.ghosts = append(g.ghosts, id)
	}
	g.sealed = true
}

// Sealed reports whether Seal has run.
func (g *Graph) Sealed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.sealed
}

// NumGhosts returns the number of foreign vertices adjacent to this shard.
// Valid after Seal.
func (g *Graph) NumGhosts() int { return len(g.ghosts) }

// Ghosts returns the ghost ids in slot order. Valid after Seal.
func (g *Graph) Ghosts() []int {
	out := make([]int, len(g.ghosts))
	copy(out, g.ghosts)

	return out
}

// ExtendedSize is the length of a halo-resolved vector: owned slots followed
// by ghost slots.
func (g *Graph) ExtendedSize() int { return g.size + len(g.ghosts) }

// GlobalIndex translates an extended local slot to its global id.
func (g *Graph) GlobalIndex(local int) (int, error) {
	if local >= 0 && local < g.size {
		return g.start + local, nil
	}
	if k := local - g.size; k >= 0 && k < len(g.ghosts) {
		return g.ghosts[k], nil
	}

	return 0, fmt.Errorf("%s(%d): %w", opGlobalIndex, local, ErrUnknownVertex)
}

// LocalIndex translates a global id to its extended local slot: owned ids map
// to [0, LocalSize()), ghosts to [LocalSize(), ExtendedSize()). Any other id
// is a precondition violation reported as ErrUnknownVertex.
func (g *Graph) LocalIndex(global int) (int, error) {
	if g.Owns(global) {
		return global - g.start, nil
	}
	if !g.sealed {
		return 0, fmt.Errorf("%s(%d): %w", opLocalIndex, global, ErrNotSealed)
	}
	if slot, ok := g.ghostSlot[global]; ok {
		return slot, nil
	}

	return 0, fmt.Errorf("%s(%d): %w", opLocalIndex, global, ErrUnknownVertex)
}

// Degree returns the number of distinct neighbours of an owned vertex.
func (g *Graph) Degree(v int) (int, error) {
	if !g.Owns(v) {
		return 0, fmt.Errorf("Degree(%d): %w", v, ErrNotOwned)
	}

	return int(g.adj[v-g.start].GetCardinality()), nil
}

// Neighbors returns the neighbour ids of an owned vertex in ascending order.
func (g *Graph) Neighbors(v int) ([]int, error) {
	if !g.Owns(v) {
		return nil, fmt.Errorf("%s(%d): %w", opNeighbors, v, ErrNotOwned)
	}
	a := g.adj[v-g.start]
	out := make([]int, 0, a.GetCardinality())
	it := a.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}

	return out, nil
}

// Each calls fn for every owned vertex in ascending id order with its
// neighbour set, stopping early when fn returns false. The bitmap is shared
// with the graph and must not be modified.
func (g *Graph) Each(fn func(v int, nbrs *roaring.Bitmap) bool) {
	for i, a := range g.adj {
		if !fn(g.start+i, a) {
			return
		}
	}
}

// LocalEdges returns the number of stored adjacency entries (an edge internal
// to the shard counts twice, a cut edge once).
func (g *Graph) LocalEdges() int {
	total := 0
	for _, a := range g.adj {
		total += int(a.GetCardinality())
	}

	return total
}
