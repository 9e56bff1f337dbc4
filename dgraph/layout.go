// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/dgraph
//
// layout.go — contiguous block decomposition of vertex ids over ranks.
//
// Contract:
//   - base = floor(N/P); the first N mod P ranks own base+1 vertices, the rest
//     own base.
//   - Rank r owns the half-open id range [start(r), start(r)+count(r)).
//   - Derived from (N, P) alone: every rank computes the same ownership map
//     without talking to anyone.
//
// Complexity:
//   - Range and Owner are O(1) time and space.

package dgraph

import (
	"fmt"
	"math"
)

// Layout is the replicated global-id → owner-rank map.
type Layout struct {
	globalSize int
	procs      int
	base       int // floor(N/P)
	extra      int // N mod P: ranks [0, extra) own base+1 vertices
}

// NewLayout returns the block layout of globalSize vertices over procs ranks.
// Returns ErrBadSize if either argument is non-positive or globalSize does
// not fit a 32-bit vertex id.
func NewLayout(globalSize, procs int) (Layout, error) {
	if globalSize <= 0 || procs <= 0 || int64(globalSize) > math.MaxUint32 {
		return Layout{}, fmt.Errorf("NewLayout(N=%d, P=%d): %w", globalSize, procs, ErrBadSize)
	}

	return Layout{
		globalSize: globalSize,
		procs:      procs,
		base:       globalSize / procs,
		extra:      globalSize % procs,
	}, nil
}

// GlobalSize returns N.
func (l Layout) GlobalSize() int { return l.globalSize }

// Procs returns P.
func (l Layout) Procs() int { return l.procs }

// Range returns the first owned id and the number of ids owned by rank.
// Returns ErrBadRank for a rank outside [0, P).
func (l Layout) Range(rank int) (start, count int, err error) {
	if rank < 0 || rank >= l.procs {
		return 0, 0, fmt.Errorf("Range(%d): %w", rank, ErrBadRank)
	}
	if rank < l.extra {
		return rank * (l.base + 1), l.base + 1, nil
	}

	return l.extra*(l.base+1) + (rank-l.extra)*l.base, l.base, nil
}

// Owner returns the rank owning vertex id.
// Returns ErrVertexOutOfRange for ids outside [0, N).
func (l Layout) Owner(id int) (int, error) {
	if id < 0 || id >= l.globalSize {
		return 0, fmt.Errorf("%s(%d): %w", opOwner, id, ErrVertexOutOfRange)
	}
	// ids below boundary live in the larger blocks.
	boundary := l.extra * (l.base + 1)
	if id < boundary {
		return id / (l.base + 1), nil
	}

	return l.extra + (id-boundary)/l.base, nil
}
