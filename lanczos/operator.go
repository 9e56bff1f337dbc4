// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/lanczos
//
// operator.go — matrix-free unnormalized Laplacian L = D − A.
//
// Contract:
//   - Apply reads a halo-resolved vector (owned slots, then ghost slots) and
//     returns the owned slice of L·v: r[i] = d_i·v[i] − Σ_{j∈N(i)} v[j].
//   - No matrix is ever materialized; neighbour slots are resolved once.
//
// Complexity:
//   - NewOperator O(local adjacency), Apply O(local adjacency).

package lanczos

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/katalvlaran/lvlath-spectral/dgraph"
	"golang.org/x/exp/constraints"
)

// Operator applies the graph Laplacian of one shard.
type Operator[F constraints.Float] struct {
	localSize    int
	extendedSize int
	degree       []F
	offsets      []int // CSR row pointers into slots
	slots        []int // neighbour slots in extended index space
}

// NewOperator resolves every neighbour of every owned vertex of a sealed
// shard to its extended slot.
func NewOperator[F constraints.Float](g *dgraph.Graph) (*Operator[F], error) {
	op := &Operator[F]{
		localSize:    g.LocalSize(),
		extendedSize: g.ExtendedSize(),
		degree:       make([]F, 0, g.LocalSize()),
		offsets:      make([]int, 1, g.LocalSize()+1),
		slots:        make([]int, 0, g.LocalEdges()),
	}

	var walkErr error
	g.Each(func(_ int, nbrs *roaring.Bitmap) bool {
		it := nbrs.Iterator()
		for it.HasNext() {
			slot, err := g.LocalIndex(int(it.Next()))
			if err != nil {
				walkErr = err
				return false
			}
			op.slots = append(op.slots, slot)
		}
		op.degree = append(op.degree, F(nbrs.GetCardinality()))
		op.offsets = append(op.offsets, len(op.slots))

		return true
	})
	if walkErr != nil {
		return nil, fmt.Errorf("NewOperator: %w", walkErr)
	}

	return op, nil
}

// Apply returns the owned slice of L·v for a halo-resolved v.
func (op *Operator[F]) Apply(v []F) (Vector[F], error) {
	if len(v) != op.extendedSize {
		return nil, fmt.Errorf("%s: len=%d extended=%d: %w", opApply, len(v), op.extendedSize, ErrDimensionMismatch)
	}
	out := make(Vector[F], op.localSize)
	for i := 0; i < op.localSize; i++ {
		acc := op.degree[i] * v[i]
		for _, s := range op.slots[op.offsets[i]:op.offsets[i+1]] {
			acc -= v[s]
		}
		out[i] = acc
	}

	return out, nil
}
