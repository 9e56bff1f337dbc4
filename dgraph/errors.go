// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/dgraph
//
// errors.go — sentinel errors for the distributed graph.
//
// Error policy:
//   - Callers branch with errors.Is; implementations attach context via %w.
//   - Index translation of a vertex that is neither owned nor a ghost is a
//     precondition violation (ErrUnknownVertex); the run must stop.

package dgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrBadSize indicates a non-positive global size or process count, or a
	// global size beyond the 32-bit vertex id space.
	ErrBadSize = errors.New("dgraph: invalid size")

	// ErrBadRank indicates a rank outside [0, procs).
	ErrBadRank = errors.New("dgraph: rank out of range")

	// ErrLayoutMismatch indicates a local size that disagrees with the block
	// decomposition for this rank.
	ErrLayoutMismatch = errors.New("dgraph: local size disagrees with block layout")

	// ErrEmptyShard indicates a rank that would own no vertex (global size
	// smaller than the process count).
	ErrEmptyShard = errors.New("dgraph: rank owns no vertices")

	// ErrVertexOutOfRange indicates a vertex id outside [0, global size).
	ErrVertexOutOfRange = errors.New("dgraph: vertex id out of range")

	// ErrUnknownVertex indicates an id that is neither owned nor a ghost.
	ErrUnknownVertex = errors.New("dgraph: vertex neither owned nor in halo")

	// ErrNotOwned indicates an operation that requires a locally owned vertex.
	ErrNotOwned = errors.New("dgraph: vertex not owned by this rank")

	// ErrSealed indicates a mutation attempted after Seal.
	ErrSealed = errors.New("dgraph: graph is sealed")

	// ErrNotSealed indicates a query that needs the ghost table before Seal.
	ErrNotSealed = errors.New("dgraph: graph is not sealed")

	// ErrFixtureSize indicates a fixture applied to a graph of the wrong size.
	ErrFixtureSize = errors.New("dgraph: fixture size does not match graph")
)

// Operation tags for wrapped errors.
const (
	opNew         = "New"
	opAddEdge     = "AddEdge"
	opLocalIndex  = "LocalIndex"
	opGlobalIndex = "GlobalIndex"
	opNeighbors   = "Neighbors"
	opOwner       = "Owner"
)

// graphErrorf wraps err with an operation tag.
func graphErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
