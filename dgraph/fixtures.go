// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/dgraph
//
// fixtures.go — deterministic topology constructors.
//
// Contract:
//   - A Constructor emits the full global edge list through g.AddEdge; each
//     rank keeps only the edges touching its own block, so the same
//     constructor run on every rank yields a consistent distributed graph.
//   - Vertex ids are 0..n-1; n must equal g.GlobalSize() (else ErrFixtureSize).
//   - Edge emission order is stable (ascending by construction index).
//   - Constructors never Seal; the caller decides when loading is done.
//
// Complexity:
//   - Path/Cycle O(n), Grid O(r·c), Complete O(n²), Barbell O(k²) edges.

package dgraph

import "fmt"

// File-local method tags and parameter minima.
const (
	methodPath     = "Path"
	methodCycle    = "Cycle"
	methodGrid     = "Grid"
	methodComplete = "Complete"
	methodBarbell  = "Barbell"

	minPathNodes    = 2
	minCycleNodes   = 3
	minGridSide     = 1
	minCompleteSize = 2
	minBarbellClump = 2
)

// Constructor populates a graph shard with a fixed topology.
type Constructor func(g *Graph) error

// Populate applies ctor to g.
func Populate(g *Graph, ctor Constructor) error { return ctor(g) }

// Shard builds, populates and seals rank's shard of an n-vertex graph split
// over procs ranks. It is the usual one-liner for tests and examples.
func Shard(rank, procs, n int, ctor Constructor) (*Graph, error) {
	layout, err := NewLayout(n, procs)
	if err != nil {
		return nil, err
	}
	g, err := NewFromLayout(layout, rank)
	if err != nil {
		return nil, err
	}
	if err = ctor(g); err != nil {
		return nil, err
	}
	g.Seal()

	return g, nil
}

// checkFixture validates the graph size against the fixture size.
func checkFixture(method string, g *Graph, n, min int) error {
	if n < min {
		return fmt.Errorf("%s: n=%d < min=%d: %w", method, n, min, ErrBadSize)
	}
	if g.GlobalSize() != n {
		return fmt.Errorf("%s: n=%d graph=%d: %w", method, n, g.GlobalSize(), ErrFixtureSize)
	}

	return nil
}

// addEdge forwards to g.AddEdge with method context.
func addEdge(method string, g *Graph, u, v int) error {
	if _, err := g.AddEdge(u, v); err != nil {
		return fmt.Errorf("%s: AddEdge(%d,%d): %w", method, u, v, err)
	}

	return nil
}

// Path returns a Constructor for the path P_n: edges (i-1, i) for i=1..n-1.
func Path(n int) Constructor {
	return func(g *Graph) error {
		if err := checkFixture(methodPath, g, n, minPathNodes); err != nil {
			return err
		}
		for i := 1; i < n; i++ {
			if err := addEdge(methodPath, g, i-1, i); err != nil {
				return err
			}
		}

		return nil
	}
}

// Cycle returns a Constructor for the cycle C_n: edges (i, (i+1) mod n).
func Cycle(n int) Constructor {
	return func(g *Graph) error {
		if err := checkFixture(methodCycle, g, n, minCycleNodes); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := addEdge(methodCycle, g, i, (i+1)%n); err != nil {
				return err
			}
		}

		return nil
	}
}

// Grid returns a Constructor for a rows×cols 4-neighbour lattice; vertex
// (r, c) has id r*cols+c.
func Grid(rows, cols int) Constructor {
	return func(g *Graph) error {
		if rows < minGridSide || cols < minGridSide {
			return fmt.Errorf("%s: %dx%d: %w", methodGrid, rows, cols, ErrBadSize)
		}
		if err := checkFixture(methodGrid, g, rows*cols, minPathNodes); err != nil {
			return err
		}
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				id := r*cols + c
				if c+1 < cols {
					if err := addEdge(methodGrid, g, id, id+1); err != nil {
						return err
					}
				}
				if r+1 < rows {
					if err := addEdge(methodGrid, g, id, id+cols); err != nil {
						return err
					}
				}
			}
		}

		return nil
	}
}

// Complete returns a Constructor for the complete graph K_n.
func Complete(n int) Constructor {
	return func(g *Graph) error {
		if err := checkFixture(methodComplete, g, n, minCompleteSize); err != nil {
			return err
		}

		return clique(methodComplete, g, 0, n)
	}
}

// Barbell returns a Constructor for two K_k cliques {0..k-1} and {k..2k-1}
// joined by the single bridge (k-1, k). Its Fiedler vector separates the
// two cliques.
func Barbell(k int) Constructor {
	return func(g *Graph) error {
		if k < minBarbellClump {
			return fmt.Errorf("%s: k=%d < min=%d: %w", methodBarbell, k, minBarbellClump, ErrBadSize)
		}
		if err := checkFixture(methodBarbell, g, 2*k, 2*minBarbellClump); err != nil {
			return err
		}
		if err := clique(methodBarbell, g, 0, k); err != nil {
			return err
		}
		if err := clique(methodBarbell, g, k, 2*k); err != nil {
			return err
		}

		return addEdge(methodBarbell, g, k-1, k)
	}
}

// clique connects every pair in [lo, hi).
func clique(method string, g *Graph, lo, hi int) error {
	for u := lo; u < hi; u++ {
		for v := u + 1; v < hi; v++ {
			if err := addEdge(method, g, u, v); err != nil {
				return err
			}
		}
	}

	return nil
}
