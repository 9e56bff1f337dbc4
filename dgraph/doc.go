// SPDX-License-Identifier: MIT

// Package dgraph holds one rank's shard of a graph distributed over a fixed
// set of processes.
//
// Vertex ids are split into contiguous blocks (Layout): with N vertices and P
// ranks each rank owns floor(N/P) ids and the first N mod P ranks own one
// more. The rule needs no communication, so every rank derives the same
// ownership map from (N, P).
//
// A Graph stores, for each owned vertex, its neighbour set as a roaring
// bitmap. Foreign neighbours become ghosts: after Seal they receive slots
// after the owned ones, which is the index space used by halo-resolved
// vectors.
//
// The constructors in fixtures.go (Path, Cycle, Grid, Complete, Barbell)
// emit a global edge list; run them on every rank to obtain a consistent
// distributed graph.
package dgraph
