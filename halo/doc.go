// SPDX-License-Identifier: MIT

// Package halo resolves the foreign neighbour values a rank needs before it
// can apply the graph Laplacian to its owned slice of a vector.
//
// Build derives a Plan from a sealed shard: for every peer rank, the ghost ids
// to receive from it and the owned ids to send to it. Lists are ascending, so
// the two ends of a pair agree on payload order without negotiating.
//
// An Exchanger runs one exchange per call. The returned vector is laid out in
// the shard's extended index space: owned slots first, then ghost slots in
// the order reported by dgraph.Graph.Ghosts.
package halo
