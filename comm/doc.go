// SPDX-License-Identifier: MIT

// Package comm defines the communication capability used by the distributed
// spectral partitioner and ships an in-process implementation of it.
//
// What & Why:
//
//	Every rank of an SPMD run talks to its peers through a Communicator value
//	that is passed in explicitly. Nothing in this module reaches for a
//	process-wide singleton, so a test can stand up P ranks inside a single
//	process (Mesh, Run) and production code can plug in a network transport
//	(see comm/tcp) without touching the algorithms.
//
// Primitives:
//
//   - Send / Recv: point-to-point, tagged, FIFO per ordered pair of ranks.
//     "Non-blocking send/receive + wait-for-all" is expressed by launching the
//     calls inside an errgroup.Group and calling Wait.
//   - AllReduceSum: group-wide float64 sum, built on Send/Recv.
//
// SPMD discipline:
//
//	All ranks must issue collectives in the same order. A receiver that finds
//	a frame carrying a different tag from the one it asked for reports
//	ErrCollectiveMismatch instead of consuming mismatched data.
//
// Cancellation:
//
//	There are no timeouts or retries. Blocking calls honour ctx so that Run can
//	unwind the surviving ranks once one of them has failed.
package comm
