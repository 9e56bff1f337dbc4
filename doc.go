// SPDX-License-Identifier: MIT

// Package spectral partitions graphs that are too large for one process by
// the signs of low eigenvectors of their Laplacian.
//
// The work is split over P cooperating ranks running the same program
// (SPMD). Each rank holds one contiguous block of vertex ids and the
// adjacency of those vertices:
//
//	dgraph/     block layout, graph shard, ghost (halo) bookkeeping, fixtures
//	comm/       Communicator capability, in-process mesh, sum reduction
//	comm/tcp/   Communicator over TCP with optional zstd frames
//	halo/       per-peer send/receive plan and the exchange itself
//	lanczos/    matrix-free Laplacian, distributed Lanczos iteration
//	tridiag/    eigen solvers for the small tridiagonal system (QL, Jacobi, LAPACK)
//	partition/  Ritz vectors, bisection and k-way colouring
//	config/     YAML + environment configuration
//	metrics/    counters (no-op, in-memory, Prometheus)
//	cmd/spectral/  command-line runner, in-process or over TCP
//
// A Partitioner ties them together:
//
//	p := spectral.New(spectral.WithSeed(7))
//	err := comm.Run(ctx, 4, func(ctx context.Context, c comm.Communicator) error {
//		g, err := dgraph.Shard(c.Rank(), 4, n, dgraph.Barbell(n/2))
//		if err != nil {
//			return err
//		}
//		colours, err := p.Bisect(ctx, g, c)
//		...
//	})
//
// Every Partitioner method is collective: all ranks must call it, in the
// same order, with shards of the same graph.
package spectral
