// SPDX-License-Identifier: MIT

// Package lanczos reduces the unnormalized Laplacian of a distributed graph
// to a small symmetric tridiagonal matrix whose eigenpairs approximate the
// extreme eigenpairs of the Laplacian.
//
// Vectors are distributed by the graph's block layout; each rank holds only
// its owned slice. The matrix-vector product resolves foreign neighbour
// values through a halo exchange, and inner products are combined with a
// group-wide sum. Numeric code is generic over float32 and float64.
//
// Plain Lanczos loses orthogonality as Ritz values converge. With
// reorthogonalization enabled, each new basis vector is checked against the
// start vector and, once the drift passes the tolerance, Gram–Schmidt is run
// against every stored basis vector.
package lanczos
