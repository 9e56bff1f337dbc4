// SPDX-License-Identifier: MIT

// Package partition turns the eigenpairs of a Lanczos tridiagonal system into
// vertex colours.
//
// Bisect splits a graph in two by the sign of its Fiedler vector. KWay uses
// the signs of several low eigenvectors as bits of a label. Results are
// written into a Colouring, which the caller owns separately from the graph.
package partition
