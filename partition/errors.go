// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/partition
//
// errors.go — sentinel errors for eigenvector recovery and colouring.
//
// Contract:
//   - Callers match with errors.Is; messages carry the "partition:" prefix.
//   - Wrapping sites add the operation name and offending sizes.

package partition

import "errors"

var (
	// ErrTooFewEigenpairs indicates a tridiagonal system too small for the
	// requested number of non-trivial eigenvectors.
	ErrTooFewEigenpairs = errors.New("partition: not enough eigenpairs")

	// ErrBadCount indicates an eigenvector count outside [1, MaxKWayBits].
	ErrBadCount = errors.New("partition: eigenvector count out of range")

	// ErrDimensionMismatch indicates a basis, eigenvector matrix or vector
	// whose shape disagrees with the others.
	ErrDimensionMismatch = errors.New("partition: dimension mismatch")

	// ErrNotOwned indicates a colour read or write for a vertex another rank
	// owns.
	ErrNotOwned = errors.New("partition: vertex not owned by this rank")

	// ErrBadColour indicates a negative colour.
	ErrBadColour = errors.New("partition: colour must be >= 0")
)
