// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/lanczos
//
// errors.go — sentinel errors for the Lanczos engine.

package lanczos

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch indicates vectors of different local length, or a
	// vector whose length disagrees with the shard.
	ErrDimensionMismatch = errors.New("lanczos: vector length mismatch")

	// ErrKrylovExhausted indicates beta ≈ 0 before the planned iteration
	// count under PolicyFail.
	ErrKrylovExhausted = errors.New("lanczos: Krylov subspace exhausted")

	// ErrNonFinite indicates a NaN or Inf in alpha or beta.
	ErrNonFinite = errors.New("lanczos: non-finite coefficient")

	// ErrGroupMismatch indicates a shard whose rank or process count differs
	// from the communicator's.
	ErrGroupMismatch = errors.New("lanczos: graph shard and communicator disagree on rank or size")

	// ErrBadTarget indicates a non-positive eigenvector target.
	ErrBadTarget = errors.New("lanczos: eigenvector target must be >= 1")
)

const (
	opDot         = "Dot"
	opApply       = "Apply"
	opGramSchmidt = "GramSchmidt"
	opRun         = "Run"
)

// lanczosErrorf wraps err with an operation tag.
func lanczosErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
