// SPDX-License-Identifier: MIT

package tridiag

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty indicates a system with no diagonal entries.
	ErrEmpty = errors.New("tridiag: empty system")

	// ErrDimensionMismatch indicates len(beta) != len(alpha)-1.
	ErrDimensionMismatch = errors.New("tridiag: off-diagonal length must be one less than diagonal")

	// ErrNoConvergence indicates a solver that exhausted its iteration cap.
	ErrNoConvergence = errors.New("tridiag: eigen solver did not converge")

	// ErrIndexOutOfBounds indicates a row or column outside the matrix.
	ErrIndexOutOfBounds = errors.New("tridiag: index out of bounds")

	// ErrUnknownSolver indicates a solver name ByName does not recognise.
	ErrUnknownSolver = errors.New("tridiag: unknown solver")
)

const (
	opQL     = "QL"
	opJacobi = "Jacobi"
	opLAPACK = "LAPACK"
)

// solverErrorf wraps err with a solver tag.
func solverErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// checkSystem validates the shape of a symmetric tridiagonal system.
func checkSystem(alpha, beta []float64) error {
	if len(alpha) == 0 {
		return ErrEmpty
	}
	if len(beta) != len(alpha)-1 {
		return fmt.Errorf("alpha=%d beta=%d: %w", len(alpha), len(beta), ErrDimensionMismatch)
	}

	return nil
}
