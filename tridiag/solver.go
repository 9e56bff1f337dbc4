// SPDX-License-Identifier: MIT

package tridiag

import (
	"fmt"
	"strings"
)

// Solver computes the eigen-decomposition of a symmetric tridiagonal matrix
// with diagonal alpha and off-diagonal beta.
//
// values are returned unsorted. Column k of vectors is the unit eigenvector
// belonging to values[k], expressed in the coordinates of the basis the
// tridiagonal matrix was built in.
type Solver interface {
	Solve(alpha, beta []float64) (values []float64, vectors *Matrix, err error)
}

// Solver names accepted by ByName.
const (
	NameQL     = "ql"
	NameJacobi = "jacobi"
	NameLAPACK = "lapack"
)

// Default returns the implicit-shift QL solver.
func Default() Solver { return QL{} }

// ByName maps a configuration string to a Solver. The empty string selects
// Default.
func ByName(name string) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameQL:
		return QL{}, nil
	case NameJacobi:
		return Jacobi{}, nil
	case NameLAPACK:
		return LAPACK{}, nil
	default:
		return nil, fmt.Errorf("ByName(%q): %w", name, ErrUnknownSolver)
	}
}
