// SPDX-License-Identifier: MIT

package tridiag

import (
	"fmt"

	"gonum.org/v1/gonum/lapack"
	"gonum.org/v1/gonum/lapack/gonum"
)

// LAPACK delegates to gonum's pure-Go Dsteqr (implicit QL/QR with
// eigenvector accumulation from the identity).
type LAPACK struct{}

// Solve implements Solver.
func (LAPACK) Solve(alpha, beta []float64) ([]float64, *Matrix, error) {
	if err := checkSystem(alpha, beta); err != nil {
		return nil, nil, solverErrorf(opLAPACK, err)
	}

	n := len(alpha)
	d := make([]float64, n)
	copy(d, alpha)
	e := make([]float64, max(1, n-1))
	copy(e, beta)
	z := NewMatrix(n)
	work := make([]float64, max(1, 2*n-2))

	var impl gonum.Implementation
	if ok := impl.Dsteqr(lapack.EVTridiag, n, d, e, z.data, n, work); !ok {
		return nil, nil, fmt.Errorf("%s: Dsteqr n=%d: %w", opLAPACK, n, ErrNoConvergence)
	}

	return d, z, nil
}
