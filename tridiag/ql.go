// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/tridiag
//
// ql.go — implicit-shift QL iteration on a symmetric tridiagonal matrix.
//
// Contract:
//   - Input is never modified; d and e are working copies.
//   - The accumulator z starts as the identity, so on return its columns are
//     the eigenvectors in the original basis.
//
// Complexity:
//   - O(n²) for eigenvalues, O(n³) with eigenvector accumulation.

package tridiag

import (
	"fmt"
	"math"
)

// defaultQLMaxIter is the per-eigenvalue iteration cap.
const defaultQLMaxIter = 60

// QL is the implicit-shift QL eigen solver. MaxIter caps the number of
// sweeps spent isolating each eigenvalue; zero selects the default.
type QL struct {
	MaxIter int
}

// Solve implements Solver.
func (s QL) Solve(alpha, beta []float64) ([]float64, *Matrix, error) {
	if err := checkSystem(alpha, beta); err != nil {
		return nil, nil, solverErrorf(opQL, err)
	}
	maxIter := s.MaxIter
	if maxIter <= 0 {
		maxIter = defaultQLMaxIter
	}

	n := len(alpha)
	d := make([]float64, n)
	copy(d, alpha)
	e := make([]float64, n) // e[i] couples i and i+1; e[n-1] is scratch
	copy(e, beta)
	z := NewIdentity(n)

	for l := 0; l < n; l++ {
		for iter := 0; ; iter++ {
			// Look for a negligible off-diagonal element splitting the matrix.
			m := l
			for ; m < n-1; m++ {
				dd := math.Abs(d[m]) + math.Abs(d[m+1])
				if math.Abs(e[m])+dd == dd {
					break
				}
			}
			if m == l {
				break
			}
			if iter == maxIter {
				return nil, nil, fmt.Errorf("%s: eigenvalue %d after %d sweeps: %w", opQL, l, maxIter, ErrNoConvergence)
			}

			g := (d[l+1] - d[l]) / (2 * e[l])
			r := math.Hypot(g, 1)
			g = d[m] - d[l] + e[l]/(g+math.Copysign(r, g))
			sn, cs, p := 1.0, 1.0, 0.0
			i := m - 1
			for ; i >= l; i-- {
				f := sn * e[i]
				b := cs * e[i]
				r = math.Hypot(f, g)
				e[i+1] = r
				if r == 0 {
					// Underflow: deflate and restart this l.
					d[i+1] -= p
					e[m] = 0
					break
				}
				sn = f / r
				cs = g / r
				g = d[i+1] - p
				r = (d[i]-g)*sn + 2*cs*b
				p = sn * r
				d[i+1] = g + p
				g = cs*r - b
				rotate(z, i, sn, cs)
			}
			if r == 0 && i >= l {
				continue
			}
			d[l] -= p
			e[l] = g
			e[m] = 0
		}
	}

	return d, z, nil
}

// rotate applies the Givens rotation (sn, cs) to columns i and i+1 of z.
func rotate(z *Matrix, i int, sn, cs float64) {
	n := z.n
	for k := 0; k < n; k++ {
		row := k * n
		f := z.data[row+i+1]
		z.data[row+i+1] = sn*z.data[row+i] + cs*f
		z.data[row+i] = cs*z.data[row+i] - sn*f
	}
}
