// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/tridiag
//
// jacobi.go — classical Jacobi rotations on the expanded tridiagonal matrix.
//
// Each step picks the largest off-diagonal |A[p,q]| in fixed i→j scan order
// and zeroes it with a plane rotation, accumulating the rotations into Q.
// Rotations fill in the band, so the full n×n matrix is kept.
//
// Determinism:
//   - Fixed pivot scan and update order give bit-identical results per input.
//
// Complexity:
//   - O(n²) per rotation for the pivot scan, O(n) for the update.

package tridiag

import (
	"fmt"
	"math"
)

const (
	defaultJacobiTol        = 1e-12
	defaultJacobiSweepScale = 50 // rotations cap = scale·n²
)

// Jacobi is the rotation-based solver. Tol is the convergence threshold on
// the largest off-diagonal entry relative to max(1, ‖A‖_F); MaxIter caps the
// number of rotations. Zero values select the defaults.
type Jacobi struct {
	Tol     float64
	MaxIter int
}

// Solve implements Solver.
func (s Jacobi) Solve(alpha, beta []float64) ([]float64, *Matrix, error) {
	if err := checkSystem(alpha, beta); err != nil {
		return nil, nil, solverErrorf(opJacobi, err)
	}

	n := len(alpha)
	a := NewMatrix(n)
	for i := 0; i < n; i++ {
		a.data[i*n+i] = alpha[i]
		if i+1 < n {
			a.data[i*n+i+1] = beta[i]
			a.data[(i+1)*n+i] = beta[i]
		}
	}
	q := NewIdentity(n)

	tol := s.Tol
	if tol <= 0 {
		tol = defaultJacobiTol
	}
	tol *= math.Max(1, frobenius(a))
	maxIter := s.MaxIter
	if maxIter <= 0 {
		maxIter = defaultJacobiSweepScale * n * n
	}

	var (
		p, r          int
		maxOff        float64
		app, aqq, apq float64
		theta, t      float64
		c, sn         float64
	)
	converged := false
	for iter := 0; iter < maxIter; iter++ {
		p, r, maxOff = pivot(a)
		if maxOff < tol {
			converged = true
			break
		}

		app = a.data[p*n+p]
		aqq = a.data[r*n+r]
		apq = a.data[p*n+r]
		theta = (aqq - app) / (2 * apq)
		t = math.Copysign(1.0/(math.Abs(theta)+math.Hypot(theta, 1)), theta)
		c = 1.0 / math.Sqrt(t*t+1)
		sn = t * c

		for i := 0; i < n; i++ {
			if i == p || i == r {
				continue
			}
			aip := a.data[i*n+p]
			aiq := a.data[i*n+r]
			nip := c*aip - sn*aiq
			niq := sn*aip + c*aiq
			a.data[i*n+p], a.data[p*n+i] = nip, nip
			a.data[i*n+r], a.data[r*n+i] = niq, niq
		}
		a.data[p*n+p] = c*c*app - 2*c*sn*apq + sn*sn*aqq
		a.data[r*n+r] = sn*sn*app + 2*c*sn*apq + c*c*aqq
		a.data[p*n+r], a.data[r*n+p] = 0, 0

		for i := 0; i < n; i++ {
			qip := q.data[i*n+p]
			qiq := q.data[i*n+r]
			q.data[i*n+p] = c*qip - sn*qiq
			q.data[i*n+r] = sn*qip + c*qiq
		}
	}
	if !converged {
		if _, _, maxOff = pivot(a); maxOff >= tol {
			return nil, nil, fmt.Errorf("%s: off-diagonal %g after %d rotations: %w", opJacobi, maxOff, maxIter, ErrNoConvergence)
		}
	}

	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = a.data[i*n+i]
	}

	return values, q, nil
}

// pivot returns the strictly upper entry with the largest magnitude.
func pivot(a *Matrix) (p, q int, maxOff float64) {
	n := a.n
	for i := 0; i < n; i++ {
		base := i * n
		for j := i + 1; j < n; j++ {
			if off := math.Abs(a.data[base+j]); off > maxOff {
				maxOff, p, q = off, i, j
			}
		}
	}

	return p, q, maxOff
}

func frobenius(a *Matrix) float64 {
	var sum float64
	for _, v := range a.data {
		sum += v * v
	}

	return math.Sqrt(sum)
}
