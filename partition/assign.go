// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/partition
//
// assign.go — colour assignment from Ritz vectors.
//
// Contract:
//   - Eigenvalues are ranked ascending with a stable sort: equal values keep
//     the order the solver reported them in. The ranking is deterministic for
//     a given solver output but depends on that order.
//   - The smallest eigenvalue belongs to the constant vector and is never
//     used for colouring.
//   - sign(x) = 1 if x >= 0 else 0. Bisect colours with sign of the Fiedler
//     vector; KWay sums sign(x_e)·2^(e−1) over eigenvectors e = 1..num.
//   - All assignment is local: no communication happens here.

package partition

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/lvlath-spectral/lanczos"
	"github.com/katalvlaran/lvlath-spectral/tridiag"
	"golang.org/x/exp/constraints"
)

// MaxKWayBits bounds the number of sign bits KWay combines: labels stay
// below 2^16, which keeps per-colour counts small enough to reduce densely.
const MaxKWayBits = 16

// Eigenpairs is the output of a tridiagonal solver.
type Eigenpairs struct {
	Values  []float64       // unsorted, as reported by the solver
	Vectors *tridiag.Matrix // column k belongs to Values[k]
}

// Solve runs solver on the tridiagonal system of res.
func Solve[F constraints.Float](solver tridiag.Solver, res *lanczos.Result[F]) (Eigenpairs, error) {
	values, vectors, err := solver.Solve(res.Alpha, res.Beta)
	if err != nil {
		return Eigenpairs{}, fmt.Errorf("Solve: %w", err)
	}

	return Eigenpairs{Values: values, Vectors: vectors}, nil
}

// Sorted returns the eigenvalues ascending.
func (e Eigenpairs) Sorted() []float64 {
	out := make([]float64, len(e.Values))
	for i, idx := range SortedOrder(e.Values) {
		out[i] = e.Values[idx]
	}

	return out
}

// SortedOrder returns the indices of values in ascending value order; equal
// values keep their original relative order.
func SortedOrder(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	return idx
}

// RitzVector lifts column col of the tridiagonal eigenvectors back to the
// graph: x[i] = Σ_j basis[j][i]·vectors[j][col].
func RitzVector[F constraints.Float](basis []lanczos.Vector[F], vectors *tridiag.Matrix, col int) ([]float64, error) {
	if len(basis) != vectors.Rows() {
		return nil, fmt.Errorf("RitzVector: basis=%d eigenvector rows=%d: %w", len(basis), vectors.Rows(), ErrDimensionMismatch)
	}
	q, err := vectors.Column(col)
	if err != nil {
		return nil, fmt.Errorf("RitzVector: %w", err)
	}
	if len(basis) == 0 {
		return nil, nil
	}
	x := make([]float64, len(basis[0]))
	for j, b := range basis {
		if len(b) != len(x) {
			return nil, fmt.Errorf("RitzVector: basis[%d] len=%d want %d: %w", j, len(b), len(x), ErrDimensionMismatch)
		}
		for i, bi := range b {
			x[i] += float64(bi) * q[j]
		}
	}

	return x, nil
}

// sign is the colour bit of x.
func sign(x float64) int {
	if x >= 0 {
		return 1
	}

	return 0
}

// AssignSign overwrites col with sign(x) for every owned vertex; x is the
// owned slice of a vector in ascending id order.
func AssignSign(col *Colouring, x []float64) error {
	if len(x) != col.Len() {
		return fmt.Errorf("AssignSign: len=%d owned=%d: %w", len(x), col.Len(), ErrDimensionMismatch)
	}
	col.Reset()
	for i, xi := range x {
		col.colours[i] = sign(xi)
	}

	return nil
}

// Bisect colours every owned vertex by the sign of the Fiedler vector: the
// Ritz vector of the second-smallest eigenvalue.
func Bisect[F constraints.Float](col *Colouring, res *lanczos.Result[F], eig Eigenpairs) error {
	order := SortedOrder(eig.Values)
	if len(order) < 2 {
		return fmt.Errorf("Bisect: %d eigenpairs: %w", len(order), ErrTooFewEigenpairs)
	}
	fiedler, err := RitzVector(res.Basis, eig.Vectors, order[1])
	if err != nil {
		return fmt.Errorf("Bisect: %w", err)
	}

	return AssignSign(col, fiedler)
}

// KWay colours every owned vertex with the num-bit label built from the
// signs of the Ritz vectors of the 2nd..(num+1)th smallest eigenvalues,
// yielding up to 2^num colours.
func KWay[F constraints.Float](col *Colouring, res *lanczos.Result[F], eig Eigenpairs, num int) error {
	if num < 1 || num > MaxKWayBits {
		return fmt.Errorf("KWay: num=%d outside [1, %d]: %w", num, MaxKWayBits, ErrBadCount)
	}
	order := SortedOrder(eig.Values)
	if num+1 > len(order) {
		return fmt.Errorf("KWay: num=%d needs %d eigenpairs, have %d: %w", num, num+1, len(order), ErrTooFewEigenpairs)
	}
	if col.Len() == 0 {
		return nil
	}

	labels := make([]int, col.Len())
	for e := 1; e <= num; e++ {
		x, err := RitzVector(res.Basis, eig.Vectors, order[e])
		if err != nil {
			return fmt.Errorf("KWay: eigenvector %d: %w", e, err)
		}
		if len(x) != len(labels) {
			return fmt.Errorf("KWay: len=%d owned=%d: %w", len(x), len(labels), ErrDimensionMismatch)
		}
		for i, xi := range x {
			labels[i] += sign(xi) << (e - 1)
		}
	}
	col.Reset()
	copy(col.colours, labels)

	return nil
}
