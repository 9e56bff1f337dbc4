// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/lanczos
//
// vector.go — distributed vector arithmetic.
//
// A Vector is one rank's owned slice of a global vector. Every function that
// returns a global quantity (Dot, Norm, GramSchmidt) is collective: all ranks
// must call it in the same order.

package lanczos

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/lvlath-spectral/comm"
	"golang.org/x/exp/constraints"
)

// Vector is the owned slice of a distributed vector.
type Vector[F constraints.Float] []F

// Clone returns a copy of v.
func (v Vector[F]) Clone() Vector[F] {
	out := make(Vector[F], len(v))
	copy(out, v)

	return out
}

// Scale multiplies v by s in place.
func (v Vector[F]) Scale(s F) {
	for i := range v {
		v[i] *= s
	}
}

// AXPY computes v += a·x in place. Lengths must match.
func (v Vector[F]) AXPY(a F, x Vector[F]) {
	for i := range v {
		v[i] += a * x[i]
	}
}

// Dot returns the global inner product of u and v: local partial products
// summed across the group by AllReduceSum. Partial sums are accumulated in
// float64.
func Dot[F constraints.Float](ctx context.Context, c comm.Communicator, u, v Vector[F]) (F, error) {
	if len(u) != len(v) {
		return 0, fmt.Errorf("%s: len(u)=%d len(v)=%d: %w", opDot, len(u), len(v), ErrDimensionMismatch)
	}
	var partial float64
	for i := range u {
		partial += float64(u[i]) * float64(v[i])
	}
	sum, err := c.AllReduceSum(ctx, partial)
	if err != nil {
		return 0, lanczosErrorf(opDot, err)
	}

	return F(sum), nil
}

// Norm returns the global Euclidean norm of v.
func Norm[F constraints.Float](ctx context.Context, c comm.Communicator, v Vector[F]) (F, error) {
	d, err := Dot(ctx, c, v, v)
	if err != nil {
		return 0, err
	}

	return F(math.Sqrt(float64(d))), nil
}

// GramSchmidt orthogonalizes v in place against basis[0..k-1], one basis
// vector at a time with the coefficient taken against the partially reduced
// v (one reduction per basis vector), and renormalizes it. It returns the norm before
// renormalization so callers can detect a vector that collapsed into the
// span of the basis; v is left unscaled when that norm is zero.
func GramSchmidt[F constraints.Float](ctx context.Context, c comm.Communicator, basis []Vector[F], k int, v Vector[F]) (F, error) {
	if k > len(basis) {
		return 0, fmt.Errorf("%s: k=%d basis=%d: %w", opGramSchmidt, k, len(basis), ErrDimensionMismatch)
	}
	for i := 0; i < k; i++ {
		coef, err := Dot(ctx, c, basis[i], v)
		if err != nil {
			return 0, lanczosErrorf(opGramSchmidt, err)
		}
		v.AXPY(-coef, basis[i])
	}
	norm, err := Norm(ctx, c, v)
	if err != nil {
		return 0, lanczosErrorf(opGramSchmidt, err)
	}
	if norm != 0 {
		v.Scale(1 / norm)
	}

	return norm, nil
}
