// SPDX-License-Identifier: MIT

// Package tridiag_test checks the tridiagonal solvers against known spectra.
package tridiag_test

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/katalvlaran/lvlath-spectral/tridiag"
	"github.com/stretchr/testify/require"
)

const eps = 1e-8

var solvers = []struct {
	name string
	s    tridiag.Solver
}{
	{name: "QL", s: tridiag.QL{}},
	{name: "Jacobi", s: tridiag.Jacobi{}},
	{name: "LAPACK", s: tridiag.LAPACK{}},
}

// residual returns max_i |(T v)_i - λ v_i| for column k.
func residual(t *testing.T, alpha, beta, values []float64, vectors *tridiag.Matrix, k int) float64 {
	t.Helper()
	v, err := vectors.Column(k)
	require.NoError(t, err)
	worst := 0.0
	for i := range alpha {
		tv := alpha[i] * v[i]
		if i > 0 {
			tv += beta[i-1] * v[i-1]
		}
		if i+1 < len(alpha) {
			tv += beta[i] * v[i+1]
		}
		worst = math.Max(worst, math.Abs(tv-values[k]*v[i]))
	}

	return worst
}

func sorted(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)

	return out
}

// TestSolve_PathLaplacian checks each solver against the closed-form path spectrum.
func TestSolve_PathLaplacian(t *testing.T) {
	// L(P_5) is itself tridiagonal with eigenvalues 2 - 2cos(kπ/5).
	alpha := []float64{1, 2, 2, 2, 1}
	beta := []float64{-1, -1, -1, -1}
	want := make([]float64, 5)
	for k := range want {
		want[k] = 2 - 2*math.Cos(float64(k)*math.Pi/5)
	}

	for _, tc := range solvers {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			values, vectors, err := tc.s.Solve(alpha, beta)
			require.NoError(t, err)
			require.InDeltaSlice(t, want, sorted(values), eps)
			for k := range values {
				require.Less(t, residual(t, alpha, beta, values, vectors, k), 1e-9)
			}
		})
	}
}

// TestSolve_SolversAgree compares eigenvalues and eigenvectors across solvers.
func TestSolve_SolversAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 3, 8, 25} {
		alpha := make([]float64, n)
		beta := make([]float64, n-1)
		for i := range alpha {
			alpha[i] = rng.Float64()*4 - 2
		}
		for i := range beta {
			beta[i] = rng.Float64() + 0.1
		}

		var ref []float64
		for _, tc := range solvers {
			values, vectors, err := tc.s.Solve(alpha, beta)
			require.NoError(t, err, "%s n=%d", tc.name, n)
			require.Len(t, values, n)
			require.Equal(t, n, vectors.Rows())
			for k := range values {
				require.Less(t, residual(t, alpha, beta, values, vectors, k), 1e-9, "%s n=%d k=%d", tc.name, n, k)
				col, err := vectors.Column(k)
				require.NoError(t, err)
				norm := 0.0
				for _, x := range col {
					norm += x * x
				}
				require.InDelta(t, 1.0, norm, eps)
			}
			if ref == nil {
				ref = sorted(values)
				continue
			}
			require.InDeltaSlice(t, ref, sorted(values), eps, "%s n=%d", tc.name, n)
		}
	}
}

func TestSolve_DoesNotModifyInput(t *testing.T) {
	alpha := []float64{2, 2, 2}
	beta := []float64{1, 1}
	for _, tc := range solvers {
		_, _, err := tc.s.Solve(alpha, beta)
		require.NoError(t, err)
		require.Equal(t, []float64{2, 2, 2}, alpha, tc.name)
		require.Equal(t, []float64{1, 1}, beta, tc.name)
	}
}

func TestSolve_Errors(t *testing.T) {
	for _, tc := range solvers {
		_, _, err := tc.s.Solve(nil, nil)
		require.ErrorIs(t, err, tridiag.ErrEmpty, tc.name)
		_, _, err = tc.s.Solve([]float64{1, 2}, []float64{1, 2})
		require.ErrorIs(t, err, tridiag.ErrDimensionMismatch, tc.name)
	}
}

// TestJacobi_IterationCap reports ErrNoConvergence when sweeps run out.
func TestJacobi_IterationCap(t *testing.T) {
	_, _, err := tridiag.Jacobi{MaxIter: 1}.Solve([]float64{1, 2, 3}, []float64{1, 1})
	require.ErrorIs(t, err, tridiag.ErrNoConvergence)
}

func TestByName(t *testing.T) {
	for name, want := range map[string]tridiag.Solver{
		"":       tridiag.QL{},
		"ql":     tridiag.QL{},
		"Jacobi": tridiag.Jacobi{},
		"lapack": tridiag.LAPACK{},
	} {
		got, err := tridiag.ByName(name)
		require.NoError(t, err)
		require.IsType(t, want, got)
	}
	_, err := tridiag.ByName("arpack")
	require.ErrorIs(t, err, tridiag.ErrUnknownSolver)
	require.IsType(t, tridiag.QL{}, tridiag.Default())
}

func TestMatrix(t *testing.T) {
	m := tridiag.NewIdentity(3)
	v, err := m.At(1, 1)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)
	require.NoError(t, m.Set(0, 2, 5))
	col, err := m.Column(2)
	require.NoError(t, err)
	require.Equal(t, []float64{5, 0, 1}, col)

	c := m.Clone()
	require.NoError(t, c.Set(0, 2, 0))
	v, _ = m.At(0, 2)
	require.Equal(t, 5.0, v)

	_, err = m.At(3, 0)
	require.ErrorIs(t, err, tridiag.ErrIndexOutOfBounds)
	require.ErrorIs(t, m.Set(0, -1, 1), tridiag.ErrIndexOutOfBounds)
	_, err = m.Column(3)
	require.ErrorIs(t, err, tridiag.ErrIndexOutOfBounds)
	require.Equal(t, "[1, 0, 5]\n[0, 1, 0]\n[0, 0, 1]\n", m.String())
}
