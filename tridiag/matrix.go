// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/tridiag
//
// matrix.go — square row-major eigenvector accumulator.

package tridiag

import (
	"fmt"
	"strings"
)

// Matrix is a dense n×n row-major matrix of float64 values.
type Matrix struct {
	n    int
	data []float64 // len == n*n
}

// NewMatrix returns an n×n zero matrix. Panics if n < 0.
func NewMatrix(n int) *Matrix {
	if n < 0 {
		panic(fmt.Sprintf("tridiag: NewMatrix(%d): negative order", n))
	}

	return &Matrix{n: n, data: make([]float64, n*n)}
}

// NewIdentity returns the n×n identity.
func NewIdentity(n int) *Matrix {
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}

	return m
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.n }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.n }

func (m *Matrix) indexOf(method string, row, col int) (int, error) {
	if row < 0 || row >= m.n || col < 0 || col >= m.n {
		return 0, fmt.Errorf("Matrix.%s(%d,%d): %w", method, row, col, ErrIndexOutOfBounds)
	}

	return row*m.n + col, nil
}

// At returns the element at (row, col).
func (m *Matrix) At(row, col int) (float64, error) {
	idx, err := m.indexOf("At", row, col)
	if err != nil {
		return 0, err
	}

	return m.data[idx], nil
}

// Set assigns v at (row, col).
func (m *Matrix) Set(row, col int, v float64) error {
	idx, err := m.indexOf("Set", row, col)
	if err != nil {
		return err
	}
	m.data[idx] = v

	return nil
}

// Column returns a copy of column k.
func (m *Matrix) Column(k int) ([]float64, error) {
	if k < 0 || k >= m.n {
		return nil, fmt.Errorf("Matrix.Column(%d): %w", k, ErrIndexOutOfBounds)
	}
	out := make([]float64, m.n)
	for i := 0; i < m.n; i++ {
		out[i] = m.data[i*m.n+k]
	}

	return out, nil
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	data := make([]float64, len(m.data))
	copy(data, m.data)

	return &Matrix{n: m.n, data: data}
}

// String implements fmt.Stringer.
func (m *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.n; i++ {
		sb.WriteByte('[')
		for j := 0; j < m.n; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%g", m.data[i*m.n+j])
		}
		sb.WriteString("]\n")
	}

	return sb.String()
}
