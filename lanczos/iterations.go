// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/lanczos
//
// iterations.go — planned Lanczos step count.
//
// Inputs:
//   - k: number of extreme eigenpairs wanted (>= 1).
//   - n: global vertex count.
//
// Returns:
//   - m in [1, n], or 0 when k < 1 or n <= 0 (nothing to iterate).
//
// Complexity:
//   - O(1).

package lanczos

import "math"

// Iterations returns the number of Lanczos steps m used to approximate k
// extreme eigenpairs of an n-vertex graph. It is a heuristic, not an exact
// count:
//
//	scale = 4 for k ∈ {1, 2}, else k+2
//	if round(log10 n) > 3: scale -= round(log10 √n), floored at 1
//	m = min(n, ⌊scale·√n⌋)
func Iterations(k, n int) int {
	if n <= 0 || k < 1 {
		return 0
	}
	scale := k + 2
	if k == 1 || k == 2 {
		scale = 4
	}
	if math.Round(math.Log10(float64(n))) > 3 {
		scale -= int(math.Round(math.Log10(math.Sqrt(float64(n)))))
		if scale <= 0 {
			scale = 1
		}
	}
	m := int(float64(scale) * math.Sqrt(float64(n)))

	return max(min(m, n), 1)
}
