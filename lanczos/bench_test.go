// SPDX-License-Identifier: MIT

// Package lanczos_test provides benchmarks for the shard Laplacian and the
// Lanczos engine on grid graphs.
//
// Run with:
//
//	go test -bench=. -benchmem ./lanczos
package lanczos_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/katalvlaran/lvlath-spectral/comm"
	"github.com/katalvlaran/lvlath-spectral/dgraph"
	"github.com/katalvlaran/lvlath-spectral/lanczos"
)

// benchSides are grid side lengths; a side of s gives s*s vertices.
var benchSides = []int{32, 64, 128}

var (
	sinkVector lanczos.Vector[float64]
	sinkResult *lanczos.Result[float64]
)

// benchGrid builds the single shard of a side×side grid.
func benchGrid(b *testing.B, side int) *dgraph.Graph {
	b.Helper()
	n := side * side
	g, err := dgraph.Shard(0, 1, n, dgraph.Grid(side, side))
	if err != nil {
		b.Fatal(err)
	}

	return g
}

// BenchmarkOperatorApply measures one Laplacian application over a full shard.
func BenchmarkOperatorApply(b *testing.B) {
	for _, side := range benchSides {
		g := benchGrid(b, side)
		op, err := lanczos.NewOperator[float64](g)
		if err != nil {
			b.Fatal(err)
		}
		v := make([]float64, g.ExtendedSize())
		for i := range v {
			v[i] = float64(i%7) - 3
		}

		b.Run(fmt.Sprintf("n=%d", side*side), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				out, err := op.Apply(v)
				if err != nil {
					b.Fatal(err)
				}
				sinkVector = out
			}
		})
	}
}

// BenchmarkEngineRun measures a full Lanczos run on one rank.
func BenchmarkEngineRun(b *testing.B) {
	ctx := context.Background()
	for _, side := range benchSides {
		g := benchGrid(b, side)
		m, err := comm.NewMesh(1)
		if err != nil {
			b.Fatal(err)
		}
		ep, err := m.Endpoint(0)
		if err != nil {
			b.Fatal(err)
		}
		eng := lanczos.New[float64](lanczos.WithSeed(1))

		b.Run(fmt.Sprintf("n=%d", side*side), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				res, err := eng.Run(ctx, g, ep, 2)
				if err != nil {
					b.Fatal(err)
				}
				sinkResult = res
			}
		})
	}
}

// BenchmarkEngineRun_Ranks measures the same run split over several ranks of
// an in-process mesh.
func BenchmarkEngineRun_Ranks(b *testing.B) {
	const side = 64
	n := side * side
	for _, procs := range []int{2, 4} {
		shards := make([]*dgraph.Graph, procs)
		for r := range shards {
			g, err := dgraph.Shard(r, procs, n, dgraph.Grid(side, side))
			if err != nil {
				b.Fatal(err)
			}
			shards[r] = g
		}
		eng := lanczos.New[float64](lanczos.WithSeed(1))

		b.Run(fmt.Sprintf("P=%d", procs), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				err := comm.Run(context.Background(), procs, func(ctx context.Context, c comm.Communicator) error {
					_, err := eng.Run(ctx, shards[c.Rank()], c, 2)

					return err
				})
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
