// SPDX-License-Identifier: MIT

// Package spectral_test exercises the Partitioner end to end on small fixtures.
package spectral_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	spectral "github.com/katalvlaran/lvlath-spectral"
	"github.com/katalvlaran/lvlath-spectral/comm"
	"github.com/katalvlaran/lvlath-spectral/config"
	"github.com/katalvlaran/lvlath-spectral/dgraph"
	"github.com/katalvlaran/lvlath-spectral/lanczos"
	"github.com/katalvlaran/lvlath-spectral/metrics"
	"github.com/katalvlaran/lvlath-spectral/partition"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// TestBisect_Barbell splits two cliques joined by a bridge at the bridge.
func TestBisect_Barbell(t *testing.T) {
	var collector metrics.BasicCollector
	var buf bytes.Buffer
	logger := spectral.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	p := spectral.New(
		spectral.WithSeed(3),
		spectral.WithMetrics(&collector),
		spectral.WithLogger(logger),
		spectral.WithTracer(noop.NewTracerProvider().Tracer("test")),
	)

	err := comm.Run(context.Background(), 2, func(ctx context.Context, c comm.Communicator) error {
		g, err := dgraph.Shard(c.Rank(), 2, 8, dgraph.Barbell(4))
		if err != nil {
			return err
		}
		col, err := p.Bisect(ctx, g, c)
		if err != nil {
			return err
		}
		// Each rank owns exactly one clique, so it sees one colour.
		if len(col.Distinct()) != 1 || col.Len() != 4 {
			return partition.ErrDimensionMismatch
		}

		return nil
	})
	require.NoError(t, err)

	rep := p.LastReport()
	require.Equal(t, metrics.ModeBisect, rep.Mode)
	require.Equal(t, 2, rep.Procs)
	require.Equal(t, []int{4, 4}, rep.PartSizes)
	require.True(t, rep.Exhausted)
	require.Equal(t, 4, rep.Steps)
	require.Len(t, rep.Eigenvalues, 4)
	require.InDelta(t, 0, rep.Eigenvalues[0], 1e-8)
	require.Positive(t, rep.HaloMessages)

	s := collector.GetStats()
	require.Equal(t, int64(1), s.Runs)
	require.Zero(t, s.RunErrors)
	require.Equal(t, int64(1), s.Exhaustions)
	require.Equal(t, int64(4), s.Iterations)
	require.Positive(t, s.HaloValues)

	require.Contains(t, buf.String(), `"msg":"run done"`)
	require.Contains(t, buf.String(), `"rank":0`)
}

func TestKWay_Path(t *testing.T) {
	p := spectral.New(spectral.WithSeed(5))
	err := comm.Run(context.Background(), 3, func(ctx context.Context, c comm.Communicator) error {
		g, err := dgraph.Shard(c.Rank(), 3, 9, dgraph.Path(9))
		if err != nil {
			return err
		}
		_, err = p.KWay(ctx, g, c, 2)

		return err
	})
	require.NoError(t, err)

	rep := p.LastReport()
	require.Equal(t, metrics.ModeKWay, rep.Mode)
	require.NotEmpty(t, rep.PartSizes)
	require.LessOrEqual(t, len(rep.PartSizes), 4)
	total := 0
	for _, n := range rep.PartSizes {
		total += n
	}
	require.Equal(t, 9, total)
}

// TestKWay_BadCount rejects counts outside [1, MaxKWayBits].
func TestKWay_BadCount(t *testing.T) {
	g, err := dgraph.Shard(0, 1, 4, dgraph.Path(4))
	require.NoError(t, err)
	m, err := comm.NewMesh(1)
	require.NoError(t, err)
	ep, err := m.Endpoint(0)
	require.NoError(t, err)
	_, err = spectral.New().KWay(context.Background(), g, ep, 0)
	require.ErrorIs(t, err, partition.ErrBadCount)
	_, err = spectral.New().KWay(context.Background(), g, ep, partition.MaxKWayBits+1)
	require.ErrorIs(t, err, partition.ErrBadCount)
}

// TestKWay_ManyBits runs a wide k-way split: labels stay non-negative and
// the part sizes only cover colours that occur.
func TestKWay_ManyBits(t *testing.T) {
	const n, num = 200, partition.MaxKWayBits
	p := spectral.New(spectral.WithSeed(1), spectral.WithLanczos(lanczos.WithIterations(60)))
	err := comm.Run(context.Background(), 2, func(ctx context.Context, c comm.Communicator) error {
		g, err := dgraph.Shard(c.Rank(), 2, n, dgraph.Path(n))
		if err != nil {
			return err
		}
		col, err := p.KWay(ctx, g, c, num)
		if err != nil {
			return err
		}
		var bad error
		col.Each(func(_, colour int) bool {
			if colour < 0 || colour >= 1<<num {
				bad = partition.ErrBadColour
				return false
			}
			return true
		})

		return bad
	})
	require.NoError(t, err)

	rep := p.LastReport()
	require.LessOrEqual(t, len(rep.PartSizes), 1<<num)
	total := 0
	for _, s := range rep.PartSizes {
		total += s
	}
	require.Equal(t, n, total)
	require.NotZero(t, rep.PartSizes[len(rep.PartSizes)-1])
}

func eigenvalues(t *testing.T, p *spectral.Partitioner, procs int) []float64 {
	t.Helper()
	out := make([][]float64, procs)
	err := comm.Run(context.Background(), procs, func(ctx context.Context, c comm.Communicator) error {
		g, err := dgraph.Shard(c.Rank(), procs, 6, dgraph.Cycle(6))
		if err != nil {
			return err
		}
		values, err := p.Eigenvalues(ctx, g, c, 2)
		out[c.Rank()] = values

		return err
	})
	require.NoError(t, err)
	for _, v := range out[1:] {
		require.Equal(t, out[0], v)
	}

	return out[0]
}

// TestEigenvalues_Cycle matches the six-cycle spectrum.
func TestEigenvalues_Cycle(t *testing.T) {
	require.InDeltaSlice(t, []float64{0, 1, 3, 4}, eigenvalues(t, spectral.New(), 2), 1e-8)
}

// TestFromConfig honours the solver, seed and exhaustion policy from Config.
func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Solver = "lapack"
	cfg.Lanczos.Seed = 9
	p, err := spectral.FromConfig(cfg)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{0, 1, 3, 4}, eigenvalues(t, p, 3), 1e-8)

	cfg.Lanczos.ExhaustionPolicy = "fail"
	p, err = spectral.FromConfig(cfg)
	require.NoError(t, err)
	err = comm.Run(context.Background(), 1, func(ctx context.Context, c comm.Communicator) error {
		g, err := dgraph.Shard(0, 1, 6, dgraph.Cycle(6))
		if err != nil {
			return err
		}
		_, err = p.Bisect(ctx, g, c)

		return err
	})
	require.ErrorIs(t, err, lanczos.ErrKrylovExhausted)

	cfg.Solver = "arpack"
	_, err = spectral.FromConfig(cfg)
	require.Error(t, err)
}

func TestNewLoggerFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Format = "json"
	l, err := spectral.NewLoggerFromConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, l)

	cfg.Log.Level = "chatty"
	_, err = spectral.NewLoggerFromConfig(cfg)
	require.Error(t, err)

	var buf bytes.Buffer
	spectral.NewLogger(slog.NewTextHandler(&buf, nil)).WithRank(2, 4).Info("hello")
	require.True(t, strings.Contains(buf.String(), "rank=2 procs=4"))
	spectral.NoopLogger().Info("dropped")
}

func TestWithSolver_PanicsOnNil(t *testing.T) {
	require.Panics(t, func() { spectral.WithSolver(nil) })
}
