// SPDX-License-Identifier: MIT
// Package: lvlath-spectral
//
// partitioner.go — end-to-end runs: Lanczos → tridiagonal solve → colours.
//
// Contract:
//   - Every method is collective over the communicator.
//   - Bisect needs k=2 eigenpairs, KWay(num) needs num+1; the Lanczos
//     iteration count follows from k and the graph size.
//   - A fresh Colouring is returned per call; the graph is never mutated.

package spectral

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/katalvlaran/lvlath-spectral/comm"
	"github.com/katalvlaran/lvlath-spectral/dgraph"
	"github.com/katalvlaran/lvlath-spectral/lanczos"
	"github.com/katalvlaran/lvlath-spectral/metrics"
	"github.com/katalvlaran/lvlath-spectral/partition"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Report summarizes the most recent run of a Partitioner.
type Report struct {
	Mode                 string
	Rank                 int
	Procs                int
	Iterations           int // planned Lanczos steps
	Steps                int // order of the tridiagonal system
	Reorthogonalizations int
	Exhausted            bool
	Eigenvalues          []float64 // Ritz values, ascending
	PartSizes            []int     // global vertex count per colour
	HaloMessages         uint64
	HaloValues           uint64
	Duration             time.Duration
}

// Partitioner runs spectral partitioning with a fixed configuration. It is
// safe to share between the ranks of an in-process group; LastReport then
// returns whichever rank finished last.
type Partitioner struct {
	opts options

	mu   sync.Mutex
	last Report
}

// New builds a Partitioner from options.
func New(opts ...Option) *Partitioner {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Partitioner{opts: o}
}

// LastReport returns a copy of the most recent run's report.
func (p *Partitioner) LastReport() Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := p.last
	r.Eigenvalues = append([]float64(nil), r.Eigenvalues...)
	r.PartSizes = append([]int(nil), r.PartSizes...)

	return r
}

// Bisect splits the graph in two by the sign of its Fiedler vector.
func (p *Partitioner) Bisect(ctx context.Context, g *dgraph.Graph, c comm.Communicator) (*partition.Colouring, error) {
	return p.colour(ctx, g, c, metrics.ModeBisect, 1)
}

// KWay labels every vertex with num sign bits taken from the eigenvectors
// of the 2nd..(num+1)th smallest eigenvalues, producing up to 2^num parts.
func (p *Partitioner) KWay(ctx context.Context, g *dgraph.Graph, c comm.Communicator, num int) (*partition.Colouring, error) {
	if num < 1 || num > partition.MaxKWayBits {
		return nil, fmt.Errorf("KWay: num=%d outside [1, %d]: %w", num, partition.MaxKWayBits, partition.ErrBadCount)
	}

	return p.colour(ctx, g, c, metrics.ModeKWay, num)
}

// Eigenvalues returns the ascending Ritz values of a Lanczos run targeting
// k eigenpairs.
func (p *Partitioner) Eigenvalues(ctx context.Context, g *dgraph.Graph, c comm.Communicator, k int) (values []float64, err error) {
	ctx, span, rep, finish := p.begin(ctx, g, c, metrics.ModeEigenvalues)
	defer func() { finish(err) }()

	_, eig, err := p.solve(ctx, g, c, k, rep)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("steps", len(eig.Values)))

	return eig.Sorted(), nil
}

// colour runs the shared pipeline for Bisect (num=1) and KWay.
func (p *Partitioner) colour(ctx context.Context, g *dgraph.Graph, c comm.Communicator, mode string, num int) (col *partition.Colouring, err error) {
	ctx, span, rep, finish := p.begin(ctx, g, c, mode)
	defer func() { finish(err) }()

	res, eig, err := p.solve(ctx, g, c, num+1, rep)
	if err != nil {
		return nil, err
	}

	col = partition.NewColouring(g)
	if mode == metrics.ModeBisect {
		err = partition.Bisect(col, res, eig)
	} else {
		err = partition.KWay(col, res, eig, num)
	}
	if err != nil {
		return nil, err
	}

	if rep.PartSizes, err = col.GlobalCounts(ctx, c); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.IntSlice("part_sizes", rep.PartSizes))

	return col, nil
}

// solve runs Lanczos for k eigenpairs and the tridiagonal solver, filling
// the Lanczos fields of rep.
func (p *Partitioner) solve(ctx context.Context, g *dgraph.Graph, c comm.Communicator, k int, rep *Report) (*lanczos.Result[float64], partition.Eigenpairs, error) {
	engine := lanczos.New[float64](append([]lanczos.Option{
		lanczos.WithLogger(p.opts.logger.Logger),
		lanczos.WithMetrics(p.opts.metrics),
		lanczos.WithTracer(p.opts.tracer),
	}, p.opts.lanczos...)...)

	res, err := engine.Run(ctx, g, c, k)
	if err != nil {
		return nil, partition.Eigenpairs{}, err
	}
	rep.Iterations = res.Iterations
	rep.Steps = res.Steps()
	rep.Reorthogonalizations = res.Reorthogonalizations
	rep.Exhausted = res.Exhausted
	rep.HaloMessages = res.Halo.Messages
	rep.HaloValues = res.Halo.ValuesOut

	eig, err := partition.Solve(p.opts.solver, res)
	if err != nil {
		return nil, partition.Eigenpairs{}, err
	}
	rep.Eigenvalues = eig.Sorted()

	return res, eig, nil
}

// begin opens the run span and returns the report under construction and
// the function that closes the run.
func (p *Partitioner) begin(ctx context.Context, g *dgraph.Graph, c comm.Communicator, mode string) (context.Context, trace.Span, *Report, func(error)) {
	start := time.Now()
	ctx, span := p.opts.tracer.Start(ctx, "spectral."+mode, trace.WithAttributes(
		attribute.Int("rank", c.Rank()),
		attribute.Int("procs", c.Size()),
		attribute.Int("vertices", g.GlobalSize()),
	))
	rep := &Report{Mode: mode, Rank: c.Rank(), Procs: c.Size()}
	log := p.opts.logger.WithRank(c.Rank(), c.Size())

	finish := func(err error) {
		rep.Duration = time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("run failed", "mode", mode, "err", err)
		} else if c.Rank() == 0 {
			log.Info("run done",
				"mode", mode,
				"steps", rep.Steps,
				"exhausted", rep.Exhausted,
				"part_sizes", rep.PartSizes,
				"duration", rep.Duration,
			)
		}
		span.End()
		if c.Rank() == 0 {
			p.opts.metrics.RecordRun(mode, rep.Duration, err)
		}
		if err == nil {
			p.mu.Lock()
			p.last = *rep
			p.mu.Unlock()
		}
	}

	return ctx, span, rep, finish
}
