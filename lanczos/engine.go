// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/lanczos
//
// engine.go — distributed Lanczos iteration with selective
// reorthogonalization.
//
// Contract:
//   - Run is collective: every rank of the communicator calls it with its own
//     shard of the same graph, the same k and the same options.
//   - len(Alpha) == len(Beta)+1 and len(Basis) == len(Alpha).
//   - Every decision that changes control flow (exhaustion, reorthogonalize)
//     depends only on reduced global values, so all ranks take the same path.
//
// Determinism:
//   - For a fixed seed and group size, results are reproducible; reductions
//     sum partials in ascending rank order.

package lanczos

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/katalvlaran/lvlath-spectral/comm"
	"github.com/katalvlaran/lvlath-spectral/dgraph"
	"github.com/katalvlaran/lvlath-spectral/halo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/constraints"
)

// Result is one rank's view of a Lanczos run. Alpha and Beta are replicated
// on every rank; Basis holds this rank's slices of the Lanczos vectors.
type Result[F constraints.Float] struct {
	Alpha []float64 // diagonal of T
	Beta  []float64 // off-diagonal of T

	Basis []Vector[F]

	// Iterations is the planned step count m; len(Alpha) is smaller when the
	// run was truncated.
	Iterations int

	Reorthogonalizations int
	Exhausted            bool
	Halo                 halo.Stats
}

// Steps returns the order of the tridiagonal system.
func (r *Result[F]) Steps() int { return len(r.Alpha) }

// Engine runs the Lanczos iteration with a fixed configuration. It holds no
// per-run state and may be shared across ranks.
type Engine[F constraints.Float] struct {
	opts options
}

// New builds an Engine from options.
func New[F constraints.Float](opts ...Option) *Engine[F] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Engine[F]{opts: o}
}

// Run performs the Lanczos iteration for k target eigenpairs on the
// distributed Laplacian of g.
func (e *Engine[F]) Run(ctx context.Context, g *dgraph.Graph, c comm.Communicator, k int) (res *Result[F], err error) {
	if k < 1 {
		return nil, fmt.Errorf("%s: k=%d: %w", opRun, k, ErrBadTarget)
	}
	if g.Rank() != c.Rank() || g.Procs() != c.Size() {
		return nil, fmt.Errorf("%s: graph rank=%d/%d comm rank=%d/%d: %w",
			opRun, g.Rank(), g.Procs(), c.Rank(), c.Size(), ErrGroupMismatch)
	}

	m := Iterations(k, g.GlobalSize())
	if e.opts.iterations > 0 {
		m = min(e.opts.iterations, g.GlobalSize())
	}

	ctx, span := e.opts.tracer.Start(ctx, "lanczos.Run", trace.WithAttributes(
		attribute.Int("rank", c.Rank()),
		attribute.Int("procs", c.Size()),
		attribute.Int("k", k),
		attribute.Int("iterations", m),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	plan, err := halo.Build(g)
	if err != nil {
		return nil, lanczosErrorf(opRun, err)
	}
	ex, err := halo.NewExchanger[F](g, plan, c)
	if err != nil {
		return nil, lanczosErrorf(opRun, err)
	}
	op, err := NewOperator[F](g)
	if err != nil {
		return nil, lanczosErrorf(opRun, err)
	}

	res = &Result[F]{
		Alpha:      make([]float64, 0, m),
		Beta:       make([]float64, 0, max(m-1, 0)),
		Basis:      make([]Vector[F], 0, m),
		Iterations: m,
	}
	if err = e.iterate(ctx, c, ex, op, e.startVector(g, c), res); err != nil {
		return nil, err
	}
	res.Halo = ex.Stats()

	e.opts.metrics.RecordHalo(res.Halo.Messages, res.Halo.ValuesOut)
	if c.Rank() == 0 {
		e.opts.metrics.RecordIterations(len(res.Alpha))
		if res.Exhausted {
			e.opts.metrics.RecordExhaustion()
		}
		e.opts.logger.Info("lanczos done",
			"procs", c.Size(),
			"iterations", m,
			"steps", len(res.Alpha),
			"reorth", res.Reorthogonalizations,
			"exhausted", res.Exhausted,
		)
	}
	span.SetAttributes(
		attribute.Int("steps", len(res.Alpha)),
		attribute.Int("reorth", res.Reorthogonalizations),
		attribute.Bool("exhausted", res.Exhausted),
	)

	return res, nil
}

// iterate fills res with the three-term recurrence
//
//	w = L·v_j − α_j·v_j − β_{j−1}·v_{j−1},  β_j = ‖w‖,  v_{j+1} = w/β_j
//
// for j = 0..m−2, then computes α_{m−1} alone.
func (e *Engine[F]) iterate(ctx context.Context, c comm.Communicator, ex *halo.Exchanger[F], op *Operator[F], v0 Vector[F], res *Result[F]) error {
	m := res.Iterations
	res.Basis = append(res.Basis, v0)

	var (
		prev     Vector[F]
		betaPrev F
		cur      = v0
	)
	for j := 0; j < m; j++ {
		ext, err := ex.Exchange(ctx, cur)
		if err != nil {
			return lanczosErrorf(opRun, err)
		}
		w, err := op.Apply(ext)
		if err != nil {
			return lanczosErrorf(opRun, err)
		}
		alpha, err := Dot(ctx, c, cur, w)
		if err != nil {
			return lanczosErrorf(opRun, err)
		}
		if !finite(alpha) {
			return fmt.Errorf("%s: alpha[%d]=%g: %w", opRun, j, float64(alpha), ErrNonFinite)
		}
		res.Alpha = append(res.Alpha, float64(alpha))
		if j == m-1 {
			break
		}

		w.AXPY(-alpha, cur)
		if prev != nil {
			w.AXPY(-betaPrev, prev)
		}
		beta, err := Norm(ctx, c, w)
		if err != nil {
			return lanczosErrorf(opRun, err)
		}
		if !finite(beta) {
			return fmt.Errorf("%s: beta[%d]=%g: %w", opRun, j, float64(beta), ErrNonFinite)
		}
		if e.breakdown(beta, alpha, betaPrev) {
			return e.exhausted(c, j, float64(beta), res)
		}
		w.Scale(1 / beta)

		if e.opts.reorthogonalize {
			drift, err := Dot(ctx, c, v0, w)
			if err != nil {
				return lanczosErrorf(opRun, err)
			}
			if math.Abs(float64(drift)) >= e.opts.tol {
				norm, err := GramSchmidt(ctx, c, res.Basis, len(res.Basis), w)
				if err != nil {
					return lanczosErrorf(opRun, err)
				}
				res.Reorthogonalizations++
				if c.Rank() == 0 {
					e.opts.metrics.RecordReorthogonalization()
				}
				e.opts.logger.Debug("reorthogonalized", "rank", c.Rank(), "step", j+1, "drift", float64(drift))
				// w was unit length: a tiny remainder means it lay in the span.
				if float64(norm) <= e.opts.breakdownTol {
					return e.exhausted(c, j, float64(norm), res)
				}
			}
		}

		res.Beta = append(res.Beta, float64(beta))
		res.Basis = append(res.Basis, w)
		prev, cur, betaPrev = cur, w, beta
	}

	return nil
}

// breakdown reports whether beta is rounding noise relative to the current
// scale of the recurrence.
func (e *Engine[F]) breakdown(beta, alpha, betaPrev F) bool {
	scale := math.Max(1, math.Max(math.Abs(float64(alpha)), float64(betaPrev)))

	return float64(beta) <= e.opts.breakdownTol*scale
}

// exhausted applies the exhaustion policy after step j produced a collapsed
// vector of size beta.
func (e *Engine[F]) exhausted(c comm.Communicator, j int, beta float64, res *Result[F]) error {
	if e.opts.policy == PolicyFail {
		return fmt.Errorf("%s: beta[%d]=%g after %d of %d steps: %w", opRun, j, beta, j+1, res.Iterations, ErrKrylovExhausted)
	}
	res.Exhausted = true
	e.opts.logger.Debug("krylov subspace exhausted", "rank", c.Rank(), "step", j+1, "beta", beta)

	return nil
}

// startVector draws this rank's slice of the start vector: uniform [0, 1)
// entries, unit local norm, divided by √P so the global vector has unit norm.
func (e *Engine[F]) startVector(g *dgraph.Graph, c comm.Communicator) Vector[F] {
	rng := rand.New(rand.NewPCG(e.opts.seed, uint64(c.Rank())))
	v := make(Vector[F], g.LocalSize())
	var sq float64
	for i := range v {
		x := rng.Float64()
		v[i] = F(x)
		sq += x * x
	}
	if sq == 0 {
		v[0], sq = 1, 1
	}
	v.Scale(F(1 / (math.Sqrt(sq) * math.Sqrt(float64(c.Size())))))

	return v
}

func finite[F constraints.Float](x F) bool {
	f := float64(x)

	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
