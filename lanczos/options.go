// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/lanczos
//
// options.go — functional configuration of the Lanczos engine.
//
// WithX constructors panic on meaningless values (programmer error); every
// other failure is a returned error.

package lanczos

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/katalvlaran/lvlath-spectral/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Defaults.
const (
	// DefaultReorthogonalize enables selective reorthogonalization.
	DefaultReorthogonalize = true

	// DefaultSeed seeds every rank's start vector generator.
	DefaultSeed uint64 = 1

	// DefaultTolerance is the orthogonality drift |⟨v₀, v_{i+1}⟩| at which a
	// Gram–Schmidt pass is run.
	DefaultTolerance = 1e-6

	// DefaultBreakdownTolerance is the relative size of beta below which the
	// Krylov subspace is treated as exhausted.
	DefaultBreakdownTolerance = 1e-8

	tracerName = "github.com/katalvlaran/lvlath-spectral/lanczos"
)

// ExhaustionPolicy decides what Run does when beta collapses before the
// planned iteration count.
type ExhaustionPolicy int

const (
	// PolicyTruncate stops and returns the shorter tridiagonal system built
	// so far. Its eigenvalues are exact eigenvalues of the Laplacian.
	PolicyTruncate ExhaustionPolicy = iota

	// PolicyFail returns ErrKrylovExhausted.
	PolicyFail
)

// String implements fmt.Stringer.
func (p ExhaustionPolicy) String() string {
	switch p {
	case PolicyTruncate:
		return "truncate"
	case PolicyFail:
		return "fail"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps "truncate" or "fail" to a policy; the empty string
// selects PolicyTruncate.
func ParsePolicy(s string) (ExhaustionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate":
		return PolicyTruncate, nil
	case "fail":
		return PolicyFail, nil
	default:
		return 0, fmt.Errorf("lanczos: unknown exhaustion policy %q", s)
	}
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	reorthogonalize bool
	seed            uint64
	tol             float64
	breakdownTol    float64
	iterations      int // 0 ⇒ Iterations(k, N)
	policy          ExhaustionPolicy
	logger          *slog.Logger
	metrics         metrics.Collector
	tracer          trace.Tracer
}

func defaultOptions() options {
	return options{
		reorthogonalize: DefaultReorthogonalize,
		seed:            DefaultSeed,
		tol:             DefaultTolerance,
		breakdownTol:    DefaultBreakdownTolerance,
		policy:          PolicyTruncate,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:         metrics.NoopCollector{},
		tracer:          otel.Tracer(tracerName),
	}
}

// WithReorthogonalize toggles selective Gram–Schmidt reorthogonalization.
func WithReorthogonalize(on bool) Option {
	return func(o *options) { o.reorthogonalize = on }
}

// WithSeed sets the start vector seed. Rank r draws from the stream
// (seed, r), so a run is reproducible for a fixed seed and group size.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithTolerance sets the orthogonality drift threshold. Panics if tol <= 0.
func WithTolerance(tol float64) Option {
	if !(tol > 0) {
		panic(fmt.Sprintf("lanczos: WithTolerance(%g): must be > 0", tol))
	}

	return func(o *options) { o.tol = tol }
}

// WithBreakdownTolerance sets the relative beta threshold for Krylov
// exhaustion. Panics if tol <= 0.
func WithBreakdownTolerance(tol float64) Option {
	if !(tol > 0) {
		panic(fmt.Sprintf("lanczos: WithBreakdownTolerance(%g): must be > 0", tol))
	}

	return func(o *options) { o.breakdownTol = tol }
}

// WithIterations overrides the iteration heuristic. The value is still capped
// at the global vertex count. Panics if m < 1.
func WithIterations(m int) Option {
	if m < 1 {
		panic(fmt.Sprintf("lanczos: WithIterations(%d): must be >= 1", m))
	}

	return func(o *options) { o.iterations = m }
}

// WithExhaustionPolicy selects the Krylov exhaustion behaviour.
func WithExhaustionPolicy(p ExhaustionPolicy) Option {
	if p != PolicyTruncate && p != PolicyFail {
		panic(fmt.Sprintf("lanczos: WithExhaustionPolicy(%d): unknown policy", int(p)))
	}

	return func(o *options) { o.policy = p }
}

// WithLogger sets the structured logger; nil keeps the discarding default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics collector; nil keeps the no-op default.
func WithMetrics(c metrics.Collector) Option {
	return func(o *options) {
		if c != nil {
			o.metrics = c
		}
	}
}

// WithTracer sets the OpenTelemetry tracer; nil keeps the global provider's.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}
