// SPDX-License-Identifier: MIT

package spectral

import (
	"github.com/katalvlaran/lvlath-spectral/config"
	"github.com/katalvlaran/lvlath-spectral/lanczos"
	"github.com/katalvlaran/lvlath-spectral/metrics"
	"github.com/katalvlaran/lvlath-spectral/tridiag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/katalvlaran/lvlath-spectral"

// Option configures a Partitioner.
type Option func(*options)

type options struct {
	lanczos []lanczos.Option
	solver  tridiag.Solver
	logger  *Logger
	metrics metrics.Collector
	tracer  trace.Tracer
}

func defaultOptions() options {
	return options{
		solver:  tridiag.Default(),
		logger:  NoopLogger(),
		metrics: metrics.NoopCollector{},
		tracer:  otel.Tracer(tracerName),
	}
}

// WithSolver selects the tridiagonal eigen solver. Panics on nil.
func WithSolver(s tridiag.Solver) Option {
	if s == nil {
		panic("spectral: WithSolver(nil)")
	}

	return func(o *options) { o.solver = s }
}

// WithLanczos appends options for the Lanczos engine.
func WithLanczos(opts ...lanczos.Option) Option {
	return func(o *options) { o.lanczos = append(o.lanczos, opts...) }
}

// WithSeed is shorthand for WithLanczos(lanczos.WithSeed(seed)).
func WithSeed(seed uint64) Option { return WithLanczos(lanczos.WithSeed(seed)) }

// WithReorthogonalize is shorthand for WithLanczos(lanczos.WithReorthogonalize(on)).
func WithReorthogonalize(on bool) Option {
	return WithLanczos(lanczos.WithReorthogonalize(on))
}

// WithLogger sets the logger; nil keeps the discarding default.
func WithLogger(l *Logger) Option {
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

// FromConfig builds a Partitioner from a validated configuration. Extra
// options are applied after the configured ones.
func FromConfig(cfg *config.Config, extra ...Option) (*Partitioner, error) {
	solver, err := tridiag.ByName(cfg.Solver)
	if err != nil {
		return nil, err
	}
	policy, err := lanczos.ParsePolicy(cfg.Lanczos.ExhaustionPolicy)
	if err != nil {
		return nil, err
	}
	lopts := []lanczos.Option{
		lanczos.WithReorthogonalize(cfg.Lanczos.Reorthogonalize),
		lanczos.WithSeed(cfg.Lanczos.Seed),
		lanczos.WithTolerance(cfg.Lanczos.Tolerance),
		lanczos.WithBreakdownTolerance(cfg.Lanczos.BreakdownTolerance),
		lanczos.WithExhaustionPolicy(policy),
	}
	if cfg.Lanczos.Iterations > 0 {
		lopts = append(lopts, lanczos.WithIterations(cfg.Lanczos.Iterations))
	}

	opts := append([]Option{WithSolver(solver), WithLanczos(lopts...)}, extra...)

	return New(opts...), nil
}
