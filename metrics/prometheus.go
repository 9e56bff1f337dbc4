// SPDX-License-Identifier: MIT

package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "spectral"

// Prometheus exports Collector events as Prometheus series.
type Prometheus struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	iterations  prometheus.Counter
	reorth      prometheus.Counter
	exhaustions prometheus.Counter
	haloMsgs    prometheus.Counter
	haloValues  prometheus.Counter
}

// NewPrometheus creates the series under namespace (default "spectral") and
// registers them on reg. A series already registered by an identical
// collector is reused.
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	p := &Prometheus{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Partitioning runs by mode and result",
		}, []string{"mode", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a partitioning run",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"mode"}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lanczos_iterations_total",
			Help:      "Lanczos alpha values produced",
		}),
		reorth: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lanczos_reorthogonalizations_total",
			Help:      "Gram-Schmidt passes triggered by orthogonality drift",
		}),
		exhaustions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lanczos_exhaustions_total",
			Help:      "Runs whose Krylov subspace was exhausted early",
		}),
		haloMsgs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "halo_messages_total",
			Help:      "Halo payloads sent",
		}),
		haloValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "halo_values_total",
			Help:      "Vector entries shipped in halo payloads",
		}),
	}

	if reg == nil {
		return p, nil
	}

	var err error
	if p.runs, err = register(reg, p.runs); err != nil {
		return nil, err
	}
	if p.duration, err = register(reg, p.duration); err != nil {
		return nil, err
	}
	for _, c := range []*prometheus.Counter{&p.iterations, &p.reorth, &p.exhaustions, &p.haloMsgs, &p.haloValues} {
		if *c, err = register(reg, *c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// register adds c to reg, returning the already registered equivalent when
// there is one.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}

	return c, fmt.Errorf("metrics: register: %w", err)
}

// RecordRun implements Collector.
func (p *Prometheus) RecordRun(mode string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.runs.WithLabelValues(mode, result).Inc()
	p.duration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordIterations implements Collector.
func (p *Prometheus) RecordIterations(n int) { p.iterations.Add(float64(n)) }

// RecordReorthogonalization implements Collector.
func (p *Prometheus) RecordReorthogonalization() { p.reorth.Inc() }

// RecordExhaustion implements Collector.
func (p *Prometheus) RecordExhaustion() { p.exhaustions.Inc() }

// RecordHalo implements Collector.
func (p *Prometheus) RecordHalo(messages, values uint64) {
	p.haloMsgs.Add(float64(messages))
	p.haloValues.Add(float64(values))
}
