// SPDX-License-Identifier: MIT

// Package metrics defines the hook partitioning runs report through, with a
// no-op, an in-memory and a Prometheus implementation.
package metrics

import (
	"sync/atomic"
	"time"
)

// Run modes reported to RecordRun.
const (
	ModeBisect      = "bisect"
	ModeKWay        = "kway"
	ModeEigenvalues = "eigenvalues"
)

// Collector receives counters from the Lanczos engine and the partitioner.
// Implementations must be safe for concurrent use: every rank of an
// in-process group reports through the same collector.
type Collector interface {
	// RecordRun is called once per partitioning run.
	RecordRun(mode string, duration time.Duration, err error)

	// RecordIterations is called once per Lanczos run with the number of
	// alpha values produced.
	RecordIterations(n int)

	// RecordReorthogonalization is called for each Gram–Schmidt pass.
	RecordReorthogonalization()

	// RecordExhaustion is called when the Krylov subspace ran out early.
	RecordExhaustion()

	// RecordHalo is called after a run with the halo traffic it caused.
	RecordHalo(messages, values uint64)
}

// NoopCollector discards everything.
type NoopCollector struct{}

func (NoopCollector) RecordRun(string, time.Duration, error) {}
func (NoopCollector) RecordIterations(int)                   {}
func (NoopCollector) RecordReorthogonalization()             {}
func (NoopCollector) RecordExhaustion()                      {}
func (NoopCollector) RecordHalo(uint64, uint64)              {}

// BasicCollector keeps counters in memory.
type BasicCollector struct {
	Runs                 atomic.Int64
	RunErrors            atomic.Int64
	RunTotalNanos        atomic.Int64
	Iterations           atomic.Int64
	Reorthogonalizations atomic.Int64
	Exhaustions          atomic.Int64
	HaloMessages         atomic.Uint64
	HaloValues           atomic.Uint64
}

// RecordRun implements Collector.
func (b *BasicCollector) RecordRun(_ string, duration time.Duration, err error) {
	b.Runs.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// RecordIterations implements Collector.
func (b *BasicCollector) RecordIterations(n int) { b.Iterations.Add(int64(n)) }

// RecordReorthogonalization implements Collector.
func (b *BasicCollector) RecordReorthogonalization() { b.Reorthogonalizations.Add(1) }

// RecordExhaustion implements Collector.
func (b *BasicCollector) RecordExhaustion() { b.Exhaustions.Add(1) }

// RecordHalo implements Collector.
func (b *BasicCollector) RecordHalo(messages, values uint64) {
	b.HaloMessages.Add(messages)
	b.HaloValues.Add(values)
}

// Stats is a snapshot of a BasicCollector.
type Stats struct {
	Runs                 int64
	RunErrors            int64
	RunAvgNanos          int64
	Iterations           int64
	Reorthogonalizations int64
	Exhaustions          int64
	HaloMessages         uint64
	HaloValues           uint64
}

// GetStats returns a snapshot of current counters.
func (b *BasicCollector) GetStats() Stats {
	s := Stats{
		Runs:                 b.Runs.Load(),
		RunErrors:            b.RunErrors.Load(),
		Iterations:           b.Iterations.Load(),
		Reorthogonalizations: b.Reorthogonalizations.Load(),
		Exhaustions:          b.Exhaustions.Load(),
		HaloMessages:         b.HaloMessages.Load(),
		HaloValues:           b.HaloValues.Load(),
	}
	if s.Runs > 0 {
		s.RunAvgNanos = b.RunTotalNanos.Load() / s.Runs
	}

	return s
}
