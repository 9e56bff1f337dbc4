// SPDX-License-Identifier: MIT

// Package metrics_test covers the in-memory and Prometheus collectors.
package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/katalvlaran/lvlath-spectral/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

var (
	_ metrics.Collector = metrics.NoopCollector{}
	_ metrics.Collector = (*metrics.BasicCollector)(nil)
	_ metrics.Collector = (*metrics.Prometheus)(nil)
)

// TestBasicCollector accumulates run, iteration and halo counters in memory.
func TestBasicCollector(t *testing.T) {
	var b metrics.BasicCollector
	b.RecordRun(metrics.ModeBisect, 2*time.Millisecond, nil)
	b.RecordRun(metrics.ModeKWay, 4*time.Millisecond, errors.New("boom"))
	b.RecordIterations(12)
	b.RecordIterations(3)
	b.RecordReorthogonalization()
	b.RecordExhaustion()
	b.RecordHalo(4, 10)
	b.RecordHalo(1, 2)

	s := b.GetStats()
	require.Equal(t, int64(2), s.Runs)
	require.Equal(t, int64(1), s.RunErrors)
	require.Equal(t, (3 * time.Millisecond).Nanoseconds(), s.RunAvgNanos)
	require.Equal(t, int64(15), s.Iterations)
	require.Equal(t, int64(1), s.Reorthogonalizations)
	require.Equal(t, int64(1), s.Exhaustions)
	require.Equal(t, uint64(5), s.HaloMessages)
	require.Equal(t, uint64(12), s.HaloValues)
}

func TestBasicCollector_EmptyAverage(t *testing.T) {
	var b metrics.BasicCollector
	require.Zero(t, b.GetStats().RunAvgNanos)
}

// family returns the gathered family called name.
func family(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric family %q not gathered", name)

	return nil
}

// TestPrometheus exposes the collector through a private registry.
func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := metrics.NewPrometheus(reg, "")
	require.NoError(t, err)

	p.RecordRun(metrics.ModeBisect, time.Millisecond, nil)
	p.RecordRun(metrics.ModeBisect, time.Millisecond, errors.New("x"))
	p.RecordIterations(7)
	p.RecordReorthogonalization()
	p.RecordExhaustion()
	p.RecordHalo(3, 9)

	runs := family(t, reg, "spectral_runs_total")
	require.Len(t, runs.GetMetric(), 2)
	for _, m := range runs.GetMetric() {
		require.Equal(t, 1.0, m.GetCounter().GetValue())
	}
	require.Equal(t, 7.0, family(t, reg, "spectral_lanczos_iterations_total").GetMetric()[0].GetCounter().GetValue())
	require.Equal(t, 9.0, family(t, reg, "spectral_halo_values_total").GetMetric()[0].GetCounter().GetValue())
	require.Equal(t, uint64(2), family(t, reg, "spectral_run_duration_seconds").GetMetric()[0].GetHistogram().GetSampleCount())
}

// TestPrometheus_ReusesRegisteredSeries tolerates a second collector on the same registry.
func TestPrometheus_ReusesRegisteredSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := metrics.NewPrometheus(reg, "part")
	require.NoError(t, err)
	b, err := metrics.NewPrometheus(reg, "part")
	require.NoError(t, err)

	a.RecordExhaustion()
	b.RecordExhaustion()
	require.Equal(t, 2.0, family(t, reg, "part_lanczos_exhaustions_total").GetMetric()[0].GetCounter().GetValue())
}

func TestPrometheus_NilRegisterer(t *testing.T) {
	p, err := metrics.NewPrometheus(nil, "")
	require.NoError(t, err)
	p.RecordIterations(1)
}
