package core

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// RunDiagnostics collects a small set of metrics about one build/test
// invocation: per-verdict case counts, testset build durations, and a
// parallelism-efficiency gauge that holds whatever SetParallelismEfficiency
// last stored. The Graph keeps no blocked-time record and no caller in this
// repository sets the gauge, so it is written as 0. This is a
// batch tool, not a scraped service, so metrics are computed in-process and
// dumped once to a text-exposition file rather than served over HTTP.
type RunDiagnostics struct {
	registry  *prometheus.Registry
	casesRun  *prometheus.CounterVec
	buildTime prometheus.Histogram
	efficiency prometheus.Gauge
}

// NewRunDiagnostics creates a fresh, empty diagnostics collector.
func NewRunDiagnostics() *RunDiagnostics {
	reg := prometheus.NewRegistry()
	d := &RunDiagnostics{
		registry: reg,
		casesRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rime_cases_total",
			Help: "Test cases run, labeled by verdict.",
		}, []string{"verdict"}),
		buildTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rime_testset_build_seconds",
			Help:    "Wall-clock time spent building a testset.",
			Buckets: prometheus.DefBuckets,
		}),
		efficiency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rime_parallelism_efficiency",
			Help: "Fraction of wall-clock time the Fiber backend kept every parallelism slot busy.",
		}),
	}
	reg.MustRegister(d.casesRun, d.buildTime, d.efficiency)
	return d
}

func (d *RunDiagnostics) RecordCase(v Verdict) {
	d.casesRun.WithLabelValues(string(v)).Inc()
}

func (d *RunDiagnostics) RecordBuildSeconds(seconds float64) {
	d.buildTime.Observe(seconds)
}

func (d *RunDiagnostics) SetParallelismEfficiency(frac float64) {
	d.efficiency.Set(frac)
}

// WriteTo dumps the collected metrics as Prometheus text exposition to path.
func (d *RunDiagnostics) WriteTo(path string) error {
	families, err := d.registry.Gather()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
