package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "siteconfig"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	runDuration     *prom.HistogramVec
	runOutcomes     *prom.CounterVec
	moduleResults   *prom.CounterVec
	filesPublished  *prom.CounterVec
	lookupMisses    *prom.CounterVec
	ambiguousMaster prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of publish runs",
			Buckets:   prom.DefBuckets,
		}, []string{"run"}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Publish runs by final status",
		}, []string{"run", "outcome"}),
		moduleResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "module_results_total",
			Help:      "Module results by outcome",
		}, []string{"run", "result"}),
		filesPublished: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_published_total",
			Help:      "Files written by publish runs",
		}, []string{"run"}),
		lookupMisses: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "topology_lookup_misses_total",
			Help:      "Topology lookups that returned no value",
		}, []string{"lookup"}),
		ambiguousMaster: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ambiguous_master_total",
			Help:      "Master ascents that had to pick between several parents",
		}),
	}
	reg.MustRegister(pr.runDuration, pr.runOutcomes, pr.moduleResults, pr.filesPublished, pr.lookupMisses, pr.ambiguousMaster)
	return pr
}

func (p *PrometheusRecorder) ObserveRunDuration(run string, d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.WithLabelValues(run).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(run string, outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(run, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncModuleResult(run string, result ResultLabel) {
	if p == nil {
		return
	}
	p.moduleResults.WithLabelValues(run, string(result)).Inc()
}

func (p *PrometheusRecorder) IncFilesPublished(run string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.filesPublished.WithLabelValues(run).Add(float64(n))
}

func (p *PrometheusRecorder) IncLookupMiss(lookup string) {
	if p == nil {
		return
	}
	p.lookupMisses.WithLabelValues(lookup).Inc()
}

func (p *PrometheusRecorder) IncAmbiguousMaster() {
	if p == nil {
		return
	}
	p.ambiguousMaster.Inc()
}
