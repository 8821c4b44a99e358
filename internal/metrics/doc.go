// Package metrics provides observability hooks for publish runs.
//
// Components receive a Recorder and default to NoopRecorder, so metrics can
// be switched on without touching call sites:
//
//	reg := prom.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
//
// The daemon wires the Prometheus implementation; one-shot CLI runs use the
// no-op recorder.
package metrics
