package metrics

import "time"

// ResultLabel enumerates module result categories for counters.
type ResultLabel string

const (
	ResultPublished ResultLabel = "published"
	ResultSkipped   ResultLabel = "skipped"
	ResultFailed    ResultLabel = "failed"
)

// OutcomeLabel enumerates final run states.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeWarning OutcomeLabel = "warning"
	OutcomeFailed  OutcomeLabel = "failed"
)

// Recorder defines observability hooks for publish runs. Implementations may
// forward to Prometheus or similar backends.
type Recorder interface {
	ObserveRunDuration(run string, d time.Duration)
	IncRunOutcome(run string, outcome OutcomeLabel)
	IncModuleResult(run string, result ResultLabel)
	IncFilesPublished(run string, n int)
	IncLookupMiss(lookup string)
	IncAmbiguousMaster()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRunDuration(string, time.Duration) {}
func (NoopRecorder) IncRunOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) IncModuleResult(string, ResultLabel)      {}
func (NoopRecorder) IncFilesPublished(string, int)            {}
func (NoopRecorder) IncLookupMiss(string)                     {}
func (NoopRecorder) IncAmbiguousMaster()                      {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
