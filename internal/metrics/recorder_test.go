package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; shared by tests in this package.
type testRecorder struct {
	mu            sync.Mutex
	runDurations  map[string]int
	runOutcomes   map[string]map[OutcomeLabel]int
	moduleResults map[ResultLabel]int
	files         int
	misses        map[string]int
	ambiguous     int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		runDurations:  map[string]int{},
		runOutcomes:   map[string]map[OutcomeLabel]int{},
		moduleResults: map[ResultLabel]int{},
		misses:        map[string]int{},
	}
}

func (t *testRecorder) ObserveRunDuration(run string, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runDurations[run]++
}

func (t *testRecorder) IncRunOutcome(run string, outcome OutcomeLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.runOutcomes[run]
	if !ok {
		m = map[OutcomeLabel]int{}
		t.runOutcomes[run] = m
	}
	m[outcome]++
}

func (t *testRecorder) IncModuleResult(_ string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.moduleResults[result]++
}

func (t *testRecorder) IncFilesPublished(_ string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files += n
}

func (t *testRecorder) IncLookupMiss(lookup string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.misses[lookup]++
}

func (t *testRecorder) IncAmbiguousMaster() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ambiguous++
}

var _ Recorder = (*testRecorder)(nil)
