package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

// Event type names.
const (
	TypeRunStarted    = "RunStarted"
	TypeFilePublished = "FilePublished"
	TypeModuleFailed  = "ModuleFailed"
	TypeRunCompleted  = "RunCompleted"
	TypeRunFailed     = "RunFailed"
)

// RunStartedPayload is the payload of a RunStarted event.
type RunStartedPayload struct {
	Run         string `json:"run"`
	Publication string `json:"publication"`
	Trigger     string `json:"trigger,omitempty"`
}

// FilePublishedPayload is the payload of a FilePublished event.
type FilePublishedPayload struct {
	Module  string `json:"module,omitempty"`
	URL     string `json:"url"`
	Hash    string `json:"hash"`
	Changed bool   `json:"changed"`
}

// ModuleFailedPayload is the payload of a ModuleFailed event.
type ModuleFailedPayload struct {
	Module   string `json:"module"`
	Category string `json:"category,omitempty"`
	Error    string `json:"error"`
}

// RunCompletedPayload is the payload of a RunCompleted event.
type RunCompletedPayload struct {
	Files         []string `json:"files"`
	FailedModules int      `json:"failed_modules"`
	DurationMS    int64    `json:"duration_ms"`
	Report        string   `json:"report,omitempty"`
}

// RunFailedPayload is the payload of a RunFailed event.
type RunFailedPayload struct {
	Category   string `json:"category,omitempty"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
}

// Recorder appends typed events for one run. A nil store makes every call a no-op.
type Recorder struct {
	store Store
	runID string
}

// NewRecorder binds a store to a run id.
func NewRecorder(store Store, runID string) *Recorder {
	return &Recorder{store: store, runID: runID}
}

// RunID returns the run id events are recorded under.
func (r *Recorder) RunID() string { return r.runID }

// RunStarted records the start of a run.
func (r *Recorder) RunStarted(ctx context.Context, p RunStartedPayload) error {
	return r.append(ctx, TypeRunStarted, p, nil)
}

// FilePublished records one published file.
func (r *Recorder) FilePublished(ctx context.Context, p FilePublishedPayload) error {
	return r.append(ctx, TypeFilePublished, p, nil)
}

// ModuleFailed records a module skipped because of an error.
func (r *Recorder) ModuleFailed(ctx context.Context, p ModuleFailedPayload) error {
	return r.append(ctx, TypeModuleFailed, p, nil)
}

// RunCompleted records a successful run.
func (r *Recorder) RunCompleted(ctx context.Context, p RunCompletedPayload, d time.Duration) error {
	p.DurationMS = d.Milliseconds()
	return r.append(ctx, TypeRunCompleted, p, nil)
}

// RunFailed records an aborted run.
func (r *Recorder) RunFailed(ctx context.Context, cause error, d time.Duration) error {
	p := RunFailedPayload{Error: cause.Error(), DurationMS: d.Milliseconds()}
	if ce, ok := errors.AsClassified(cause); ok {
		p.Category = string(ce.Category())
	}
	return r.append(ctx, TypeRunFailed, p, nil)
}

func (r *Recorder) append(ctx context.Context, eventType string, payload any, meta map[string]string) error {
	if r == nil || r.store == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.EventStoreError("failed to marshal " + eventType + " payload").
			WithCause(err).
			WithContext("run_id", r.runID).
			Build()
	}
	return r.store.Append(ctx, r.runID, eventType, data, meta)
}
