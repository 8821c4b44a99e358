package publish

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/eventstore"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/logfields"
	"git.home.luguber.info/inful/siteconfig/internal/merge"
	"git.home.luguber.info/inful/siteconfig/internal/metrics"
	"git.home.luguber.info/inful/siteconfig/internal/notify"
	"git.home.luguber.info/inful/siteconfig/internal/snapshot"
	"git.home.luguber.info/inful/siteconfig/internal/storage"
	"git.home.luguber.info/inful/siteconfig/internal/topology"
)

// Run names, as they appear in report rows.
const (
	RunConfiguration = "Publish Configuration"
	RunResources     = "Publish Resources"
)

// Structure groups files are published to.
const (
	GroupConfig    = "config"
	GroupResources = "resources"
)

const (
	statusSuccess = "Success"
	statusFailed  = "Failed"
)

// Sink receives the report row of each run. *aggregate.Slot and
// *aggregate.Collector implement it.
type Sink interface {
	Add(fragment any) error
}

// Report is the row a run appends to the output.
type Report struct {
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Files  []string `json:"files"`
}

// ModuleFailure is a module skipped because one of its sources was unreadable.
type ModuleFailure struct {
	Module string
	Err    error
}

// Outcome summarizes a finished run.
type Outcome struct {
	RunID    string
	Report   Report
	Failures []ModuleFailure
	Duration time.Duration
}

// Publisher runs publish runs against a storage target.
type Publisher struct {
	cfg      *config.Config
	target   storage.Target
	engine   *merge.Engine
	history  eventstore.Store
	notifier notify.Notifier
	recorder metrics.Recorder
	logger   *slog.Logger
	trigger  string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Publisher) { p.recorder = metrics.OrNoop(r) }
}

// WithHistory records run events in store.
func WithHistory(store eventstore.Store) Option {
	return func(p *Publisher) { p.history = store }
}

// WithNotifier announces finished runs.
func WithNotifier(n notify.Notifier) Option {
	return func(p *Publisher) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithTrigger labels the runs in the history ("cli", "watch", "schedule").
func WithTrigger(trigger string) Option {
	return func(p *Publisher) { p.trigger = trigger }
}

// New creates a Publisher. lookup may be nil when neither override can apply.
func New(cfg *config.Config, target storage.Target, lookup topology.Lookup, opts ...Option) *Publisher {
	p := &Publisher{
		cfg:      cfg,
		target:   target,
		notifier: notify.Noop{},
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		trigger:  "cli",
	}
	for _, o := range opts {
		o(p)
	}
	p.engine = merge.NewEngine(lookup, p.logger, p.recorder)
	return p
}

// As returns a copy of p labeling its runs with trigger.
func (p *Publisher) As(trigger string) *Publisher {
	cp := *p
	cp.trigger = trigger
	return &cp
}

// runState carries the bookkeeping of one run.
type runState struct {
	name     string
	group    string
	snap     *snapshot.Snapshot
	events   *eventstore.Recorder
	logger   *slog.Logger
	files    []string
	failures []ModuleFailure
}

func (p *Publisher) begin(ctx context.Context, name, group string, snap *snapshot.Snapshot) *runState {
	runID := uuid.NewString()
	rs := &runState{
		name:   name,
		group:  group,
		snap:   snap,
		events: eventstore.NewRecorder(p.history, runID),
		logger: p.logger.With(logfields.RunID(runID), logfields.RunName(name)),
		files:  []string{},
	}
	if err := rs.events.RunStarted(ctx, eventstore.RunStartedPayload{
		Run:         name,
		Publication: p.cfg.Publication.ID,
		Trigger:     p.trigger,
	}); err != nil {
		rs.logger.Warn("Failed to record run start", logfields.Error(err))
	}
	rs.logger.Info("Publish run started", logfields.Publication(p.cfg.Publication.ID))
	return rs
}

// put publishes one file and adds its URL to the run's file list.
func (p *Publisher) put(ctx context.Context, rs *runState, module, name string, data []byte) error {
	obj, err := p.target.Put(ctx, rs.group, name, data)
	if err != nil {
		return err
	}
	rs.files = append(rs.files, obj.URL)
	if err := rs.events.FilePublished(ctx, eventstore.FilePublishedPayload{
		Module:  module,
		URL:     obj.URL,
		Hash:    obj.Hash,
		Changed: obj.Changed,
	}); err != nil {
		rs.logger.Warn("Failed to record published file", logfields.Error(err))
	}
	rs.logger.Info("Published "+obj.URL, logfields.Module(module), logfields.URL(obj.URL), slog.Bool("changed", obj.Changed))
	return nil
}

// putJSON marshals v and publishes it.
func (p *Publisher) putJSON(ctx context.Context, rs *runState, module, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.WrapError(err, errors.CategoryPublish, "failed to encode "+name).
			WithContext("module", module).
			Build()
	}
	return p.put(ctx, rs, module, name, data)
}

// skipModule records a module whose merge failed on an unreadable source.
func (p *Publisher) skipModule(ctx context.Context, rs *runState, module string, err error) {
	rs.failures = append(rs.failures, ModuleFailure{Module: module, Err: err})
	p.recorder.IncModuleResult(rs.name, metrics.ResultFailed)
	rs.logger.Warn("Skipping module with unreadable configuration", logfields.Module(module), logfields.Error(err))

	payload := eventstore.ModuleFailedPayload{Module: module, Error: err.Error()}
	if ce, ok := errors.AsClassified(err); ok {
		payload.Category = string(ce.Category())
	}
	if rerr := rs.events.ModuleFailed(ctx, payload); rerr != nil {
		rs.logger.Warn("Failed to record module failure", logfields.Error(rerr))
	}
}

// finish appends the report row and records the completed run.
func (p *Publisher) finish(ctx context.Context, rs *runState, start time.Time, sink Sink) (Outcome, error) {
	report := Report{Name: rs.name, Status: statusSuccess, Files: rs.files}
	if sink != nil {
		if err := sink.Add(report); err != nil {
			return Outcome{}, p.fail(ctx, rs, start, err)
		}
	}
	d := time.Since(start)
	row, _ := json.Marshal(report)

	if err := rs.events.RunCompleted(ctx, eventstore.RunCompletedPayload{
		Files:         rs.files,
		FailedModules: len(rs.failures),
		Report:        string(row),
	}, d); err != nil {
		rs.logger.Warn("Failed to record run completion", logfields.Error(err))
	}

	outcome := metrics.OutcomeSuccess
	if len(rs.failures) > 0 {
		outcome = metrics.OutcomeWarning
	}
	p.recorder.ObserveRunDuration(rs.name, d)
	p.recorder.IncRunOutcome(rs.name, outcome)
	p.recorder.IncFilesPublished(rs.name, len(rs.files))

	p.announce(ctx, rs, notify.RunReport{
		Run:    rs.name,
		Status: statusSuccess,
		Files:  rs.files,
		Report: row,
	})
	rs.logger.Info("Publish run completed",
		slog.Int("files", len(rs.files)),
		slog.Int("failed_modules", len(rs.failures)),
		logfields.DurationMS(float64(d.Milliseconds())))

	return Outcome{RunID: rs.events.RunID(), Report: report, Failures: rs.failures, Duration: d}, nil
}

// fail records an aborted run and returns cause. No report row is appended.
func (p *Publisher) fail(ctx context.Context, rs *runState, start time.Time, cause error) error {
	d := time.Since(start)
	if err := rs.events.RunFailed(ctx, cause, d); err != nil {
		rs.logger.Warn("Failed to record run failure", logfields.Error(err))
	}
	p.recorder.ObserveRunDuration(rs.name, d)
	p.recorder.IncRunOutcome(rs.name, metrics.OutcomeFailed)
	p.announce(ctx, rs, notify.RunReport{
		Run:    rs.name,
		Status: statusFailed,
		Files:  rs.files,
		Error:  cause.Error(),
	})
	rs.logger.Error("Publish run failed", logfields.Error(cause), logfields.DurationMS(float64(d.Milliseconds())))
	return cause
}

func (p *Publisher) announce(ctx context.Context, rs *runState, report notify.RunReport) {
	report.RunID = rs.events.RunID()
	if err := p.notifier.Notify(ctx, report); err != nil {
		rs.logger.Warn("Failed to announce run", logfields.Error(err))
	}
}

// mergeModule merges the records linked from field of the module record.
// An unreadable source is reported as skipped=true with a nil error.
func (p *Publisher) mergeModule(ctx context.Context, rs *runState, mod Module, field string, opts merge.Options) (merge.Result, bool, error) {
	linked, err := rs.snap.Store.Links(mod.Record, field, p.cfg.Publication.ID)
	if err == nil {
		var res merge.Result
		res, err = p.engine.MergeModuleConfig(ctx, merge.Classify(linked), opts)
		if err == nil {
			return res, false, nil
		}
	}
	if stderrors.Is(err, errors.ErrInvalidSource) {
		p.skipModule(ctx, rs, mod.Name, err)
		return merge.Result{}, true, nil
	}
	return merge.Result{}, false, err
}
