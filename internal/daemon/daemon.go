// Package daemon keeps published site configuration current: it republishes
// when the snapshot or configuration changes and on a fixed interval, and
// serves Prometheus metrics and run status over HTTP.
package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/siteconfig/internal/aggregate"
	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/logfields"
	"git.home.luguber.info/inful/siteconfig/internal/metrics"
	"git.home.luguber.info/inful/siteconfig/internal/publish"
	"git.home.luguber.info/inful/siteconfig/internal/snapshot"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

// Triggers label why a publish happened.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerWatch    = "watch"
	TriggerManual   = "manual"
)

// RunResult describes the latest publish of both runs.
type RunResult struct {
	Trigger  string            `json:"trigger"`
	Started  time.Time         `json:"started"`
	Duration time.Duration     `json:"duration"`
	Outcomes []publish.Outcome `json:"-"`
	Files    int               `json:"files"`
	Report   string            `json:"report,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Daemon is the watch-mode service.
type Daemon struct {
	configPath string
	status     atomic.Value
	startTime  time.Time

	mu      sync.RWMutex
	cfg     *config.Config
	runtime *publish.Runtime
	lastRun *RunResult

	// runMu serializes publishes; collector gathers the report rows of one publish.
	runMu     sync.Mutex
	collector *aggregate.Collector

	registry *prom.Registry
	recorder metrics.Recorder

	scheduler *Scheduler
	watcher   *Watcher
	server    *HTTPServer

	loadSnapshot func(context.Context, config.SnapshotConfig) (*snapshot.Snapshot, error)
}

// New creates a daemon for the configuration loaded from configPath.
func New(configPath string, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.ValidationError("configuration is required").Build()
	}
	reg := prom.NewRegistry()
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	d := &Daemon{
		configPath:   configPath,
		cfg:          cfg,
		collector:    aggregate.NewCollector(),
		registry:     reg,
		recorder:     metrics.NewPrometheusRecorder(reg),
		loadSnapshot: snapshot.Load,
	}
	d.status.Store(StatusStopped)
	return d, nil
}

// Status returns the current daemon state.
func (d *Daemon) Status() Status {
	return d.status.Load().(Status)
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// LastRun returns the latest publish result, nil before the first one.
func (d *Daemon) LastRun() *RunResult {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.lastRun == nil {
		return nil
	}
	cp := *d.lastRun
	return &cp
}

// Start publishes once and then starts the scheduler, file watcher and
// metrics server as configured.
func (d *Daemon) Start(ctx context.Context) error {
	if d.Status() != StatusStopped {
		return errors.DaemonError("daemon already started").Build()
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	rt, err := publish.Open(ctx, d.cfg, publish.WithRecorder(d.recorder))
	if err != nil {
		d.status.Store(StatusStopped)
		return err
	}
	d.mu.Lock()
	d.runtime = rt
	d.mu.Unlock()

	if err := d.Trigger(ctx, TriggerStartup); err != nil {
		slog.Error("Initial publish failed", logfields.Error(err))
	}

	cfg := d.Config()
	if cfg.Daemon.Interval > 0 {
		s, err := NewScheduler()
		if err != nil {
			return d.abortStart(ctx, err)
		}
		if _, err := s.SchedulePeriodicPublish(cfg.Daemon.Interval, func() {
			if err := d.Trigger(ctx, TriggerSchedule); err != nil {
				slog.Error("Scheduled publish failed", logfields.Error(err))
			}
		}); err != nil {
			return d.abortStart(ctx, err)
		}
		s.Start(ctx)
		d.scheduler = s
	}

	if cfg.Daemon.Watch {
		paths := []string{}
		if d.configPath != "" {
			paths = append(paths, d.configPath)
		}
		if cfg.Snapshot.Git == nil && cfg.Snapshot.Path != "" {
			paths = append(paths, cfg.Snapshot.Path)
		}
		w, err := NewWatcher(paths, cfg.Daemon.Debounce, func(changed []string) { d.onChange(ctx, changed) })
		if err != nil {
			return d.abortStart(ctx, err)
		}
		if err := w.Start(ctx); err != nil {
			return d.abortStart(ctx, err)
		}
		d.watcher = w
	}

	if cfg.Daemon.MetricsAddr != "" {
		srv := NewHTTPServer(d)
		if err := srv.Start(ctx, cfg.Daemon.MetricsAddr); err != nil {
			return d.abortStart(ctx, err)
		}
		d.server = srv
	}

	d.status.Store(StatusRunning)
	slog.Info("Daemon started",
		slog.Duration("interval", cfg.Daemon.Interval),
		slog.Bool("watch", cfg.Daemon.Watch),
		slog.String("metrics_addr", cfg.Daemon.MetricsAddr))
	return nil
}

func (d *Daemon) abortStart(ctx context.Context, err error) error {
	_ = d.Stop(ctx)
	return err
}

// Run starts the daemon and blocks until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.Stop(stopCtx)
}

// Stop shuts down all components. Stopping a stopped daemon is a no-op.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.Status() == StatusStopped {
		return nil
	}
	d.status.Store(StatusStopping)

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(ctx); err != nil {
			slog.Warn("Failed to stop scheduler", logfields.Error(err))
		}
	}
	if d.server != nil {
		if err := d.server.Stop(ctx); err != nil {
			slog.Warn("Failed to stop HTTP server", logfields.Error(err))
		}
	}

	// Wait for a running publish before closing its resources.
	d.runMu.Lock()
	d.mu.Lock()
	if d.runtime != nil {
		d.runtime.Close()
		d.runtime = nil
	}
	d.mu.Unlock()
	d.runMu.Unlock()

	d.status.Store(StatusStopped)
	slog.Info("Daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return nil
}

// Trigger loads the snapshot and runs both publish runs. Publishes never
// overlap; a trigger arriving during a publish waits for it.
func (d *Daemon) Trigger(ctx context.Context, trigger string) error {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.mu.RLock()
	cfg, rt := d.cfg, d.runtime
	d.mu.RUnlock()
	if rt == nil {
		return errors.DaemonError("daemon is not started").Build()
	}

	res := &RunResult{Trigger: trigger, Started: time.Now()}
	slog.Info("Publishing", slog.String("trigger", trigger))

	snap, err := d.loadSnapshot(ctx, cfg.Snapshot)
	if err == nil {
		res.Outcomes, err = rt.As(trigger).PublishAll(ctx, snap, d.collector)
	}
	res.Duration = time.Since(res.Started)
	res.Report = d.collector.Reset()
	for _, o := range res.Outcomes {
		res.Files += len(o.Report.Files)
	}
	if err != nil {
		res.Error = err.Error()
	}

	d.mu.Lock()
	d.lastRun = res
	d.mu.Unlock()
	return err
}

// onChange reacts to changed watched files.
func (d *Daemon) onChange(ctx context.Context, changed []string) {
	if d.configPath != "" {
		abs, err := filepath.Abs(d.configPath)
		if err == nil && slices.Contains(changed, abs) {
			if err := d.ReloadConfig(ctx); err != nil {
				slog.Error("Failed to reload configuration", logfields.Path(d.configPath), logfields.Error(err))
				return
			}
		}
	}
	if err := d.Trigger(ctx, TriggerWatch); err != nil {
		slog.Error("Publish after change failed", slog.Any("changed", changed), logfields.Error(err))
	}
}

// ReloadConfig reloads the configuration file and reopens the publish
// runtime. The old configuration stays active when the new one is invalid.
func (d *Daemon) ReloadConfig(ctx context.Context) error {
	if d.configPath == "" {
		return errors.DaemonError("daemon has no configuration file").Build()
	}
	cfg, err := config.Load(d.configPath)
	if err != nil {
		return err
	}
	rt, err := publish.Open(ctx, cfg, publish.WithRecorder(d.recorder))
	if err != nil {
		return err
	}

	d.runMu.Lock()
	d.mu.Lock()
	old := d.runtime
	d.cfg, d.runtime = cfg, rt
	d.mu.Unlock()
	d.runMu.Unlock()

	if old != nil {
		old.Close()
	}
	slog.Info("Configuration reloaded", logfields.Path(d.configPath))
	return nil
}
