package publish

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/eventstore"
	"git.home.luguber.info/inful/siteconfig/internal/logfields"
	"git.home.luguber.info/inful/siteconfig/internal/notify"
	"git.home.luguber.info/inful/siteconfig/internal/storage"
	"git.home.luguber.info/inful/siteconfig/internal/topology"
)

// Runtime is a Publisher together with the resources it was opened with.
type Runtime struct {
	*Publisher

	target   storage.Target
	history  *eventstore.SQLiteStore
	notifier notify.Notifier
}

// Open builds the storage target, topology lookup, run history and notifier
// selected by cfg and returns a Publisher over them. Close releases them.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Runtime, error) {
	target, err := storage.New(ctx, cfg.Output)
	if err != nil {
		return nil, err
	}
	return OpenTarget(cfg, target, opts...)
}

// OpenTarget is Open with a caller-supplied target, e.g. a MemoryTarget for
// dry runs. The runtime takes ownership of target.
func OpenTarget(cfg *config.Config, target storage.Target, opts ...Option) (*Runtime, error) {
	rt := &Runtime{target: target, notifier: notify.Noop{}}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	lookup, err := topology.New(cfg.Topology, slog.Default())
	if err != nil {
		return nil, err
	}

	if cfg.History.Database != "" {
		store, err := eventstore.NewSQLiteStore(cfg.History.Database)
		if err != nil {
			return nil, err
		}
		rt.history = store
		opts = append(opts, WithHistory(store))
	}

	notifier, err := notify.New(cfg.Notify)
	if err != nil {
		// A missing NATS server must not stop publishing.
		slog.Warn("Run notifications disabled", logfields.Error(err))
	} else {
		rt.notifier = notifier
		opts = append(opts, WithNotifier(notifier))
	}

	rt.Publisher = New(cfg, target, lookup, opts...)
	ok = true
	return rt, nil
}

// History returns the run history store, nil when disabled.
func (rt *Runtime) History() eventstore.Store {
	if rt.history == nil {
		return nil
	}
	return rt.history
}

// Close releases the target, history and notifier.
func (rt *Runtime) Close() {
	if rt.notifier != nil {
		rt.notifier.Close()
	}
	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			slog.Warn("Failed to close run history", logfields.Error(err))
		}
	}
	if rt.target != nil {
		if err := rt.target.Close(); err != nil {
			slog.Warn("Failed to close storage target", logfields.Error(err))
		}
	}
}
