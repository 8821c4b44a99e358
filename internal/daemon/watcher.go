package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/siteconfig/internal/logfields"
)

const defaultDebounce = 2 * time.Second

// Watcher monitors a set of files and reports changes after a quiet period.
type Watcher struct {
	paths        map[string]bool
	watcher      *fsnotify.Watcher
	onChange     func(changed []string)
	debounceTime time.Duration

	mu       sync.Mutex
	pending  map[string]bool
	timer    *time.Timer
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for paths. onChange receives the changed
// paths (absolute, sorted) once no further change arrived for debounce.
func NewWatcher(paths []string, debounce time.Duration, onChange func(changed []string)) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		paths:        make(map[string]bool, len(paths)),
		watcher:      watcher,
		onChange:     onChange,
		debounceTime: debounce,
		pending:      make(map[string]bool),
		stopChan:     make(chan struct{}),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to resolve path %s: %w", p, err)
		}
		w.paths[abs] = true
	}
	return w, nil
}

// Start begins monitoring. Directories are watched instead of the files so
// editors that replace files on save are noticed.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := map[string]bool{}
	for p := range w.paths {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	slog.Info("Starting file watcher", slog.Int("files", len(w.paths)), slog.Duration("debounce", w.debounceTime))
	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher and drops pending changes.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		if err := w.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	})
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.paths[filepath.Clean(event.Name)] {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove == fsnotify.Remove:
				slog.Warn("Watched file removed", logfields.Path(event.Name))
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				slog.Debug("Watched file changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				w.schedule(filepath.Clean(event.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// schedule records a change and restarts the quiet period.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceTime, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	select {
	case <-w.stopChan:
		return
	default:
	}
	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)
	w.onChange(changed)
}
