package toolstore

import (
	"context"
	"sync"
	"time"

	"toolforge/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called once per debounced change of a unit source.
type ChangeFunc func(ctx context.Context, name string)

// Watcher watches a DirStore directory and reports created or modified units.
// Rapid successive writes to one file are coalesced into a single callback.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	onChange    ChangeFunc
	pending     map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	Events        int
	Reloads       int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// NewWatcher creates a watcher for store. onChange runs on the watcher goroutine.
func NewWatcher(store *DirStore, onChange ChangeFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		dir:         store.Dir(),
		onChange:    onChange,
		pending:     make(map[string]time.Time),
		debounceDur: 300 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// SetDebounce overrides the quiet period before a change is reported.
// Must be called before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDur = d
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return err
	}
	w.running = true
	w.mu.Unlock()
	logging.Watcher("Watching unit store: %s", w.dir)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.WatcherError("error closing watcher: %v", err)
	}
	logging.Watcher("Watcher stopped")
}

// Stats returns a snapshot of watcher counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WatcherError("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Removals and chmods are ignored; the registry never drops entries.
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	name, ok := NameFromFile(event.Name)
	if !ok {
		return
	}

	logging.WatcherDebug("%s event for %s", event.Op, event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[name] = time.Now()
	w.stats.Events++
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = time.Now()
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	var ready []string
	now := time.Now()
	for name, at := range w.pending {
		if now.Sub(at) >= w.debounceDur {
			ready = append(ready, name)
			delete(w.pending, name)
		}
	}
	w.stats.Reloads += len(ready)
	w.mu.Unlock()

	for _, name := range ready {
		logging.Watcher("Unit %s changed on disk", name)
		w.onChange(ctx, name)
	}
}
