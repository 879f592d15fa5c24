package cases

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Watcher polls the case directory for modification-time changes and
// triggers a full reload when any case file changes. Polling keeps the
// dependency surface flat; case edits are rare and a few seconds of
// latency is fine.
type Watcher struct {
	dir      string
	interval time.Duration
	loader   *Loader
	log      *zap.Logger

	stopCh chan struct{}
	mtimes map[string]time.Time
}

// NewWatcher creates a watcher over the loader's case directory.
func NewWatcher(loader *Loader, interval time.Duration, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		dir:      loader.dir,
		interval: interval,
		loader:   loader,
		log:      log.Named("watch"),
		stopCh:   make(chan struct{}),
		mtimes:   make(map[string]time.Time),
	}
}

// Start begins polling in a goroutine. The first scan only primes the
// modification-time cache; it does not trigger a reload.
func (w *Watcher) Start() {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		w.scan(true)
		for {
			select {
			case <-ticker.C:
				if w.scan(false) {
					if _, err := w.loader.LoadAll(); err != nil {
						w.log.Error("reload after file change failed", zap.Error(err))
					}
				}
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
}

// scan returns true when any case file appeared, vanished or changed.
func (w *Watcher) scan(prime bool) bool {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return false
	}

	changed := false
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		seen[path] = true
		last, ok := w.mtimes[path]
		if !ok || info.ModTime().After(last) {
			w.mtimes[path] = info.ModTime()
			if ok && !prime {
				changed = true
			}
			if !ok && !prime {
				changed = true // new file
			}
		}
	}
	for path := range w.mtimes {
		if !seen[path] {
			delete(w.mtimes, path)
			if !prime {
				changed = true
			}
		}
	}
	return changed
}
