package directory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault absorbs editor write bursts before a reload.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the fallback interval when fsnotify is unavailable.
const pollDefault = 5 * time.Second

// Watcher reloads a roster file when it changes on disk. A reload that
// fails validation is discarded: the roster in use stays intact, the
// failure is logged. The clearance table is not watched; it is
// load-once, versioned configuration.
type Watcher struct {
	path     string
	roster   *Roster
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher that keeps roster in sync with path.
func NewWatcher(path string, roster *Roster, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		roster:   roster,
		logger:   logger,
		debounce: debounceDefault,
	}
}

// Run watches the roster file. Blocks until ctx is cancelled. Falls
// back to polling when fsnotify cannot watch the directory.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("fsnotify unavailable, polling roster", "path", w.path, "err", err)
		return w.poll(ctx)
	}
	defer func() { _ = fsw.Close() }()

	// Watch the directory, not the file: editors replace files by
	// rename, which drops a direct file watch.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		w.logger.Warn("cannot watch roster directory, polling", "path", w.path, "err", err)
		return w.poll(ctx)
	}

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounceTimer.C:
			w.reload()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("roster watch error", "err", err)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) error {
	ticker := time.NewTicker(pollDefault)
	defer ticker.Stop()

	var lastMod time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if mod, ok := modTime(w.path); ok && mod.After(lastMod) {
				lastMod = mod
				w.reload()
			}
		}
	}
}

func modTime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func (w *Watcher) reload() {
	fresh, err := LoadRoster(w.path)
	if err != nil {
		w.logger.Error("roster reload rejected", "path", w.path, "err", err)
		return
	}
	w.roster.Replace(fresh)
	w.logger.Info("roster reloaded", "path", w.path, "employees", fresh.Len())
}
